package ledgerclient

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

// MockLedgerClient records every ledger interaction, so tests can assert
// that local rejections produced zero ledger traffic.
type MockLedgerClient struct {
	mock.Mock
	SignerAddress common.Address
}

func (m *MockLedgerClient) Signer() common.Address {
	return m.SignerAddress
}

func (m *MockLedgerClient) Call(ctx context.Context, contract common.Address, descriptor abi.ABI, method string, out interface{}, args ...interface{}) error {
	called := m.Called(ctx, contract, method, out, args)
	return called.Error(0)
}

func (m *MockLedgerClient) Populate(ctx context.Context, contract common.Address, descriptor abi.ABI, method string, overrides Overrides, args ...interface{}) (*ethtypes.Transaction, error) {
	called := m.Called(ctx, contract, method, overrides, args)
	tx, _ := called.Get(0).(*ethtypes.Transaction)
	return tx, called.Error(1)
}

func (m *MockLedgerClient) Execute(ctx context.Context, contract common.Address, descriptor abi.ABI, method string, overrides Overrides, args ...interface{}) (*ethtypes.Receipt, error) {
	called := m.Called(ctx, contract, method, overrides, args)
	receipt, _ := called.Get(0).(*ethtypes.Receipt)
	return receipt, called.Error(1)
}

// LedgerWrites counts Execute invocations; reads and dry runs are not writes.
func (m *MockLedgerClient) LedgerWrites() int {
	writes := 0
	for _, call := range m.Calls {
		if call.Method == "Execute" {
			writes++
		}
	}
	return writes
}

// LedgerCalls counts every interaction of any kind.
func (m *MockLedgerClient) LedgerCalls() int {
	return len(m.Calls)
}
