package ledgerclient

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Overrides carries the optional transaction parameters a caller may pin
// instead of letting the client estimate them.
type Overrides struct {
	Value    *big.Int
	GasLimit uint64
	GasPrice *big.Int
}

// LedgerClient is the boundary to the remote ledger. Reads go through Call,
// dry runs through Populate (unsigned transaction, nothing submitted) and
// writes through Execute (sign, submit, block until the receipt is in).
//
// All durable state lives on the ledger; implementations hold no cache of
// contract state across calls.
type LedgerClient interface {
	// Signer returns the address of the currently authenticated caller.
	Signer() common.Address

	// Call executes a view method and decodes the result into out.
	Call(ctx context.Context, contract common.Address, descriptor abi.ABI, method string, out interface{}, args ...interface{}) error

	// Populate encodes method+args against the descriptor and returns an
	// unsigned transaction request without submitting it.
	Populate(ctx context.Context, contract common.Address, descriptor abi.ABI, method string, overrides Overrides, args ...interface{}) (*ethtypes.Transaction, error)

	// Execute populates, signs, submits and waits for confirmation.
	Execute(ctx context.Context, contract common.Address, descriptor abi.ABI, method string, overrides Overrides, args ...interface{}) (*ethtypes.Receipt, error)
}
