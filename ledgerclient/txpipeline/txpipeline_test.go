package txpipeline

import (
	"context"
	"math/big"
	"testing"

	"creditline-client/contracts"
	"creditline-client/ledgerclient"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testLine   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testSigner = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

func borrowRequest() Request {
	return Request{
		Contract:   testLine,
		Descriptor: contracts.SecuredLine,
		Method:     "borrow",
		Args:       []interface{}{common.HexToHash("0x01"), big.NewInt(100)},
	}
}

func TestCalldataMatchesDescriptorPacking(t *testing.T) {
	req := borrowRequest()
	expected, err := contracts.SecuredLine.Pack("borrow", common.HexToHash("0x01"), big.NewInt(100))
	require.NoError(t, err)

	calldata, err := req.Calldata()
	require.NoError(t, err)
	assert.Equal(t, expected, calldata)
}

func TestCalldataRejectsUnknownMethod(t *testing.T) {
	req := borrowRequest()
	req.Method = "noSuchMethod"

	_, err := req.Calldata()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledgerclient.ErrEncodingCalldata))
}

func TestExecuteSubmitsExactlyOnce(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testSigner}
	ledger.On("Execute", mock.Anything, testLine, "borrow", mock.Anything, mock.Anything).
		Return(nil, ledgerclient.ErrLedgerUnavailable)
	pipeline := New(ledger)

	_, err := pipeline.Execute(context.Background(), borrowRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledgerclient.ErrLedgerUnavailable))

	// A failed write is never retried.
	assert.Equal(t, 1, ledger.LedgerWrites())
}

func TestReadDecodesThroughLedger(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testSigner}
	ledger.On("Call", mock.Anything, testLine, "status", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*(args.Get(3).(*uint8)) = 1
		}).Return(nil)
	pipeline := New(ledger)

	var status uint8
	err := pipeline.Read(context.Background(), Request{
		Contract:   testLine,
		Descriptor: contracts.SecuredLine,
		Method:     "status",
	}, &status)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), status)
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestExecuteReturnsConfirmedReceipt(t *testing.T) {
	confirmed := &ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0xabc4"),
		BlockNumber: big.NewInt(103),
		GasUsed:     42_000,
	}
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testSigner}
	ledger.On("Execute", mock.Anything, testLine, "borrow", mock.Anything, mock.Anything).
		Return(confirmed, nil)
	pipeline := New(ledger)

	receipt, err := pipeline.Execute(context.Background(), borrowRequest())
	require.NoError(t, err)
	assert.Equal(t, confirmed.TxHash, receipt.TxHash)
}
