package creditline

import (
	"context"
	"math/big"
	"testing"

	"creditline-client/consent"
	"creditline-client/ledgerclient"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testLine     = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testBorrower = common.HexToAddress("0x2000000000000000000000000000000000000002")
	testLender   = common.HexToAddress("0x3000000000000000000000000000000000000003")
	testToken    = common.HexToAddress("0x5000000000000000000000000000000000000005")
	testStranger = common.HexToAddress("0x4000000000000000000000000000000000000004")

	testPositionID = ComputeID(testLine, testLender, testToken)
)

func confirmedReceipt() *ethtypes.Receipt {
	return &ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0xabc1"),
		BlockNumber: big.NewInt(100),
		GasUsed:     60_000,
	}
}

// creditFields mirrors the shape the credits(id) read unpacks into.
type creditFields = struct {
	Deposit         *big.Int
	Principal       *big.Int
	InterestAccrued *big.Int
	InterestRepaid  *big.Int
	Decimals        uint8
	Token           common.Address
	Lender          common.Address
	IsOpen          bool
}

func stubStatus(ledger *ledgerclient.MockLedgerClient, status Status) {
	ledger.On("Call", mock.Anything, testLine, "status", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*(args.Get(3).(*uint8)) = uint8(status)
		}).Return(nil)
}

func stubAddressRead(ledger *ledgerclient.MockLedgerClient, method string, addr common.Address) {
	ledger.On("Call", mock.Anything, testLine, method, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*(args.Get(3).(*common.Address)) = addr
		}).Return(nil)
}

func stubPositions(ledger *ledgerclient.MockLedgerClient, ids ...common.Hash) {
	ledger.On("Call", mock.Anything, testLine, "counts", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			counts := args.Get(3).(*struct {
				Count *big.Int
				Len   *big.Int
			})
			counts.Count = big.NewInt(int64(len(ids)))
			counts.Len = big.NewInt(int64(len(ids)))
		}).Return(nil)
	ledger.On("Call", mock.Anything, testLine, "ids", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			index := args.Get(4).([]interface{})[0].(*big.Int).Int64()
			*(args.Get(3).(*[32]byte)) = ids[index]
		}).Return(nil)
}

func stubCredit(ledger *ledgerclient.MockLedgerClient, fields creditFields) {
	ledger.On("Call", mock.Anything, testLine, "credits", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*(args.Get(3).(*creditFields)) = fields
		}).Return(nil)
	ledger.On("Call", mock.Anything, testLine, "rates", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			rates := args.Get(3).(*struct {
				DRate       *big.Int
				FRate       *big.Int
				LastAccrued *big.Int
			})
			rates.DRate = big.NewInt(500)
			rates.FRate = big.NewInt(200)
			rates.LastAccrued = big.NewInt(0)
		}).Return(nil)
}

func openCredit(deposit, principal int64) creditFields {
	return creditFields{
		Deposit:         big.NewInt(deposit),
		Principal:       big.NewInt(principal),
		InterestAccrued: big.NewInt(0),
		InterestRepaid:  big.NewInt(0),
		Decimals:        0,
		Token:           testToken,
		Lender:          testLender,
		IsOpen:          true,
	}
}

func stubInterest(ledger *ledgerclient.MockLedgerClient, accrued int64) {
	ledger.On("Call", mock.Anything, testLine, "interestAccrued", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*(args.Get(3).(**big.Int)) = big.NewInt(accrued)
		}).Return(nil)
}

func stubTokenDecimals(ledger *ledgerclient.MockLedgerClient, decimals uint8) {
	ledger.On("Call", mock.Anything, testToken, "decimals", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*(args.Get(3).(*uint8)) = decimals
		}).Return(nil)
}

func stubConsentRegistry(ledger *ledgerclient.MockLedgerClient, proposed bool) {
	ledger.On("Call", mock.Anything, testLine, "mutualConsents", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*(args.Get(3).(*bool)) = proposed
		}).Return(nil)
}

func TestAddCreditRejectsInactiveLine(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubStatus(ledger, StatusRepaid)
	svc := NewService(ledger)

	_, err := svc.AddCredit(context.Background(), testLine, 500, 200,
		decimal.RequireFromString("100"), testToken, testLender, consent.ProposeOrFinalize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLineNotActive))
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestAddCreditRejectsRateAboveMaximum(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	svc := NewService(ledger)

	_, err := svc.AddCredit(context.Background(), testLine, MaxRateBPS+1, 200,
		decimal.RequireFromString("100"), testToken, testLender, consent.ProposeOrFinalize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateAboveMaximum))
	assert.Equal(t, 0, ledger.LedgerCalls())
}

func TestAddCreditFinalizesWhenCounterpartyProposed(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubStatus(ledger, StatusActive)
	stubTokenDecimals(ledger, 6)
	stubAddressRead(ledger, "borrower", testBorrower)
	stubConsentRegistry(ledger, true)
	ledger.On("Execute", mock.Anything, testLine, "addCredit", mock.Anything, mock.Anything).
		Return(confirmedReceipt(), nil)
	svc := NewService(ledger)

	result, err := svc.AddCredit(context.Background(), testLine, 500, 200,
		decimal.RequireFromString("100"), testToken, testLender, consent.ProposeOrFinalize)
	require.NoError(t, err)

	assert.True(t, result.Finalized())
	assert.Equal(t, testLender, result.Check.Counterparty)
	assert.Equal(t, 1, ledger.LedgerWrites())
}

func TestAddCreditFinalizeOnlyRequiresExistingProposal(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubStatus(ledger, StatusActive)
	stubTokenDecimals(ledger, 6)
	stubAddressRead(ledger, "borrower", testBorrower)
	stubConsentRegistry(ledger, false)
	svc := NewService(ledger)

	_, err := svc.AddCredit(context.Background(), testLine, 500, 200,
		decimal.RequireFromString("100"), testToken, testLender, consent.FinalizeOnly)
	require.Error(t, err)
	assert.True(t, errors.Is(err, consent.ErrConsentNotInitialized))
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestAddCreditRejectsNonParticipantSigner(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testStranger}
	stubStatus(ledger, StatusActive)
	stubTokenDecimals(ledger, 6)
	stubAddressRead(ledger, "borrower", testBorrower)
	svc := NewService(ledger)

	_, err := svc.AddCredit(context.Background(), testLine, 500, 200,
		decimal.RequireFromString("100"), testToken, testLender, consent.ProposeOrFinalize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, consent.ErrNotAParticipant))
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestSetRatesRejectsInactiveLine(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubStatus(ledger, StatusRepaid)
	svc := NewService(ledger)

	_, err := svc.SetRates(context.Background(), testLine, testPositionID, 500, 200, consent.ProposeOrFinalize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLineNotActive))
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestSetRatesFinalizesOnActiveLine(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubStatus(ledger, StatusActive)
	stubCredit(ledger, openCredit(150, 0))
	stubAddressRead(ledger, "borrower", testBorrower)
	stubConsentRegistry(ledger, true)
	ledger.On("Execute", mock.Anything, testLine, "setRates", mock.Anything, mock.Anything).
		Return(confirmedReceipt(), nil)
	svc := NewService(ledger)

	result, err := svc.SetRates(context.Background(), testLine, testPositionID, 500, 200, consent.ProposeOrFinalize)
	require.NoError(t, err)
	assert.True(t, result.Finalized())
	assert.Equal(t, 1, ledger.LedgerWrites())
}

func TestAddCreditDryRunPopulatesWithoutSubmitting(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubStatus(ledger, StatusActive)
	stubTokenDecimals(ledger, 6)
	svc := NewService(ledger)

	req, err := svc.BuildAddCredit(context.Background(), testLine, 500, 200,
		decimal.RequireFromString("100"), testToken, testLender)
	require.NoError(t, err)

	calldata, err := req.Calldata()
	require.NoError(t, err)
	unsigned := ethtypes.NewTx(&ethtypes.DynamicFeeTx{To: &testLine, Data: calldata, Gas: 120_000})
	ledger.On("Populate", mock.Anything, testLine, "addCredit", mock.Anything, mock.Anything).
		Return(unsigned, nil)

	tx, err := svc.Pipeline().Populate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, calldata, tx.Data())
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestIncreaseCreditRejectedWhileActive(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubStatus(ledger, StatusActive)
	svc := NewService(ledger)

	_, err := svc.IncreaseCredit(context.Background(), testLine, testPositionID,
		decimal.RequireFromString("50"), consent.ProposeOrFinalize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLineActive))
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestIncreaseCreditNegotiableBeforeActivation(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubStatus(ledger, StatusUninitialized)
	stubCredit(ledger, openCredit(150, 0))
	stubAddressRead(ledger, "borrower", testBorrower)
	stubConsentRegistry(ledger, true)
	ledger.On("Execute", mock.Anything, testLine, "increaseCredit", mock.Anything, mock.Anything).
		Return(confirmedReceipt(), nil)
	svc := NewService(ledger)

	result, err := svc.IncreaseCredit(context.Background(), testLine, testPositionID,
		decimal.RequireFromString("50"), consent.ProposeOrFinalize)
	require.NoError(t, err)
	assert.True(t, result.Finalized())
}

func TestBorrowWithinAvailableCredit(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubStatus(ledger, StatusActive)
	stubCredit(ledger, openCredit(150, 100))
	ledger.On("Execute", mock.Anything, testLine, "borrow", mock.Anything, mock.Anything).
		Return(confirmedReceipt(), nil)
	svc := NewService(ledger)

	receipt, err := svc.Borrow(context.Background(), testLine, testPositionID, decimal.RequireFromString("40"))
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, 1, ledger.LedgerWrites())
}

func TestBorrowRejectsExceedingAvailableCredit(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubStatus(ledger, StatusActive)
	stubCredit(ledger, openCredit(150, 100))
	svc := NewService(ledger)

	_, err := svc.Borrow(context.Background(), testLine, testPositionID, decimal.RequireFromString("60"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExceedsAvailableCredit))
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestBorrowRejectsClosedPosition(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubStatus(ledger, StatusActive)
	closed := openCredit(150, 0)
	closed.IsOpen = false
	stubCredit(ledger, closed)
	svc := NewService(ledger)

	_, err := svc.Borrow(context.Background(), testLine, testPositionID, decimal.RequireFromString("10"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPositionClosed))
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestDepositAndRepayCapsAtObligation(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubPositions(ledger, testPositionID)
	stubCredit(ledger, openCredit(150, 100))
	stubInterest(ledger, 5)
	svc := NewService(ledger)

	_, err := svc.DepositAndRepay(context.Background(), testLine, decimal.RequireFromString("106"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmountExceedsObligation))
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestDepositAndRepayAcceptsFullObligation(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubPositions(ledger, testPositionID)
	stubCredit(ledger, openCredit(150, 100))
	stubInterest(ledger, 5)
	ledger.On("Execute", mock.Anything, testLine, "depositAndRepay", mock.Anything, mock.Anything).
		Return(confirmedReceipt(), nil)
	svc := NewService(ledger)

	_, err := svc.DepositAndRepay(context.Background(), testLine, decimal.RequireFromString("105"))
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.LedgerWrites())
}

func TestDepositAndRepayRequiresOutstandingPrincipal(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubPositions(ledger, testPositionID)
	stubCredit(ledger, openCredit(150, 0))
	svc := NewService(ledger)

	_, err := svc.DepositAndRepay(context.Background(), testLine, decimal.RequireFromString("10"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotBorrowing))
}

func TestDepositAndRepayZeroAmountStillRequiresBorrowing(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubPositions(ledger)
	svc := NewService(ledger)

	_, err := svc.DepositAndRepay(context.Background(), testLine, decimal.Zero)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotBorrowing))
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestDepositAndCloseRequiresBorrower(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testLender}
	stubPositions(ledger, testPositionID)
	stubCredit(ledger, openCredit(150, 100))
	stubAddressRead(ledger, "borrower", testBorrower)
	svc := NewService(ledger)

	_, err := svc.DepositAndClose(context.Background(), testLine, testPositionID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotBorrower))
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestWithdrawRequiresLender(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubCredit(ledger, openCredit(150, 0))
	svc := NewService(ledger)

	_, err := svc.Withdraw(context.Background(), testLine, testPositionID, decimal.RequireFromString("10"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotLender))
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestCloseRequiresParticipant(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testStranger}
	stubCredit(ledger, openCredit(150, 0))
	stubAddressRead(ledger, "borrower", testBorrower)
	svc := NewService(ledger)

	_, err := svc.Close(context.Background(), testLine, testPositionID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotParticipant))
	assert.Equal(t, 0, ledger.LedgerWrites())
}

func TestCloseByLender(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testLender}
	stubCredit(ledger, openCredit(150, 0))
	stubAddressRead(ledger, "borrower", testBorrower)
	ledger.On("Execute", mock.Anything, testLine, "close", mock.Anything, mock.Anything).
		Return(confirmedReceipt(), nil)
	svc := NewService(ledger)

	_, err := svc.Close(context.Background(), testLine, testPositionID)
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.LedgerWrites())
}

func TestGetCreditUnknownPosition(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	stubCredit(ledger, creditFields{
		Deposit:         big.NewInt(0),
		Principal:       big.NewInt(0),
		InterestAccrued: big.NewInt(0),
		InterestRepaid:  big.NewInt(0),
	})
	svc := NewService(ledger)

	_, err := svc.GetCredit(context.Background(), testLine, testPositionID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPositionNotFound))
}
