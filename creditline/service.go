// Package creditline owns the credit-line lifecycle: negotiating and
// accepting credit terms under mutual consent, drawing down, repaying and
// closing positions. Every operation validates its role and status
// preconditions locally, against fresh ledger reads, before a transaction
// is constructed.
package creditline

import (
	"context"
	"math/big"

	"creditline-client/consent"
	"creditline-client/contracts"
	"creditline-client/ledgerclient"
	"creditline-client/ledgerclient/txpipeline"
	"creditline-client/logging"
	"creditline-client/tokens"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Service struct {
	ledger   ledgerclient.LedgerClient
	pipeline *txpipeline.Pipeline
	consents *consent.Calculator
}

func NewService(ledger ledgerclient.LedgerClient) *Service {
	return &Service{
		ledger:   ledger,
		pipeline: txpipeline.New(ledger),
		consents: consent.NewCalculator(ledger),
	}
}

// Pipeline exposes the underlying transaction pipeline so callers can dry
// run any request this service builds.
func (s *Service) Pipeline() *txpipeline.Pipeline {
	return s.pipeline
}

// ConsentResult reports what a mutual-consent submission did: Finalized
// says whether the action took effect or only registered a proposal.
type ConsentResult struct {
	Check   consent.Check
	Receipt *ethtypes.Receipt
}

func (r *ConsentResult) Finalized() bool {
	return r.Check.WillFinalize
}

// submitWithConsent populates the request to obtain the exact calldata,
// runs the consent check against that calldata and then submits the very
// same request. Submitting different bytes than were hashed would leave
// the two parties unable to converge.
func (s *Service) submitWithConsent(ctx context.Context, line common.Address, req txpipeline.Request, partyOne, partyTwo common.Address, mode consent.Mode) (*ConsentResult, error) {
	calldata, err := req.Calldata()
	if err != nil {
		return nil, err
	}

	check, err := s.consents.Check(ctx, line, calldata, partyOne, partyTwo)
	if err != nil {
		return nil, err
	}

	if mode == consent.FinalizeOnly && !check.WillFinalize {
		logging.Info("Consent not initialized, refusing proposal-only submission", logging.Consent,
			"line", line.Hex(), "method", req.Method, "hash", check.Hash.Hex())
		return nil, consent.ErrConsentNotInitialized
	}

	receipt, err := s.pipeline.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ConsentResult{Check: check, Receipt: receipt}, nil
}

func validateRates(drate, frate uint64) error {
	if drate > MaxRateBPS || frate > MaxRateBPS {
		return errors.Wrapf(ErrRateAboveMaximum, "drate=%d frate=%d max=%d", drate, frate, MaxRateBPS)
	}
	return nil
}

// BuildAddCredit validates the preconditions and returns the exact request
// addCredit would submit, for dry runs.
func (s *Service) BuildAddCredit(ctx context.Context, line common.Address, drate, frate uint64, amount decimal.Decimal, token, lender common.Address) (txpipeline.Request, error) {
	if err := validateRates(drate, frate); err != nil {
		return txpipeline.Request{}, err
	}

	status, err := s.GetStatus(ctx, line)
	if err != nil {
		return txpipeline.Request{}, err
	}
	if status != StatusActive {
		return txpipeline.Request{}, errors.Wrapf(ErrLineNotActive, "status is %s", status)
	}

	decimals, err := tokens.Decimals(ctx, s.ledger, token)
	if err != nil {
		return txpipeline.Request{}, err
	}
	base, err := tokens.ToBaseUnits(amount, decimals)
	if err != nil {
		return txpipeline.Request{}, err
	}

	return txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "addCredit",
		Args: []interface{}{
			new(big.Int).SetUint64(drate),
			new(big.Int).SetUint64(frate),
			base,
			token,
			lender,
		},
	}, nil
}

// AddCredit proposes or accepts a new position. Mutual consent between the
// line's borrower and the named lender; only valid while the line is Active.
func (s *Service) AddCredit(ctx context.Context, line common.Address, drate, frate uint64, amount decimal.Decimal, token, lender common.Address, mode consent.Mode) (*ConsentResult, error) {
	req, err := s.BuildAddCredit(ctx, line, drate, frate, amount, token, lender)
	if err != nil {
		return nil, err
	}

	borrower, err := s.GetBorrower(ctx, line)
	if err != nil {
		return nil, err
	}
	return s.submitWithConsent(ctx, line, req, borrower, lender, mode)
}

// SetRates renegotiates a position's rates under mutual consent between
// the borrower and the position's lender.
func (s *Service) SetRates(ctx context.Context, line common.Address, positionID common.Hash, drate, frate uint64, mode consent.Mode) (*ConsentResult, error) {
	if err := validateRates(drate, frate); err != nil {
		return nil, err
	}

	status, err := s.GetStatus(ctx, line)
	if err != nil {
		return nil, err
	}
	if status != StatusActive {
		return nil, errors.Wrapf(ErrLineNotActive, "status is %s", status)
	}

	credit, err := s.GetCredit(ctx, line, positionID)
	if err != nil {
		return nil, err
	}
	borrower, err := s.GetBorrower(ctx, line)
	if err != nil {
		return nil, err
	}

	req := txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "setRates",
		Args: []interface{}{
			positionID,
			new(big.Int).SetUint64(drate),
			new(big.Int).SetUint64(frate),
		},
	}
	return s.submitWithConsent(ctx, line, req, borrower, credit.Lender, mode)
}

// IncreaseCredit raises a position's committed deposit. The protocol only
// allows this negotiation while the line is NOT yet active; the inversion
// relative to addCredit is the protocol's own rule and is not normalized
// here.
func (s *Service) IncreaseCredit(ctx context.Context, line common.Address, positionID common.Hash, amount decimal.Decimal, mode consent.Mode) (*ConsentResult, error) {
	status, err := s.GetStatus(ctx, line)
	if err != nil {
		return nil, err
	}
	if status == StatusActive {
		return nil, errors.Wrap(ErrLineActive, "increaseCredit is only negotiable before activation")
	}

	credit, err := s.GetCredit(ctx, line, positionID)
	if err != nil {
		return nil, err
	}
	base, err := tokens.ToBaseUnits(amount, credit.TokenDecimals)
	if err != nil {
		return nil, err
	}
	borrower, err := s.GetBorrower(ctx, line)
	if err != nil {
		return nil, err
	}

	req := txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "increaseCredit",
		Args:       []interface{}{positionID, base},
	}
	return s.submitWithConsent(ctx, line, req, borrower, credit.Lender, mode)
}

// Borrow draws down against an already-extended facility. Direct execution,
// no consent round: the lender consented when the facility was opened.
func (s *Service) Borrow(ctx context.Context, line common.Address, positionID common.Hash, amount decimal.Decimal) (*ethtypes.Receipt, error) {
	status, err := s.GetStatus(ctx, line)
	if err != nil {
		return nil, err
	}
	if status != StatusActive {
		return nil, errors.Wrapf(ErrLineNotActive, "status is %s", status)
	}

	credit, err := s.GetCredit(ctx, line, positionID)
	if err != nil {
		return nil, err
	}
	if !credit.IsOpen {
		return nil, errors.Wrapf(ErrPositionClosed, "id %s", positionID.Hex())
	}

	base, err := tokens.ToBaseUnits(amount, credit.TokenDecimals)
	if err != nil {
		return nil, err
	}
	if base.Cmp(credit.Available()) > 0 {
		return nil, errors.Wrapf(ErrExceedsAvailableCredit,
			"amount %s, principal %s, deposit %s", base, credit.Principal, credit.Deposit)
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "borrow",
		Args:       []interface{}{positionID, base},
	})
}

// DepositAndRepay pays down the first position. The obligation ceiling is
// computed from the live accrual at call time; repaying zero is a no-op
// that still requires active borrowing.
func (s *Service) DepositAndRepay(ctx context.Context, line common.Address, amount decimal.Decimal) (*ethtypes.Receipt, error) {
	first, err := s.FirstPosition(ctx, line)
	if err != nil {
		return nil, err
	}
	if first == nil || first.Principal.Sign() == 0 {
		return nil, ErrNotBorrowing
	}

	base, err := tokens.ToBaseUnits(amount, first.TokenDecimals)
	if err != nil {
		return nil, err
	}

	accrued, err := s.LiveInterest(ctx, line, first.ID)
	if err != nil {
		return nil, err
	}
	obligation := new(big.Int).Add(first.Principal, accrued)
	if base.Cmp(obligation) > 0 {
		return nil, errors.Wrapf(ErrAmountExceedsObligation,
			"amount %s, principal %s, interest %s", base, first.Principal, accrued)
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "depositAndRepay",
		Args:       []interface{}{base},
	})
}

// DepositAndClose repays the full outstanding obligation and closes the
// position in one transaction. Borrower only.
func (s *Service) DepositAndClose(ctx context.Context, line common.Address, positionID common.Hash) (*ethtypes.Receipt, error) {
	borrowing, err := s.IsBorrowing(ctx, line)
	if err != nil {
		return nil, err
	}
	if !borrowing {
		return nil, ErrNotBorrowing
	}

	borrower, err := s.GetBorrower(ctx, line)
	if err != nil {
		return nil, err
	}
	if s.ledger.Signer() != borrower {
		return nil, errors.Wrapf(ErrNotBorrower, "signer %s", s.ledger.Signer().Hex())
	}

	// The ledger always settles the first position; the id is validated
	// so a caller holding a stale one finds out before paying gas.
	if _, err := s.GetCredit(ctx, line, positionID); err != nil {
		return nil, err
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "depositAndClose",
	})
}

// Withdraw returns deposit and accrued interest to the position's lender.
func (s *Service) Withdraw(ctx context.Context, line common.Address, positionID common.Hash, amount decimal.Decimal) (*ethtypes.Receipt, error) {
	credit, err := s.GetCredit(ctx, line, positionID)
	if err != nil {
		return nil, err
	}
	if s.ledger.Signer() != credit.Lender {
		return nil, errors.Wrapf(ErrNotLender, "signer %s, lender %s", s.ledger.Signer().Hex(), credit.Lender.Hex())
	}

	base, err := tokens.ToBaseUnits(amount, credit.TokenDecimals)
	if err != nil {
		return nil, err
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "withdraw",
		Args:       []interface{}{positionID, base},
	})
}

// Close removes a repaid position from the line's active set. Borrower or
// the position's lender.
func (s *Service) Close(ctx context.Context, line common.Address, positionID common.Hash) (*ethtypes.Receipt, error) {
	credit, err := s.GetCredit(ctx, line, positionID)
	if err != nil {
		return nil, err
	}
	borrower, err := s.GetBorrower(ctx, line)
	if err != nil {
		return nil, err
	}

	signer := s.ledger.Signer()
	if signer != borrower && signer != credit.Lender {
		return nil, errors.Wrapf(ErrNotParticipant, "signer %s", signer.Hex())
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "close",
		Args:       []interface{}{positionID},
	})
}
