// Package collateral owns the escrow (deposit, release, liquidate) and
// spigot (attach, detach, claim, sweep) operations of a line. Role checks
// are derived from the line's participants and evaluated locally; the
// ledger always has final authority.
package collateral

import (
	"context"
	"math/big"

	"creditline-client/contracts"
	"creditline-client/creditline"
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
	lines    *creditline.Service
}

func NewService(ledger ledgerclient.LedgerClient) *Service {
	return &Service{
		ledger:   ledger,
		pipeline: txpipeline.New(ledger),
		lines:    creditline.NewService(ledger),
	}
}

// EnableCollateral whitelists a token for escrow deposits. Arbiter only.
func (s *Service) EnableCollateral(ctx context.Context, line, escrow, token common.Address) (*ethtypes.Receipt, error) {
	arbiter, err := s.lines.GetArbiter(ctx, line)
	if err != nil {
		return nil, err
	}
	if s.ledger.Signer() != arbiter {
		return nil, errors.Wrapf(ErrNotArbiter, "signer %s, arbiter %s", s.ledger.Signer().Hex(), arbiter.Hex())
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   escrow,
		Descriptor: contracts.Escrow,
		Method:     "enableCollateral",
		Args:       []interface{}{token},
	})
}

// AddCollateral deposits tokens into the escrow. Anyone able to sign may
// deposit; the token approval is assumed to have happened externally.
func (s *Service) AddCollateral(ctx context.Context, escrow, token common.Address, amount decimal.Decimal) (*ethtypes.Receipt, error) {
	decimals, err := tokens.Decimals(ctx, s.ledger, token)
	if err != nil {
		return nil, err
	}
	base, err := tokens.ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   escrow,
		Descriptor: contracts.Escrow,
		Method:     "addCollateral",
		Args:       []interface{}{base, token},
	})
}

// ReleaseCollateral withdraws escrowed tokens to the given address.
// Borrower only; the borrower is read from the escrow itself.
func (s *Service) ReleaseCollateral(ctx context.Context, escrow, token common.Address, amount decimal.Decimal, to common.Address) (*ethtypes.Receipt, error) {
	var borrower common.Address
	if err := s.ledger.Call(ctx, escrow, contracts.Escrow, "borrower", &borrower); err != nil {
		return nil, err
	}
	if s.ledger.Signer() != borrower {
		return nil, errors.Wrapf(creditline.ErrNotBorrower, "signer %s, borrower %s", s.ledger.Signer().Hex(), borrower.Hex())
	}

	decimals, err := tokens.Decimals(ctx, s.ledger, token)
	if err != nil {
		return nil, err
	}
	base, err := tokens.ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   escrow,
		Descriptor: contracts.Escrow,
		Method:     "releaseCollateral",
		Args:       []interface{}{base, token, to},
	})
}

// Liquidate seizes collateral on a defaulted line. The arbiter check here
// is best effort: a mismatch is logged and the submission proceeds, since
// the contract enforces the role authoritatively.
func (s *Service) Liquidate(ctx context.Context, line, targetToken common.Address, amount decimal.Decimal) (*ethtypes.Receipt, error) {
	arbiter, err := s.lines.GetArbiter(ctx, line)
	if err != nil {
		return nil, err
	}

	signer := s.ledger.Signer()
	isArbiter := signer == arbiter
	ownsSpigot, spigotErr := s.ownsSpigot(ctx, line, signer)

	// The protocol is not consistent about whether liquidation authority
	// follows the line's arbiter or the spigot's operator; both checks
	// run and a divergence is logged rather than papered over.
	if spigotErr == nil && isArbiter != ownsSpigot {
		logging.Warn("Liquidation role checks diverge", logging.Collateral,
			"line", line.Hex(), "signer", signer.Hex(), "is_arbiter", isArbiter, "owns_spigot", ownsSpigot)
	}
	if !isArbiter {
		logging.Warn("Liquidation by non-arbiter, deferring to ledger", logging.Collateral,
			"line", line.Hex(), "signer", signer.Hex(), "arbiter", arbiter.Hex())
	}

	decimals, err := tokens.Decimals(ctx, s.ledger, targetToken)
	if err != nil {
		return nil, err
	}
	base, err := tokens.ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "liquidate",
		Args:       []interface{}{base, targetToken},
	})
}

// AddSpigot attaches a revenue contract as collateral. The setting is
// validated before anything touches the ledger; a guaranteed revert is a
// local InvalidSetting, not a wasted transaction.
func (s *Service) AddSpigot(ctx context.Context, line, revenueContract common.Address, setting SpigotSetting) (*ethtypes.Receipt, error) {
	if err := setting.Validate(line, revenueContract); err != nil {
		return nil, err
	}

	signer := s.ledger.Signer()
	owns, err := s.ownsSpigot(ctx, line, signer)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, errors.Wrapf(ErrNotOwner, "signer %s", signer.Hex())
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "addSpigot",
		Args:       []interface{}{revenueContract, setting.abiTuple()},
	})
}

// ReleaseSpigot transfers spigot ownership out of the line. Pass-through
// authorization: the borrower may release a repaid line, the arbiter a
// liquidatable one.
func (s *Service) ReleaseSpigot(ctx context.Context, line, to common.Address, status creditline.Status, borrower, arbiter common.Address) (*ethtypes.Receipt, error) {
	if err := s.authorizeSettlement(status, borrower, arbiter); err != nil {
		return nil, err
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "releaseSpigot",
		Args:       []interface{}{to},
	})
}

// Sweep moves residual claimed tokens off the line. Same pass-through
// authorization as ReleaseSpigot.
func (s *Service) Sweep(ctx context.Context, line, to, token common.Address, amount decimal.Decimal, status creditline.Status, borrower, arbiter common.Address) (*ethtypes.Receipt, error) {
	if err := s.authorizeSettlement(status, borrower, arbiter); err != nil {
		return nil, err
	}

	decimals, err := tokens.Decimals(ctx, s.ledger, token)
	if err != nil {
		return nil, err
	}
	base, err := tokens.ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "sweep",
		Args:       []interface{}{to, token, base},
	})
}

// ClaimAndTrade claims redirected revenue and trades it into the credit
// token without repaying. Borrower or any position's lender, and only
// while borrowing is active.
func (s *Service) ClaimAndTrade(ctx context.Context, line, claimToken common.Address, tradeData []byte) (*ethtypes.Receipt, error) {
	if err := s.requireBorrowingLender(ctx, line); err != nil {
		return nil, err
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "claimAndTrade",
		Args:       []interface{}{claimToken, tradeData},
	})
}

// ClaimAndRepay claims redirected revenue and applies it to the first
// position's obligation.
func (s *Service) ClaimAndRepay(ctx context.Context, line, claimToken common.Address, tradeData []byte) (*ethtypes.Receipt, error) {
	if err := s.requireBorrowingParticipant(ctx, line); err != nil {
		return nil, err
	}

	return s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   line,
		Descriptor: contracts.SecuredLine,
		Method:     "claimAndRepay",
		Args:       []interface{}{claimToken, tradeData},
	})
}

// GetEscrowState assembles the vault read model.
func (s *Service) GetEscrowState(ctx context.Context, escrow common.Address) (*EscrowState, error) {
	var borrower common.Address
	if err := s.ledger.Call(ctx, escrow, contracts.Escrow, "borrower", &borrower); err != nil {
		return nil, err
	}
	var minCRatio uint32
	if err := s.ledger.Call(ctx, escrow, contracts.Escrow, "minimumCollateralRatio", &minCRatio); err != nil {
		return nil, err
	}
	var ratio *big.Int
	if err := s.ledger.Call(ctx, escrow, contracts.Escrow, "getCollateralRatio", &ratio); err != nil {
		return nil, err
	}

	return &EscrowState{
		Address:         escrow,
		Borrower:        borrower,
		MinCRatio:       minCRatio,
		CollateralRatio: ratio,
	}, nil
}

// Deposited reads the escrowed amount of one token.
func (s *Service) Deposited(ctx context.Context, escrow, token common.Address) (*big.Int, error) {
	var amount *big.Int
	if err := s.pipeline.Read(ctx, txpipeline.Request{
		Contract:   escrow,
		Descriptor: contracts.Escrow,
		Method:     "deposited",
		Args:       []interface{}{token},
	}, &amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// ownsSpigot: the signer owns or operates the line's spigot, or is the
// line's arbiter. When the line has no spigot yet, line roles decide.
func (s *Service) ownsSpigot(ctx context.Context, line common.Address, signer common.Address) (bool, error) {
	arbiter, err := s.lines.GetArbiter(ctx, line)
	if err != nil {
		return false, err
	}
	borrower, err := s.lines.GetBorrower(ctx, line)
	if err != nil {
		return false, err
	}
	if signer == arbiter || signer == borrower {
		return true, nil
	}

	var spigot common.Address
	if err := s.ledger.Call(ctx, line, contracts.SecuredLine, "spigot", &spigot); err != nil {
		return false, err
	}
	if spigot == (common.Address{}) {
		return false, nil
	}

	var owner, operator common.Address
	if err := s.ledger.Call(ctx, spigot, contracts.Spigot, "owner", &owner); err != nil {
		return false, err
	}
	if err := s.ledger.Call(ctx, spigot, contracts.Spigot, "operator", &operator); err != nil {
		return false, err
	}
	return signer == owner || signer == operator, nil
}

// authorizeSettlement gates the settlement-phase operations on the
// caller-supplied snapshot of status and participants.
func (s *Service) authorizeSettlement(status creditline.Status, borrower, arbiter common.Address) error {
	signer := s.ledger.Signer()
	switch status {
	case creditline.StatusRepaid:
		if signer == borrower {
			return nil
		}
	case creditline.StatusLiquidatable:
		if signer == arbiter {
			return nil
		}
	}
	logging.Warn("Settlement operation refused locally", logging.Collateral,
		"signer", signer.Hex(), "status", status.String(), "borrower", borrower.Hex(), "arbiter", arbiter.Hex())
	return errors.Wrapf(ErrNotOwner, "status %s", status)
}

// requireBorrowingParticipant: borrowing must be active and the signer is
// the borrower or the first position's lender. Claimed revenue repays the
// first position only, so other lenders have no say here.
func (s *Service) requireBorrowingParticipant(ctx context.Context, line common.Address) error {
	first, err := s.lines.FirstPosition(ctx, line)
	if err != nil {
		return err
	}
	if first == nil || first.Principal.Sign() == 0 {
		return creditline.ErrNotBorrowing
	}

	borrower, err := s.lines.GetBorrower(ctx, line)
	if err != nil {
		return err
	}
	signer := s.ledger.Signer()
	if signer != borrower && signer != first.Lender {
		return errors.Wrapf(creditline.ErrNotParticipant, "signer %s", signer.Hex())
	}
	return nil
}

// requireBorrowingLender: borrowing must be active and the signer is the
// borrower or the lender of any position on the line.
func (s *Service) requireBorrowingLender(ctx context.Context, line common.Address) error {
	first, err := s.lines.FirstPosition(ctx, line)
	if err != nil {
		return err
	}
	if first == nil || first.Principal.Sign() == 0 {
		return creditline.ErrNotBorrowing
	}

	borrower, err := s.lines.GetBorrower(ctx, line)
	if err != nil {
		return err
	}
	signer := s.ledger.Signer()
	if signer == borrower {
		return nil
	}

	ids, err := s.lines.PositionIDs(ctx, line)
	if err != nil {
		return err
	}
	for _, id := range ids {
		credit, err := s.lines.GetCredit(ctx, line, id)
		if err != nil {
			return err
		}
		if signer == credit.Lender {
			return nil
		}
	}
	return errors.Wrapf(creditline.ErrNotParticipant, "signer %s", signer.Hex())
}
