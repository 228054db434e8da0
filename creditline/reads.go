package creditline

import (
	"context"
	"math/big"

	"creditline-client/contracts"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Every accessor here reads through to the ledger. There is deliberately
// no memoization: another party may have moved the line between any two
// calls, so a status-gated operation re-reads immediately before acting.

func (s *Service) GetStatus(ctx context.Context, line common.Address) (Status, error) {
	var raw uint8
	if err := s.ledger.Call(ctx, line, contracts.SecuredLine, "status", &raw); err != nil {
		return 0, err
	}
	return ParseStatus(raw)
}

func (s *Service) GetBorrower(ctx context.Context, line common.Address) (common.Address, error) {
	var borrower common.Address
	if err := s.ledger.Call(ctx, line, contracts.SecuredLine, "borrower", &borrower); err != nil {
		return common.Address{}, err
	}
	return borrower, nil
}

func (s *Service) GetArbiter(ctx context.Context, line common.Address) (common.Address, error) {
	var arbiter common.Address
	if err := s.ledger.Call(ctx, line, contracts.SecuredLine, "arbiter", &arbiter); err != nil {
		return common.Address{}, err
	}
	return arbiter, nil
}

// GetLine assembles the full read model of a line in one pass.
func (s *Service) GetLine(ctx context.Context, line common.Address) (*CreditLine, error) {
	status, err := s.GetStatus(ctx, line)
	if err != nil {
		return nil, err
	}
	borrower, err := s.GetBorrower(ctx, line)
	if err != nil {
		return nil, err
	}
	arbiter, err := s.GetArbiter(ctx, line)
	if err != nil {
		return nil, err
	}

	var escrow, spigot common.Address
	if err := s.ledger.Call(ctx, line, contracts.SecuredLine, "escrow", &escrow); err != nil {
		return nil, err
	}
	if err := s.ledger.Call(ctx, line, contracts.SecuredLine, "spigot", &spigot); err != nil {
		return nil, err
	}

	ids, err := s.PositionIDs(ctx, line)
	if err != nil {
		return nil, err
	}

	return &CreditLine{
		Address:     line,
		Status:      status,
		Borrower:    borrower,
		Arbiter:     arbiter,
		Escrow:      escrow,
		Spigot:      spigot,
		PositionIDs: ids,
	}, nil
}

// PositionIDs lists the line's position ids in priority order.
func (s *Service) PositionIDs(ctx context.Context, line common.Address) ([]common.Hash, error) {
	var counts struct {
		Count *big.Int
		Len   *big.Int
	}
	if err := s.ledger.Call(ctx, line, contracts.SecuredLine, "counts", &counts); err != nil {
		return nil, err
	}

	n := counts.Len.Int64()
	ids := make([]common.Hash, 0, n)
	for i := int64(0); i < n; i++ {
		var id [32]byte
		if err := s.ledger.Call(ctx, line, contracts.SecuredLine, "ids", &id, big.NewInt(i)); err != nil {
			return nil, err
		}
		ids = append(ids, common.Hash(id))
	}
	return ids, nil
}

// GetCredit reads one position plus its rates. ErrPositionNotFound when
// the ledger has no lender recorded under the id.
func (s *Service) GetCredit(ctx context.Context, line common.Address, id common.Hash) (*Credit, error) {
	var raw struct {
		Deposit         *big.Int
		Principal       *big.Int
		InterestAccrued *big.Int
		InterestRepaid  *big.Int
		Decimals        uint8
		Token           common.Address
		Lender          common.Address
		IsOpen          bool
	}
	if err := s.ledger.Call(ctx, line, contracts.SecuredLine, "credits", &raw, id); err != nil {
		return nil, err
	}
	if raw.Lender == (common.Address{}) {
		return nil, errors.Wrapf(ErrPositionNotFound, "id %s", id.Hex())
	}

	var rates struct {
		DRate       *big.Int
		FRate       *big.Int
		LastAccrued *big.Int
	}
	if err := s.ledger.Call(ctx, line, contracts.SecuredLine, "rates", &rates, id); err != nil {
		return nil, err
	}

	return &Credit{
		ID:              id,
		Lender:          raw.Lender,
		Token:           raw.Token,
		Principal:       raw.Principal,
		Deposit:         raw.Deposit,
		InterestAccrued: raw.InterestAccrued,
		InterestRepaid:  raw.InterestRepaid,
		TokenDecimals:   raw.Decimals,
		IsOpen:          raw.IsOpen,
		DRate:           rates.DRate,
		FRate:           rates.FRate,
	}, nil
}

// FirstPosition returns position 0, the default target for
// single-position operations. Nil when the line has no positions.
func (s *Service) FirstPosition(ctx context.Context, line common.Address) (*Credit, error) {
	ids, err := s.PositionIDs(ctx, line)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.GetCredit(ctx, line, ids[0])
}

// IsBorrowing: the first position exists and carries outstanding principal.
func (s *Service) IsBorrowing(ctx context.Context, line common.Address) (bool, error) {
	first, err := s.FirstPosition(ctx, line)
	if err != nil {
		return false, err
	}
	return first != nil && first.Principal != nil && first.Principal.Sign() > 0, nil
}

// LiveInterest re-reads the position's interest accrual at call time.
// Obligation math must never use a stale figure fetched earlier.
func (s *Service) LiveInterest(ctx context.Context, line common.Address, id common.Hash) (*big.Int, error) {
	var accrued *big.Int
	if err := s.ledger.Call(ctx, line, contracts.SecuredLine, "interestAccrued", &accrued, id); err != nil {
		return nil, err
	}
	return accrued, nil
}
