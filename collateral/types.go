package collateral

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// MaxSplit is the protocol ceiling on the owner's share of redirected
// revenue, in whole percent.
const MaxSplit = 100

// SpigotSetting describes how a revenue contract is attached as
// collateral. Token is denomination metadata validated client-side; only
// the split and the two selectors go on the ledger.
type SpigotSetting struct {
	Token                 common.Address
	OwnerSplit            uint8
	ClaimFunction         [4]byte
	TransferOwnerFunction [4]byte
}

// Validate enforces every attach invariant the contract would revert on.
func (s SpigotSetting) Validate(line, revenueContract common.Address) error {
	if revenueContract == line {
		return errors.Wrap(ErrInvalidSetting, "revenue contract must not be the line itself")
	}
	if s.TransferOwnerFunction == ([4]byte{}) {
		return errors.Wrap(ErrInvalidSetting, "transfer owner function must not be empty")
	}
	if s.OwnerSplit > MaxSplit {
		return errors.Wrapf(ErrInvalidSetting, "owner split %d exceeds max %d", s.OwnerSplit, MaxSplit)
	}
	if s.Token == (common.Address{}) {
		return errors.Wrap(ErrInvalidSetting, "token must not be the zero address")
	}
	return nil
}

// abiTuple is the on-ledger shape of the setting; field names line up
// with the ABI tuple components.
func (s SpigotSetting) abiTuple() interface{} {
	return struct {
		OwnerSplit            uint8
		ClaimFunction         [4]byte
		TransferOwnerFunction [4]byte
	}{
		OwnerSplit:            s.OwnerSplit,
		ClaimFunction:         s.ClaimFunction,
		TransferOwnerFunction: s.TransferOwnerFunction,
	}
}

// EscrowState is the read model of a collateral vault.
type EscrowState struct {
	Address         common.Address
	Borrower        common.Address
	MinCRatio       uint32
	CollateralRatio *big.Int
}
