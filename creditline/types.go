package creditline

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Status is the ledger-reported lifecycle state of a line. The ledger is
// the only authority; the client re-reads it before every status-gated
// decision instead of trusting a local copy.
type Status uint8

const (
	StatusUninitialized Status = iota
	StatusActive
	StatusLiquidatable
	StatusInsolvent
	StatusRepaid
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "Uninitialized"
	case StatusActive:
		return "Active"
	case StatusLiquidatable:
		return "Liquidatable"
	case StatusInsolvent:
		return "Insolvent"
	case StatusRepaid:
		return "Repaid"
	case StatusClosed:
		return "Closed"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Terminal statuses never transition again.
func (s Status) Terminal() bool {
	return s == StatusRepaid || s == StatusClosed || s == StatusInsolvent
}

func ParseStatus(raw uint8) (Status, error) {
	s := Status(raw)
	if s > StatusClosed {
		return s, fmt.Errorf("unknown line status %d", raw)
	}
	return s, nil
}

// MaxRateBPS is the protocol-wide ceiling for both the deposit rate and
// the facility rate, expressed in basis points.
const MaxRateBPS = 10_000

// CreditLine is the read model for one deployed line-of-credit instance.
// Position ids are held in insertion order; index 0 is the first position
// and the default target for single-position operations.
type CreditLine struct {
	Address  common.Address
	Status   Status
	Borrower common.Address
	Arbiter  common.Address

	// Escrow and Spigot are the zero address when the line has no
	// collateral of that kind attached.
	Escrow common.Address
	Spigot common.Address

	PositionIDs []common.Hash
}

func (l *CreditLine) HasEscrow() bool {
	return l.Escrow != (common.Address{})
}

func (l *CreditLine) HasSpigot() bool {
	return l.Spigot != (common.Address{})
}

// Credit is one lender's position within a line.
type Credit struct {
	ID     common.Hash
	Lender common.Address
	Token  common.Address

	// Principal is the outstanding drawn amount, Deposit the total
	// committed amount; principal <= deposit always holds on the ledger.
	Principal *big.Int
	Deposit   *big.Int

	InterestAccrued *big.Int
	InterestRepaid  *big.Int
	TokenDecimals   uint8
	IsOpen          bool

	// Rates in basis points.
	DRate *big.Int
	FRate *big.Int
}

// Available is the undrawn remainder of the committed deposit.
func (c *Credit) Available() *big.Int {
	return new(big.Int).Sub(c.Deposit, c.Principal)
}

// ComputeID derives the stable position id the ledger assigns at creation:
// keccak256(line || lender || token).
func ComputeID(line, lender, token common.Address) common.Hash {
	packed := make([]byte, 0, 3*common.AddressLength)
	packed = append(packed, line.Bytes()...)
	packed = append(packed, lender.Bytes()...)
	packed = append(packed, token.Bytes()...)
	return crypto.Keccak256Hash(packed)
}
