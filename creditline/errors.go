package creditline

import "errors"

// Local precondition failures. Every one of these is raised before a
// transaction is constructed, with no ledger write.
var (
	ErrLineNotActive = errors.New("line is not active")

	// ErrLineActive guards increaseCredit, which the protocol only allows
	// to negotiate while the line is not yet active. The asymmetry with
	// addCredit is deliberate on the protocol side and preserved here.
	ErrLineActive = errors.New("line is already active")

	ErrNotBorrowing   = errors.New("line has no active borrowing")
	ErrNotBorrower    = errors.New("caller is not the borrower")
	ErrNotLender      = errors.New("caller is not the position lender")
	ErrNotParticipant = errors.New("caller is neither borrower nor position lender")

	ErrAmountExceedsObligation = errors.New("amount exceeds principal plus accrued interest")
	ErrExceedsAvailableCredit  = errors.New("amount exceeds the position's available deposit")
	ErrRateAboveMaximum        = errors.New("rate exceeds the protocol maximum")
	ErrPositionNotFound        = errors.New("position not found on line")
	ErrPositionClosed          = errors.New("position is closed")
)
