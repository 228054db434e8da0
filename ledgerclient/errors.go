package ledgerclient

import (
	"errors"
	"strings"
)

var (
	// ErrLedgerRejected: the ledger accepted the submission and then
	// reverted it, or the confirmed receipt reports failure.
	ErrLedgerRejected = errors.New("ledger rejected")

	// ErrLedgerUnavailable: the RPC transport failed before the ledger
	// could evaluate the call.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	ErrEncodingCalldata = errors.New("error encoding calldata")
	ErrDecodingResult   = errors.New("error decoding call result")
	ErrFailedToSignTx   = errors.New("error signing transaction")
)

// isRevert distinguishes a contract-side rejection from a transport failure.
// The node reports reverts inside the RPC error string, so matching on the
// message is the only signal available over plain JSON-RPC.
func isRevert(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "revert") ||
		strings.Contains(msg, "always failing transaction")
}
