// Package consent implements the two-party handshake used by the protocol
// before certain state changes take effect. A proposal is nothing but a
// hash in the line's consent registry: present means one party committed
// to an exact call, absent means no proposal (or it was consumed when the
// action finalized).
//
// There is no ambient signer state here; the signer and both named parties
// are passed explicitly into every check.
package consent

import (
	"context"
	"errors"

	"creditline-client/contracts"
	"creditline-client/ledgerclient"
	"creditline-client/logging"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrNotAParticipant: the authenticated signer is neither of the two
	// named parties of the action.
	ErrNotAParticipant = errors.New("signer is not a participant of this action")

	// ErrConsentNotInitialized: the caller required immediate effect but
	// the counterparty has not proposed this call yet, so submitting would
	// only register a proposal.
	ErrConsentNotInitialized = errors.New("consent not initialized by counterparty")
)

// Mode controls what a mutual-consent submission is allowed to do.
type Mode int

const (
	// ProposeOrFinalize submits regardless: the transaction either
	// finalizes the action (counterparty already proposed) or registers
	// this signer's proposal.
	ProposeOrFinalize Mode = iota

	// FinalizeOnly rejects locally with ErrConsentNotInitialized when the
	// submission would merely register a proposal.
	FinalizeOnly
)

// ProposalHash is the canonical identifier of a proposed call:
// keccak256 over the exact calldata concatenated with the counterparty
// address. Any byte of difference in the encoded call produces a
// different hash and the two parties will never converge.
func ProposalHash(calldata []byte, counterparty common.Address) common.Hash {
	packed := make([]byte, 0, len(calldata)+common.AddressLength)
	packed = append(packed, calldata...)
	packed = append(packed, counterparty.Bytes()...)
	return crypto.Keccak256Hash(packed)
}

// Check is the outcome of a consent lookup for one prospective submission.
type Check struct {
	Signer       common.Address
	Counterparty common.Address
	Hash         common.Hash

	// WillFinalize: the registry already holds the matching proposal, so
	// this submission executes the action atomically. False means the
	// submission only registers the signer's proposal.
	WillFinalize bool
}

// Calculator decides, for a two-party action on a line, whether the current
// signer's submission finalizes the action or merely proposes it.
type Calculator struct {
	ledger ledgerclient.LedgerClient
}

func NewCalculator(ledger ledgerclient.LedgerClient) *Calculator {
	return &Calculator{ledger: ledger}
}

// Check requires the exact calldata that will be submitted; callers must
// populate the transaction first and hash those bytes, not a re-encoding.
func (c *Calculator) Check(ctx context.Context, line common.Address, calldata []byte, signerOne, signerTwo common.Address) (Check, error) {
	signer := c.ledger.Signer()

	var counterparty common.Address
	switch signer {
	case signerOne:
		counterparty = signerTwo
	case signerTwo:
		counterparty = signerOne
	default:
		logging.Warn("Consent check by non-participant", logging.Consent,
			"signer", signer.Hex(), "signer_one", signerOne.Hex(), "signer_two", signerTwo.Hex())
		return Check{}, ErrNotAParticipant
	}

	hash := ProposalHash(calldata, counterparty)

	var proposed bool
	if err := c.ledger.Call(ctx, line, contracts.SecuredLine, "mutualConsents", &proposed, hash); err != nil {
		return Check{}, err
	}

	logging.Debug("Consent registry lookup", logging.Consent,
		"line", line.Hex(), "hash", hash.Hex(), "signer", signer.Hex(), "counterparty", counterparty.Hex(), "will_finalize", proposed)

	return Check{
		Signer:       signer,
		Counterparty: counterparty,
		Hash:         hash,
		WillFinalize: proposed,
	}, nil
}
