// Package txpipeline wraps every contract write in one pipeline with two
// modes: Populate returns the unsigned transaction (dry run, used for
// calldata inspection and gas estimation) and Execute signs, submits and
// waits for the confirmed receipt.
//
// The pipeline never retries a write. Funds-moving operations have no
// idempotency guarantee on the ledger, so a failed submission is logged
// with full context and surfaced to the caller as-is.
package txpipeline

import (
	"context"

	"creditline-client/ledgerclient"
	"creditline-client/logging"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Request is one contract method invocation: target, descriptor, method,
// arguments and optional gas/value overrides.
type Request struct {
	Contract   common.Address
	Descriptor abi.ABI
	Method     string
	Args       []interface{}
	Overrides  ledgerclient.Overrides
}

// Calldata encodes the request exactly as Populate and Execute will submit
// it. Consent hashing depends on this being byte-for-byte identical to the
// submitted transaction payload.
func (r Request) Calldata() ([]byte, error) {
	data, err := r.Descriptor.Pack(r.Method, r.Args...)
	if err != nil {
		return nil, errors.Wrapf(ledgerclient.ErrEncodingCalldata, "%s: %s", r.Method, err)
	}
	return data, nil
}

type Pipeline struct {
	ledger ledgerclient.LedgerClient
}

func New(ledger ledgerclient.LedgerClient) *Pipeline {
	return &Pipeline{ledger: ledger}
}

func (p *Pipeline) Signer() common.Address {
	return p.ledger.Signer()
}

// Populate builds the unsigned transaction without submitting anything.
func (p *Pipeline) Populate(ctx context.Context, req Request) (*ethtypes.Transaction, error) {
	id := uuid.New().String()
	logging.Debug("Populating transaction", logging.Ledger, "op_id", id, "method", req.Method, "contract", req.Contract.Hex())

	tx, err := p.ledger.Populate(ctx, req.Contract, req.Descriptor, req.Method, req.Overrides, req.Args...)
	if err != nil {
		logging.Error("Failed to populate transaction", logging.Ledger,
			"op_id", id, "method", req.Method, "contract", req.Contract.Hex(), "args", req.Args, "error", err)
		return nil, err
	}
	return tx, nil
}

// Execute populates, signs, submits and blocks until the ledger confirms
// inclusion. Every failure along the way is logged with the method, the
// arguments and the target, then re-raised to the caller.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*ethtypes.Receipt, error) {
	id := uuid.New().String()
	logging.Debug("Executing transaction", logging.Ledger, "op_id", id, "method", req.Method, "contract", req.Contract.Hex())

	receipt, err := p.ledger.Execute(ctx, req.Contract, req.Descriptor, req.Method, req.Overrides, req.Args...)
	if err != nil {
		logging.Error("Transaction failed", logging.Ledger,
			"op_id", id, "method", req.Method, "contract", req.Contract.Hex(), "args", req.Args, "error", err)
		return nil, err
	}

	logging.Info("Transaction confirmed", logging.Ledger,
		"op_id", id, "method", req.Method, "contract", req.Contract.Hex(), "tx_hash", receipt.TxHash.Hex(), "gas_used", receipt.GasUsed)
	return receipt, nil
}

// Read is the query-side counterpart; reads are idempotent and may be
// retried by callers, unlike writes.
func (p *Pipeline) Read(ctx context.Context, req Request, out interface{}) error {
	err := p.ledger.Call(ctx, req.Contract, req.Descriptor, req.Method, out, req.Args...)
	if err != nil {
		logging.Error("Ledger read failed", logging.Ledger, "method", req.Method, "contract", req.Contract.Hex(), "error", err)
		return err
	}
	return nil
}
