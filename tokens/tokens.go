// Package tokens converts between the decimal-string amounts used at the
// service boundary and the base-unit integers the ledger contracts expect.
package tokens

import (
	"context"
	"math/big"

	"creditline-client/contracts"
	"creditline-client/ledgerclient"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrPrecisionTooHigh = errors.New("amount has more fractional digits than the token supports")
)

// ToBaseUnits scales a decimal amount by the token's decimals. The
// conversion is exact: an amount with more fractional digits than the
// token carries is rejected rather than silently truncated.
func ToBaseUnits(amount decimal.Decimal, decimals uint8) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	scaled := amount.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, errors.Wrapf(ErrPrecisionTooHigh, "amount %s, token decimals %d", amount.String(), decimals)
	}
	return scaled.BigInt(), nil
}

func FromBaseUnits(raw *big.Int, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(raw, 0).Shift(-int32(decimals))
}

// Decimals reads the token's decimals() from the ledger.
func Decimals(ctx context.Context, ledger ledgerclient.LedgerClient, token common.Address) (uint8, error) {
	var out uint8
	if err := ledger.Call(ctx, token, contracts.ERC20, "decimals", &out); err != nil {
		return 0, errors.Wrapf(err, "reading decimals of %s", token.Hex())
	}
	return out, nil
}
