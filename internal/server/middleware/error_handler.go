package middleware

import (
	"errors"
	"net/http"

	"creditline-client/collateral"
	"creditline-client/consent"
	"creditline-client/creditline"
	"creditline-client/ledgerclient"
	"creditline-client/tokens"

	"github.com/labstack/echo/v4"
)

// TransparentErrorHandler maps the client's error taxonomy onto HTTP and
// always answers JSON, so a UI process can branch on the kind while still
// showing the underlying message verbatim.
//
// The response body is always of the form:
//
//	{ "kind": "<taxonomy kind>", "error": "<message>" }
func TransparentErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, kind := classify(err)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
	}

	_ = c.JSON(status, map[string]interface{}{"kind": kind, "error": err.Error()})
}

var taxonomy = []struct {
	sentinel error
	kind     string
	status   int
}{
	{consent.ErrNotAParticipant, "NotAParticipant", http.StatusForbidden},
	{consent.ErrConsentNotInitialized, "ConsentNotInitialized", http.StatusConflict},
	{creditline.ErrNotBorrower, "NotBorrower", http.StatusForbidden},
	{creditline.ErrNotLender, "NotLender", http.StatusForbidden},
	{creditline.ErrNotParticipant, "NotParticipant", http.StatusForbidden},
	{collateral.ErrNotArbiter, "NotArbiter", http.StatusForbidden},
	{collateral.ErrNotOwner, "NotOwner", http.StatusForbidden},
	{creditline.ErrLineNotActive, "LineNotActive", http.StatusConflict},
	{creditline.ErrLineActive, "LineNotActive", http.StatusConflict},
	{creditline.ErrNotBorrowing, "NotBorrowing", http.StatusConflict},
	{creditline.ErrAmountExceedsObligation, "AmountExceedsObligation", http.StatusBadRequest},
	{creditline.ErrExceedsAvailableCredit, "AmountExceedsObligation", http.StatusBadRequest},
	{creditline.ErrRateAboveMaximum, "InvalidSetting", http.StatusBadRequest},
	{creditline.ErrPositionNotFound, "NotFound", http.StatusNotFound},
	{creditline.ErrPositionClosed, "NotFound", http.StatusNotFound},
	{collateral.ErrInvalidSetting, "InvalidSetting", http.StatusBadRequest},
	{tokens.ErrNegativeAmount, "InvalidSetting", http.StatusBadRequest},
	{tokens.ErrPrecisionTooHigh, "InvalidSetting", http.StatusBadRequest},
	{ledgerclient.ErrLedgerRejected, "LedgerRejected", http.StatusUnprocessableEntity},
	{ledgerclient.ErrLedgerUnavailable, "LedgerUnavailable", http.StatusBadGateway},
}

func classify(err error) (int, string) {
	for _, entry := range taxonomy {
		if errors.Is(err, entry.sentinel) {
			return entry.status, entry.kind
		}
	}
	return http.StatusInternalServerError, "Internal"
}
