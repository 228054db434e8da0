package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"creditline-client/collateral"
	"creditline-client/consent"
	"creditline-client/creditline"
	"creditline-client/ledgerclient"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/lines/0x01/borrow", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	TransparentErrorHandler(err, c)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorHandlerMapsTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"role violation", creditline.ErrNotBorrower, http.StatusForbidden, "NotBorrower"},
		{"non-participant", consent.ErrNotAParticipant, http.StatusForbidden, "NotAParticipant"},
		{"inactive line", creditline.ErrLineNotActive, http.StatusConflict, "LineNotActive"},
		{"consent missing", consent.ErrConsentNotInitialized, http.StatusConflict, "ConsentNotInitialized"},
		{"excess repayment", creditline.ErrAmountExceedsObligation, http.StatusBadRequest, "AmountExceedsObligation"},
		{"bad spigot setting", collateral.ErrInvalidSetting, http.StatusBadRequest, "InvalidSetting"},
		{"unknown position", creditline.ErrPositionNotFound, http.StatusNotFound, "NotFound"},
		{"reverted", ledgerclient.ErrLedgerRejected, http.StatusUnprocessableEntity, "LedgerRejected"},
		{"node down", ledgerclient.ErrLedgerUnavailable, http.StatusBadGateway, "LedgerUnavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := handle(t, tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, body["kind"])
		})
	}
}

func TestErrorHandlerUnwrapsContext(t *testing.T) {
	wrapped := errors.Wrap(creditline.ErrNotLender, "withdraw of position 0x01")
	status, body := handle(t, wrapped)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NotLender", body["kind"])
	assert.Contains(t, body["error"], "withdraw of position 0x01")
}

func TestErrorHandlerDefaultsToInternal(t *testing.T) {
	status, body := handle(t, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal", body["kind"])
}

func TestErrorHandlerHonorsHTTPErrors(t *testing.T) {
	status, _ := handle(t, echo.NewHTTPError(http.StatusBadRequest, "A valid hex address is required"))
	assert.Equal(t, http.StatusBadRequest, status)
}
