package server

import (
	"net/http"

	"creditline-client/consent"
	"creditline-client/creditline"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type TxResponse struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
}

func newTxResponse(receipt *ethtypes.Receipt) TxResponse {
	return TxResponse{
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}
}

type ConsentTxResponse struct {
	TxResponse
	Finalized    bool   `json:"finalized"`
	ProposalHash string `json:"proposal_hash"`
	Counterparty string `json:"counterparty"`
}

func newConsentTxResponse(result *creditline.ConsentResult) ConsentTxResponse {
	return ConsentTxResponse{
		TxResponse:   newTxResponse(result.Receipt),
		Finalized:    result.Finalized(),
		ProposalHash: result.Check.Hash.Hex(),
		Counterparty: result.Check.Counterparty.Hex(),
	}
}

// DryRunResponse describes the transaction an operation would submit,
// without submitting it.
type DryRunResponse struct {
	To       string `json:"to"`
	Method   string `json:"method"`
	Calldata string `json:"calldata"`
	Gas      uint64 `json:"gas"`
}

type LineResponse struct {
	Address   string   `json:"address"`
	Status    string   `json:"status"`
	Borrower  string   `json:"borrower"`
	Arbiter   string   `json:"arbiter"`
	Escrow    string   `json:"escrow,omitempty"`
	Spigot    string   `json:"spigot,omitempty"`
	Positions []string `json:"positions"`
}

type PositionResponse struct {
	ID              string `json:"id"`
	Lender          string `json:"lender"`
	Token           string `json:"token"`
	Principal       string `json:"principal"`
	Deposit         string `json:"deposit"`
	InterestAccrued string `json:"interest_accrued"`
	DRate           string `json:"drate"`
	FRate           string `json:"frate"`
	IsOpen          bool   `json:"is_open"`
}

type AddCreditRequest struct {
	DRate  uint64 `json:"drate"`
	FRate  uint64 `json:"frate"`
	Amount string `json:"amount"`
	Token  string `json:"token"`
	Lender string `json:"lender"`
	Mode   string `json:"mode"`
}

type SetRatesRequest struct {
	PositionID string `json:"position_id"`
	DRate      uint64 `json:"drate"`
	FRate      uint64 `json:"frate"`
	Mode       string `json:"mode"`
}

type PositionAmountRequest struct {
	PositionID string `json:"position_id"`
	Amount     string `json:"amount"`
	Mode       string `json:"mode,omitempty"`
}

type AmountRequest struct {
	Amount string `json:"amount"`
}

type PositionRequest struct {
	PositionID string `json:"position_id"`
}

type CollateralRequest struct {
	Escrow string `json:"escrow"`
	Token  string `json:"token"`
	Amount string `json:"amount,omitempty"`
	To     string `json:"to,omitempty"`
}

type EscrowResponse struct {
	Address         string `json:"address"`
	Borrower        string `json:"borrower"`
	MinCRatio       uint32 `json:"min_cratio"`
	CollateralRatio string `json:"collateral_ratio"`
}

type AddSpigotRequest struct {
	RevenueContract       string `json:"revenue_contract"`
	Token                 string `json:"token"`
	OwnerSplit            uint8  `json:"owner_split"`
	ClaimFunction         string `json:"claim_function"`
	TransferOwnerFunction string `json:"transfer_owner_function"`
}

type SettlementRequest struct {
	To     string `json:"to"`
	Token  string `json:"token,omitempty"`
	Amount string `json:"amount,omitempty"`
}

type ClaimRequest struct {
	ClaimToken string `json:"claim_token"`
	TradeData  string `json:"trade_data"`
}

type DeployLineRequest struct {
	Borrower     string `json:"borrower"`
	TTLSeconds   uint64 `json:"ttl_seconds"`
	CRatio       uint32 `json:"cratio,omitempty"`
	RevenueSplit uint8  `json:"revenue_split,omitempty"`
	Configured   bool   `json:"configured,omitempty"`
}

type DeployEscrowRequest struct {
	MinCRatio uint32 `json:"min_cratio"`
	Oracle    string `json:"oracle"`
	Owner     string `json:"owner"`
	Borrower  string `json:"borrower"`
}

type DeploySpigotRequest struct {
	Owner    string `json:"owner"`
	Borrower string `json:"borrower"`
	Operator string `json:"operator"`
}

type RolloverRequest struct {
	OldLine    string `json:"old_line"`
	Borrower   string `json:"borrower"`
	Oracle     string `json:"oracle"`
	Arbiter    string `json:"arbiter"`
	TTLSeconds uint64 `json:"ttl_seconds"`
}

type DeploymentResponse struct {
	Address string `json:"address"`
	TxResponse
}

var (
	errAddressRequired = echo.NewHTTPError(http.StatusBadRequest, "A valid hex address is required")
	errHashRequired    = echo.NewHTTPError(http.StatusBadRequest, "A valid 32-byte hex id is required")
	errAmountRequired  = echo.NewHTTPError(http.StatusBadRequest, "A valid decimal amount is required")
	errUnknownMode     = echo.NewHTTPError(http.StatusBadRequest, "mode must be propose_or_finalize or finalize_only")
	errSelectorLength  = echo.NewHTTPError(http.StatusBadRequest, "A function selector must be 4 hex bytes")
)

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, errAddressRequired
	}
	return common.HexToAddress(raw), nil
}

func parseHash(raw string) (common.Hash, error) {
	if len(common.FromHex(raw)) != common.HashLength {
		return common.Hash{}, errHashRequired
	}
	return common.HexToHash(raw), nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errAmountRequired
	}
	return amount, nil
}

func parseSelector(raw string) ([4]byte, error) {
	var selector [4]byte
	decoded := common.FromHex(raw)
	if len(decoded) != len(selector) {
		return selector, errSelectorLength
	}
	copy(selector[:], decoded)
	return selector, nil
}

func parseMode(raw string) (consent.Mode, error) {
	switch raw {
	case "", "propose_or_finalize":
		return consent.ProposeOrFinalize, nil
	case "finalize_only":
		return consent.FinalizeOnly, nil
	}
	return 0, errUnknownMode
}
