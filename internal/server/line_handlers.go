package server

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/labstack/echo/v4"
)

func (s *Server) getLine(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}

	model, err := s.lines.GetLine(c.Request().Context(), line)
	if err != nil {
		return err
	}

	resp := LineResponse{
		Address:  model.Address.Hex(),
		Status:   model.Status.String(),
		Borrower: model.Borrower.Hex(),
		Arbiter:  model.Arbiter.Hex(),
	}
	if model.HasEscrow() {
		resp.Escrow = model.Escrow.Hex()
	}
	if model.HasSpigot() {
		resp.Spigot = model.Spigot.Hex()
	}
	resp.Positions = make([]string, 0, len(model.PositionIDs))
	for _, id := range model.PositionIDs {
		resp.Positions = append(resp.Positions, id.Hex())
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) getPositions(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	ids, err := s.lines.PositionIDs(ctx, line)
	if err != nil {
		return err
	}

	positions := make([]PositionResponse, 0, len(ids))
	for _, id := range ids {
		credit, err := s.lines.GetCredit(ctx, line, id)
		if err != nil {
			return err
		}
		positions = append(positions, PositionResponse{
			ID:              credit.ID.Hex(),
			Lender:          credit.Lender.Hex(),
			Token:           credit.Token.Hex(),
			Principal:       credit.Principal.String(),
			Deposit:         credit.Deposit.String(),
			InterestAccrued: credit.InterestAccrued.String(),
			DRate:           credit.DRate.String(),
			FRate:           credit.FRate.String(),
			IsOpen:          credit.IsOpen,
		})
	}
	return c.JSON(http.StatusOK, positions)
}

func (s *Server) postAddCredit(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req AddCreditRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := parseAddress(req.Token)
	if err != nil {
		return err
	}
	lender, err := parseAddress(req.Lender)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		return err
	}

	result, err := s.lines.AddCredit(c.Request().Context(), line, req.DRate, req.FRate, amount, token, lender, mode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newConsentTxResponse(result))
}

// postAddCreditDryRun populates the addCredit transaction without
// submitting it, so a caller can inspect the exact calldata and gas.
func (s *Server) postAddCreditDryRun(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req AddCreditRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := parseAddress(req.Token)
	if err != nil {
		return err
	}
	lender, err := parseAddress(req.Lender)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	buildReq, err := s.lines.BuildAddCredit(c.Request().Context(), line, req.DRate, req.FRate, amount, token, lender)
	if err != nil {
		return err
	}
	tx, err := s.lines.Pipeline().Populate(c.Request().Context(), buildReq)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DryRunResponse{
		To:       line.Hex(),
		Method:   buildReq.Method,
		Calldata: hexutil.Encode(tx.Data()),
		Gas:      tx.Gas(),
	})
}

func (s *Server) postSetRates(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req SetRatesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, err := parseHash(req.PositionID)
	if err != nil {
		return err
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		return err
	}

	result, err := s.lines.SetRates(c.Request().Context(), line, id, req.DRate, req.FRate, mode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newConsentTxResponse(result))
}

func (s *Server) postIncreaseCredit(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req PositionAmountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, err := parseHash(req.PositionID)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		return err
	}

	result, err := s.lines.IncreaseCredit(c.Request().Context(), line, id, amount, mode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newConsentTxResponse(result))
}

func (s *Server) postBorrow(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req PositionAmountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, err := parseHash(req.PositionID)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	receipt, err := s.lines.Borrow(c.Request().Context(), line, id, amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func (s *Server) postDepositAndRepay(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req AmountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	receipt, err := s.lines.DepositAndRepay(c.Request().Context(), line, amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func (s *Server) postDepositAndClose(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req PositionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := parseHash(req.PositionID)
	if err != nil {
		return err
	}

	receipt, err := s.lines.DepositAndClose(c.Request().Context(), line, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func (s *Server) postWithdraw(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req PositionAmountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, err := parseHash(req.PositionID)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	receipt, err := s.lines.Withdraw(c.Request().Context(), line, id, amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func (s *Server) postClose(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req PositionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := parseHash(req.PositionID)
	if err != nil {
		return err
	}

	receipt, err := s.lines.Close(c.Request().Context(), line, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func (s *Server) postLiquidate(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req CollateralRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	token, err := parseAddress(req.Token)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	receipt, err := s.collateral.Liquidate(c.Request().Context(), line, token, amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}
