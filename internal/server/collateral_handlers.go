package server

import (
	"net/http"

	"creditline-client/collateral"
	"creditline-client/creditline"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

func (s *Server) getEscrow(c echo.Context) error {
	escrow, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}

	state, err := s.collateral.GetEscrowState(c.Request().Context(), escrow)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, EscrowResponse{
		Address:         state.Address.Hex(),
		Borrower:        state.Borrower.Hex(),
		MinCRatio:       state.MinCRatio,
		CollateralRatio: state.CollateralRatio.String(),
	})
}

func (s *Server) postEnableCollateral(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req CollateralRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	escrow, err := parseAddress(req.Escrow)
	if err != nil {
		return err
	}
	token, err := parseAddress(req.Token)
	if err != nil {
		return err
	}

	receipt, err := s.collateral.EnableCollateral(c.Request().Context(), line, escrow, token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func (s *Server) postAddCollateral(c echo.Context) error {
	var req CollateralRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	escrow, err := parseAddress(req.Escrow)
	if err != nil {
		return err
	}
	token, err := parseAddress(req.Token)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	receipt, err := s.collateral.AddCollateral(c.Request().Context(), escrow, token, amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func (s *Server) postReleaseCollateral(c echo.Context) error {
	var req CollateralRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	escrow, err := parseAddress(req.Escrow)
	if err != nil {
		return err
	}
	token, err := parseAddress(req.Token)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	to, err := parseAddress(req.To)
	if err != nil {
		return err
	}

	receipt, err := s.collateral.ReleaseCollateral(c.Request().Context(), escrow, token, amount, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func (s *Server) postAddSpigot(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req AddSpigotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	revenueContract, err := parseAddress(req.RevenueContract)
	if err != nil {
		return err
	}
	token, err := parseAddress(req.Token)
	if err != nil {
		return err
	}
	claimFn, err := parseSelector(req.ClaimFunction)
	if err != nil {
		return err
	}
	transferFn, err := parseSelector(req.TransferOwnerFunction)
	if err != nil {
		return err
	}

	setting := collateral.SpigotSetting{
		Token:                 token,
		OwnerSplit:            req.OwnerSplit,
		ClaimFunction:         claimFn,
		TransferOwnerFunction: transferFn,
	}
	receipt, err := s.collateral.AddSpigot(c.Request().Context(), line, revenueContract, setting)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func (s *Server) postReleaseSpigot(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req SettlementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	to, err := parseAddress(req.To)
	if err != nil {
		return err
	}
	status, borrower, arbiter, err := settlementContext(c, s.lines, line)
	if err != nil {
		return err
	}

	receipt, err := s.collateral.ReleaseSpigot(c.Request().Context(), line, to, status, borrower, arbiter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func (s *Server) postSweep(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	var req SettlementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	to, err := parseAddress(req.To)
	if err != nil {
		return err
	}
	token, err := parseAddress(req.Token)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	status, borrower, arbiter, err := settlementContext(c, s.lines, line)
	if err != nil {
		return err
	}

	receipt, err := s.collateral.Sweep(c.Request().Context(), line, to, token, amount, status, borrower, arbiter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func (s *Server) postClaimAndTrade(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	claimToken, tradeData, err := bindClaimRequest(c)
	if err != nil {
		return err
	}

	receipt, err := s.collateral.ClaimAndTrade(c.Request().Context(), line, claimToken, tradeData)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func (s *Server) postClaimAndRepay(c echo.Context) error {
	line, err := parseAddress(c.Param("address"))
	if err != nil {
		return err
	}
	claimToken, tradeData, err := bindClaimRequest(c)
	if err != nil {
		return err
	}

	receipt, err := s.collateral.ClaimAndRepay(c.Request().Context(), line, claimToken, tradeData)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTxResponse(receipt))
}

func bindClaimRequest(c echo.Context) (common.Address, []byte, error) {
	var req ClaimRequest
	if err := c.Bind(&req); err != nil {
		return common.Address{}, nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	claimToken, err := parseAddress(req.ClaimToken)
	if err != nil {
		return common.Address{}, nil, err
	}
	return claimToken, common.FromHex(req.TradeData), nil
}

// settlementContext resolves the line state the settlement authorization
// rules key off. The facade reads it fresh rather than trusting the
// request body.
func settlementContext(c echo.Context, lines *creditline.Service, line common.Address) (creditline.Status, common.Address, common.Address, error) {
	ctx := c.Request().Context()
	status, err := lines.GetStatus(ctx, line)
	if err != nil {
		return 0, common.Address{}, common.Address{}, err
	}
	borrower, err := lines.GetBorrower(ctx, line)
	if err != nil {
		return 0, common.Address{}, common.Address{}, err
	}
	arbiter, err := lines.GetArbiter(ctx, line)
	if err != nil {
		return 0, common.Address{}, common.Address{}, err
	}
	return status, borrower, arbiter, nil
}
