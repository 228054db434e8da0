package server

import (
	"math/big"
	"net/http"

	"creditline-client/linefactory"

	"github.com/labstack/echo/v4"
)

func newDeploymentResponse(d *linefactory.Deployment) DeploymentResponse {
	return DeploymentResponse{
		Address:    d.Address.Hex(),
		TxResponse: newTxResponse(d.Receipt),
	}
}

func (s *Server) postDeployLine(c echo.Context) error {
	var req DeployLineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	borrower, err := parseAddress(req.Borrower)
	if err != nil {
		return err
	}
	ttl := new(big.Int).SetUint64(req.TTLSeconds)

	var deployment *linefactory.Deployment
	if req.Configured {
		deployment, err = s.factory.DeploySecuredLineWithConfig(c.Request().Context(), linefactory.CoreParams{
			Borrower:     borrower,
			TTL:          ttl,
			CRatio:       req.CRatio,
			RevenueSplit: req.RevenueSplit,
		})
	} else {
		deployment, err = s.factory.DeploySecuredLine(c.Request().Context(), borrower, ttl)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newDeploymentResponse(deployment))
}

func (s *Server) postDeployEscrow(c echo.Context) error {
	var req DeployEscrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	oracle, err := parseAddress(req.Oracle)
	if err != nil {
		return err
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		return err
	}
	borrower, err := parseAddress(req.Borrower)
	if err != nil {
		return err
	}

	deployment, err := s.factory.DeployEscrow(c.Request().Context(), req.MinCRatio, oracle, owner, borrower)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newDeploymentResponse(deployment))
}

func (s *Server) postDeploySpigot(c echo.Context) error {
	var req DeploySpigotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		return err
	}
	borrower, err := parseAddress(req.Borrower)
	if err != nil {
		return err
	}
	operator, err := parseAddress(req.Operator)
	if err != nil {
		return err
	}

	deployment, err := s.factory.DeploySpigot(c.Request().Context(), owner, borrower, operator)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newDeploymentResponse(deployment))
}

func (s *Server) postRollover(c echo.Context) error {
	var req RolloverRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	oldLine, err := parseAddress(req.OldLine)
	if err != nil {
		return err
	}
	borrower, err := parseAddress(req.Borrower)
	if err != nil {
		return err
	}
	oracle, err := parseAddress(req.Oracle)
	if err != nil {
		return err
	}
	arbiter, err := parseAddress(req.Arbiter)
	if err != nil {
		return err
	}
	ttl := new(big.Int).SetUint64(req.TTLSeconds)

	deployment, err := s.factory.RolloverSecuredLine(c.Request().Context(), oldLine, borrower, oracle, arbiter, ttl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newDeploymentResponse(deployment))
}
