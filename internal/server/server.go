// Package server is the boundary a UI process talks to. It translates
// plain JSON parameters into service calls and service outcomes into
// JSON success payloads or structured taxonomy errors; nothing here makes
// a protocol decision of its own.
package server

import (
	"fmt"

	"creditline-client/collateral"
	"creditline-client/creditline"
	"creditline-client/internal/server/middleware"
	"creditline-client/linefactory"
	"creditline-client/logging"

	"github.com/labstack/echo/v4"
)

type Server struct {
	e          *echo.Echo
	lines      *creditline.Service
	collateral *collateral.Service
	factory    *linefactory.Service
}

func NewServer(lines *creditline.Service, collateralSvc *collateral.Service, factory *linefactory.Service) *Server {
	e := echo.New()
	e.HTTPErrorHandler = middleware.TransparentErrorHandler
	e.Use(middleware.LoggingMiddleware)

	s := &Server{
		e:          e,
		lines:      lines,
		collateral: collateralSvc,
		factory:    factory,
	}

	g := e.Group("/v1/")

	g.GET("lines/:address", s.getLine)
	g.GET("lines/:address/positions", s.getPositions)
	g.POST("lines/:address/credit", s.postAddCredit)
	g.POST("lines/:address/credit/dry-run", s.postAddCreditDryRun)
	g.POST("lines/:address/rates", s.postSetRates)
	g.POST("lines/:address/increase", s.postIncreaseCredit)
	g.POST("lines/:address/borrow", s.postBorrow)
	g.POST("lines/:address/repay", s.postDepositAndRepay)
	g.POST("lines/:address/repay-and-close", s.postDepositAndClose)
	g.POST("lines/:address/withdraw", s.postWithdraw)
	g.POST("lines/:address/close", s.postClose)
	g.POST("lines/:address/liquidate", s.postLiquidate)

	g.GET("escrows/:address", s.getEscrow)
	g.POST("lines/:address/collateral/enable", s.postEnableCollateral)
	g.POST("collateral/add", s.postAddCollateral)
	g.POST("collateral/release", s.postReleaseCollateral)

	g.POST("lines/:address/spigot", s.postAddSpigot)
	g.POST("lines/:address/spigot/release", s.postReleaseSpigot)
	g.POST("lines/:address/sweep", s.postSweep)
	g.POST("lines/:address/claim-and-trade", s.postClaimAndTrade)
	g.POST("lines/:address/claim-and-repay", s.postClaimAndRepay)

	g.POST("factory/lines", s.postDeployLine)
	g.POST("factory/escrows", s.postDeployEscrow)
	g.POST("factory/spigots", s.postDeploySpigot)
	g.POST("factory/rollover", s.postRollover)

	return s
}

func (s *Server) Start(port int) error {
	logging.Info("Starting API server", logging.Server, "port", port)
	return s.e.Start(fmt.Sprintf(":%d", port))
}
