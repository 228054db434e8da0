// Package linefactory deploys new escrow, spigot and secured-line
// instances through the protocol's factory contract, and rolls lines over
// to successors. It only wires addresses; lifecycle behavior stays with
// the creditline and collateral services.
package linefactory

import (
	"context"
	"math/big"

	"creditline-client/contracts"
	"creditline-client/ledgerclient"
	"creditline-client/ledgerclient/txpipeline"
	"creditline-client/logging"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// DeploymentConfig is the environment-provided wiring for one network:
// the factory itself and the fixed arbiter/oracle/swap-target triple
// composed into common-path deployments.
type DeploymentConfig struct {
	Factory    common.Address
	Arbiter    common.Address
	Oracle     common.Address
	SwapTarget common.Address
}

// CoreParams is the fully parameterized deployment variant.
type CoreParams struct {
	Borrower     common.Address
	TTL          *big.Int
	CRatio       uint32
	RevenueSplit uint8
}

type Service struct {
	ledger   ledgerclient.LedgerClient
	pipeline *txpipeline.Pipeline
	cfg      DeploymentConfig
}

func NewService(ledger ledgerclient.LedgerClient, cfg DeploymentConfig) *Service {
	return &Service{
		ledger:   ledger,
		pipeline: txpipeline.New(ledger),
		cfg:      cfg,
	}
}

// Deployment couples the confirmed receipt with the address of the child
// contract recovered from the factory's event log.
type Deployment struct {
	Address common.Address
	Receipt *ethtypes.Receipt
}

func (s *Service) DeploySpigot(ctx context.Context, owner, borrower, operator common.Address) (*Deployment, error) {
	receipt, err := s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   s.cfg.Factory,
		Descriptor: contracts.LineFactory,
		Method:     "deploySpigot",
		Args:       []interface{}{owner, borrower, operator},
	})
	if err != nil {
		return nil, err
	}
	return s.deployment(receipt, "DeployedSpigot")
}

func (s *Service) DeployEscrow(ctx context.Context, minCRatio uint32, oracle, owner, borrower common.Address) (*Deployment, error) {
	receipt, err := s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   s.cfg.Factory,
		Descriptor: contracts.LineFactory,
		Method:     "deployEscrow",
		Args:       []interface{}{minCRatio, oracle, owner, borrower},
	})
	if err != nil {
		return nil, err
	}
	return s.deployment(receipt, "DeployedEscrow")
}

// DeploySecuredLine is the common deployment path: borrower and ttl from
// the caller, everything else from the network configuration.
func (s *Service) DeploySecuredLine(ctx context.Context, borrower common.Address, ttl *big.Int) (*Deployment, error) {
	logging.Info("Deploying secured line", logging.Factory,
		"borrower", borrower.Hex(), "ttl", ttl, "arbiter", s.cfg.Arbiter.Hex(), "oracle", s.cfg.Oracle.Hex(), "swap_target", s.cfg.SwapTarget.Hex())

	receipt, err := s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   s.cfg.Factory,
		Descriptor: contracts.LineFactory,
		Method:     "deploySecuredLine",
		Args:       []interface{}{borrower, ttl},
	})
	if err != nil {
		return nil, err
	}
	return s.deployment(receipt, "DeployedSecuredLine")
}

// DeploySecuredLineWithConfig deploys with an explicit revenue split and
// collateral ratio for advanced configurations.
func (s *Service) DeploySecuredLineWithConfig(ctx context.Context, params CoreParams) (*Deployment, error) {
	coreParams := struct {
		Borrower     common.Address
		Ttl          *big.Int
		Cratio       uint32
		RevenueSplit uint8
	}{
		Borrower:     params.Borrower,
		Ttl:          params.TTL,
		Cratio:       params.CRatio,
		RevenueSplit: params.RevenueSplit,
	}

	receipt, err := s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   s.cfg.Factory,
		Descriptor: contracts.LineFactory,
		Method:     "deploySecuredLineWithConfig",
		Args:       []interface{}{coreParams},
	})
	if err != nil {
		return nil, err
	}
	return s.deployment(receipt, "DeployedSecuredLine")
}

// RolloverSecuredLine deploys a successor line referencing its
// predecessor. Funds do not migrate here; that is a separate, explicit
// transfer.
func (s *Service) RolloverSecuredLine(ctx context.Context, oldLine, borrower, oracle, arbiter common.Address, ttl *big.Int) (*Deployment, error) {
	receipt, err := s.pipeline.Execute(ctx, txpipeline.Request{
		Contract:   s.cfg.Factory,
		Descriptor: contracts.LineFactory,
		Method:     "rolloverSecuredLine",
		Args:       []interface{}{oldLine, borrower, oracle, arbiter, ttl},
	})
	if err != nil {
		return nil, err
	}
	return s.deployment(receipt, "DeployedSecuredLine")
}

// deployment recovers the deployed child address from the factory event;
// factory call receipts do not carry it anywhere else.
func (s *Service) deployment(receipt *ethtypes.Receipt, eventName string) (*Deployment, error) {
	event, ok := contracts.LineFactory.Events[eventName]
	if !ok {
		return nil, errors.Errorf("unknown factory event %s", eventName)
	}

	for _, log := range receipt.Logs {
		if log.Address != s.cfg.Factory || len(log.Topics) < 2 || log.Topics[0] != event.ID {
			continue
		}
		deployed := common.BytesToAddress(log.Topics[1].Bytes())
		logging.Info("Factory deployment confirmed", logging.Factory,
			"event", eventName, "deployed_at", deployed.Hex(), "tx_hash", receipt.TxHash.Hex())
		return &Deployment{Address: deployed, Receipt: receipt}, nil
	}
	return nil, errors.Errorf("receipt %s carries no %s event from the factory", receipt.TxHash.Hex(), eventName)
}
