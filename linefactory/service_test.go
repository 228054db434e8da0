package linefactory

import (
	"context"
	"math/big"
	"testing"

	"creditline-client/contracts"
	"creditline-client/creditline"
	"creditline-client/ledgerclient"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testFactory  = common.HexToAddress("0x9000000000000000000000000000000000000009")
	testBorrower = common.HexToAddress("0x2000000000000000000000000000000000000002")
	testDeployed = common.HexToAddress("0xa00000000000000000000000000000000000000a")
)

func testConfig() DeploymentConfig {
	return DeploymentConfig{
		Factory:    testFactory,
		Arbiter:    common.HexToAddress("0x6000000000000000000000000000000000000006"),
		Oracle:     common.HexToAddress("0xb00000000000000000000000000000000000000b"),
		SwapTarget: common.HexToAddress("0xc00000000000000000000000000000000000000c"),
	}
}

func deploymentReceipt(eventName string, emitter common.Address) *ethtypes.Receipt {
	event := contracts.LineFactory.Events[eventName]
	return &ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0xabc3"),
		BlockNumber: big.NewInt(102),
		GasUsed:     900_000,
		Logs: []*ethtypes.Log{
			{
				Address: emitter,
				Topics: []common.Hash{
					event.ID,
					common.BytesToHash(testDeployed.Bytes()),
					common.BytesToHash(testBorrower.Bytes()),
				},
			},
		},
	}
}

func TestDeploySecuredLineRecoversAddressFromEvent(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	ledger.On("Execute", mock.Anything, testFactory, "deploySecuredLine", mock.Anything, mock.Anything).
		Return(deploymentReceipt("DeployedSecuredLine", testFactory), nil)
	svc := NewService(ledger, testConfig())

	deployment, err := svc.DeploySecuredLine(context.Background(), testBorrower, big.NewInt(90*24*3600))
	require.NoError(t, err)
	assert.Equal(t, testDeployed, deployment.Address)
	assert.Equal(t, uint64(900_000), deployment.Receipt.GasUsed)
}

func TestDeploySpigotRecoversAddressFromEvent(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	ledger.On("Execute", mock.Anything, testFactory, "deploySpigot", mock.Anything, mock.Anything).
		Return(deploymentReceipt("DeployedSpigot", testFactory), nil)
	svc := NewService(ledger, testConfig())

	deployment, err := svc.DeploySpigot(context.Background(), testBorrower, testBorrower, testBorrower)
	require.NoError(t, err)
	assert.Equal(t, testDeployed, deployment.Address)
}

func TestDeploymentIgnoresForeignEmitters(t *testing.T) {
	// A log with the right signature from a different contract must not
	// be mistaken for the factory's own event.
	foreign := common.HexToAddress("0xd00000000000000000000000000000000000000d")
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	ledger.On("Execute", mock.Anything, testFactory, "deployEscrow", mock.Anything, mock.Anything).
		Return(deploymentReceipt("DeployedEscrow", foreign), nil)
	svc := NewService(ledger, testConfig())

	_, err := svc.DeployEscrow(context.Background(), 12_500,
		testConfig().Oracle, testBorrower, testBorrower)
	require.Error(t, err)
}

func TestDeployedLineReadsBackFreshState(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	ledger.On("Execute", mock.Anything, testFactory, "deploySecuredLine", mock.Anything, mock.Anything).
		Return(deploymentReceipt("DeployedSecuredLine", testFactory), nil)
	ledger.On("Call", mock.Anything, testDeployed, "status", mock.Anything, mock.Anything).
		Return(nil)
	ledger.On("Call", mock.Anything, testDeployed, "borrower", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*(args.Get(3).(*common.Address)) = testBorrower
		}).Return(nil)
	svc := NewService(ledger, testConfig())

	deployment, err := svc.DeploySecuredLine(context.Background(), testBorrower, big.NewInt(90*24*3600))
	require.NoError(t, err)

	// A fresh line starts Uninitialized and carries the supplied borrower.
	lines := creditline.NewService(ledger)
	status, err := lines.GetStatus(context.Background(), deployment.Address)
	require.NoError(t, err)
	assert.Equal(t, creditline.StatusUninitialized, status)

	borrower, err := lines.GetBorrower(context.Background(), deployment.Address)
	require.NoError(t, err)
	assert.Equal(t, testBorrower, borrower)
}

func TestDeploySecuredLineWithConfig(t *testing.T) {
	ledger := &ledgerclient.MockLedgerClient{SignerAddress: testBorrower}
	ledger.On("Execute", mock.Anything, testFactory, "deploySecuredLineWithConfig", mock.Anything, mock.Anything).
		Return(deploymentReceipt("DeployedSecuredLine", testFactory), nil)
	svc := NewService(ledger, testConfig())

	deployment, err := svc.DeploySecuredLineWithConfig(context.Background(), CoreParams{
		Borrower:     testBorrower,
		TTL:          big.NewInt(30 * 24 * 3600),
		CRatio:       12_500,
		RevenueSplit: 90,
	})
	require.NoError(t, err)
	assert.Equal(t, testDeployed, deployment.Address)
}
