package ledgerclient

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"time"

	"creditline-client/logging"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// EthLedgerClient talks to an EVM node over JSON-RPC and signs with a local
// key. It implements LedgerClient.
type EthLedgerClient struct {
	eth            *ethclient.Client
	chainID        *big.Int
	key            *ecdsa.PrivateKey
	signer         common.Address
	confirmTimeout time.Duration
}

func Dial(ctx context.Context, rpcURL string, chainID int64, signerKeyHex string, confirmTimeout time.Duration) (*EthLedgerClient, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrap(ErrLedgerUnavailable, err.Error())
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(signerKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid signer key")
	}

	signer := crypto.PubkeyToAddress(key.PublicKey)
	logging.Info("Connected to ledger node", logging.Ledger, "rpc_url", rpcURL, "chain_id", chainID, "signer", signer.Hex())

	return &EthLedgerClient{
		eth:            eth,
		chainID:        big.NewInt(chainID),
		key:            key,
		signer:         signer,
		confirmTimeout: confirmTimeout,
	}, nil
}

// DialWithRetry keeps trying the node until it answers or the attempts run
// out. It always makes at least one attempt, whatever maxRetries says.
func DialWithRetry(ctx context.Context, rpcURL string, chainID int64, signerKeyHex string, confirmTimeout time.Duration, maxRetries int, delay time.Duration) (*EthLedgerClient, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var client *EthLedgerClient
	var err error
	for i := 0; i < maxRetries; i++ {
		client, err = Dial(ctx, rpcURL, chainID, signerKeyHex, confirmTimeout)
		if err == nil {
			return client, nil
		}
		logging.Warn("Failed to connect to ledger node, retrying", logging.Ledger, "delay", delay.String(), "error", err)
		time.Sleep(delay)
	}
	return nil, errors.Wrap(err, "failed to connect to ledger node after multiple retries")
}

func (c *EthLedgerClient) Signer() common.Address {
	return c.signer
}

func (c *EthLedgerClient) Call(ctx context.Context, contract common.Address, descriptor abi.ABI, method string, out interface{}, args ...interface{}) error {
	data, err := descriptor.Pack(method, args...)
	if err != nil {
		return errors.Wrapf(ErrEncodingCalldata, "%s: %s", method, err)
	}

	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{
		From: c.signer,
		To:   &contract,
		Data: data,
	}, nil)
	if err != nil {
		return classify(err)
	}

	if err := descriptor.UnpackIntoInterface(out, method, raw); err != nil {
		return errors.Wrapf(ErrDecodingResult, "%s: %s", method, err)
	}
	return nil
}

func (c *EthLedgerClient) Populate(ctx context.Context, contract common.Address, descriptor abi.ABI, method string, overrides Overrides, args ...interface{}) (*ethtypes.Transaction, error) {
	data, err := descriptor.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(ErrEncodingCalldata, "%s: %s", method, err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.signer)
	if err != nil {
		return nil, classify(err)
	}

	value := overrides.Value
	if value == nil {
		value = new(big.Int)
	}

	gasLimit := overrides.GasLimit
	if gasLimit == 0 {
		gasLimit, err = c.eth.EstimateGas(ctx, ethereum.CallMsg{
			From:  c.signer,
			To:    &contract,
			Value: value,
			Data:  data,
		})
		if err != nil {
			return nil, classify(err)
		}
	}

	gasTipCap, gasFeeCap, err := c.feeCaps(ctx, overrides)
	if err != nil {
		return nil, err
	}

	return ethtypes.NewTx(&ethtypes.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gasLimit,
		To:        &contract,
		Value:     value,
		Data:      data,
	}), nil
}

func (c *EthLedgerClient) Execute(ctx context.Context, contract common.Address, descriptor abi.ABI, method string, overrides Overrides, args ...interface{}) (*ethtypes.Receipt, error) {
	unsigned, err := c.Populate(ctx, contract, descriptor, method, overrides, args...)
	if err != nil {
		return nil, err
	}

	signed, err := ethtypes.SignTx(unsigned, ethtypes.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return nil, errors.Wrap(ErrFailedToSignTx, err.Error())
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, classify(err)
	}

	logging.Debug("Transaction submitted, awaiting confirmation", logging.Ledger, "tx_hash", signed.Hash().Hex(), "method", method)

	// The local wait can time out or be cancelled; the submitted
	// transaction itself cannot be cancelled on the ledger.
	waitCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.eth, signed)
	if err != nil {
		return nil, errors.Wrapf(ErrLedgerUnavailable, "waiting for tx %s: %s", signed.Hash().Hex(), err)
	}
	if receipt.Status == ethtypes.ReceiptStatusFailed {
		return nil, errors.Wrapf(ErrLedgerRejected, "tx %s reverted", signed.Hash().Hex())
	}
	return receipt, nil
}

func (c *EthLedgerClient) feeCaps(ctx context.Context, overrides Overrides) (*big.Int, *big.Int, error) {
	if overrides.GasPrice != nil {
		return overrides.GasPrice, overrides.GasPrice, nil
	}

	gasTipCap, err := c.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, classify(err)
	}
	head, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, classify(err)
	}
	gasFeeCap := new(big.Int).Add(gasTipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	return gasTipCap, gasFeeCap, nil
}

// classify maps an RPC error onto the taxonomy: a revert came from the
// contract (rejected), anything else is transport (unavailable). The
// underlying message is preserved verbatim either way.
func classify(err error) error {
	if isRevert(err) {
		return errors.Wrap(ErrLedgerRejected, err.Error())
	}
	return errors.Wrap(ErrLedgerUnavailable, err.Error())
}
