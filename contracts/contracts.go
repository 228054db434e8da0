// Package contracts holds the ABI descriptors for the credit-line protocol
// contracts. The ABIs are trimmed to the methods and events this client
// actually calls; they are parsed once at package init.
package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	SecuredLine abi.ABI
	Escrow      abi.ABI
	Spigot      abi.ABI
	LineFactory abi.ABI
	ERC20       abi.ABI
)

func init() {
	SecuredLine = mustParse(securedLineABI)
	Escrow = mustParse(escrowABI)
	Spigot = mustParse(spigotABI)
	LineFactory = mustParse(lineFactoryABI)
	ERC20 = mustParse(erc20ABI)
}

func mustParse(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

const securedLineABI = `[
{"type":"function","name":"status","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"borrower","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"arbiter","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"escrow","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"spigot","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"counts","stateMutability":"view","inputs":[],"outputs":[{"name":"count","type":"uint256"},{"name":"len","type":"uint256"}]},
{"type":"function","name":"ids","stateMutability":"view","inputs":[{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"bytes32"}]},
{"type":"function","name":"credits","stateMutability":"view","inputs":[{"name":"id","type":"bytes32"}],"outputs":[{"name":"deposit","type":"uint256"},{"name":"principal","type":"uint256"},{"name":"interestAccrued","type":"uint256"},{"name":"interestRepaid","type":"uint256"},{"name":"decimals","type":"uint8"},{"name":"token","type":"address"},{"name":"lender","type":"address"},{"name":"isOpen","type":"bool"}]},
{"type":"function","name":"rates","stateMutability":"view","inputs":[{"name":"id","type":"bytes32"}],"outputs":[{"name":"dRate","type":"uint128"},{"name":"fRate","type":"uint128"},{"name":"lastAccrued","type":"uint256"}]},
{"type":"function","name":"interestAccrued","stateMutability":"view","inputs":[{"name":"id","type":"bytes32"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"mutualConsents","stateMutability":"view","inputs":[{"name":"hash","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"addCredit","stateMutability":"nonpayable","inputs":[{"name":"drate","type":"uint128"},{"name":"frate","type":"uint128"},{"name":"amount","type":"uint256"},{"name":"token","type":"address"},{"name":"lender","type":"address"}],"outputs":[{"name":"id","type":"bytes32"}]},
{"type":"function","name":"setRates","stateMutability":"nonpayable","inputs":[{"name":"id","type":"bytes32"},{"name":"drate","type":"uint128"},{"name":"frate","type":"uint128"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"increaseCredit","stateMutability":"nonpayable","inputs":[{"name":"id","type":"bytes32"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"borrow","stateMutability":"nonpayable","inputs":[{"name":"id","type":"bytes32"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"depositAndRepay","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"depositAndClose","stateMutability":"nonpayable","inputs":[],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"id","type":"bytes32"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"close","stateMutability":"nonpayable","inputs":[{"name":"id","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"liquidate","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"targetToken","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"addSpigot","stateMutability":"nonpayable","inputs":[{"name":"revenueContract","type":"address"},{"name":"setting","type":"tuple","components":[{"name":"ownerSplit","type":"uint8"},{"name":"claimFunction","type":"bytes4"},{"name":"transferOwnerFunction","type":"bytes4"}]}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"releaseSpigot","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"sweep","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"claimAndTrade","stateMutability":"nonpayable","inputs":[{"name":"claimToken","type":"address"},{"name":"tradeData","type":"bytes"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"claimAndRepay","stateMutability":"nonpayable","inputs":[{"name":"claimToken","type":"address"},{"name":"tradeData","type":"bytes"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const escrowABI = `[
{"type":"function","name":"borrower","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"minimumCollateralRatio","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint32"}]},
{"type":"function","name":"getCollateralRatio","stateMutability":"nonpayable","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getCollateralValue","stateMutability":"nonpayable","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"deposited","stateMutability":"view","inputs":[{"name":"token","type":"address"}],"outputs":[{"name":"amount","type":"uint256"}]},
{"type":"function","name":"enableCollateral","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"addCollateral","stateMutability":"payable","inputs":[{"name":"amount","type":"uint256"},{"name":"token","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"releaseCollateral","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"token","type":"address"},{"name":"to","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const spigotABI = `[
{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"operator","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

const lineFactoryABI = `[
{"type":"function","name":"deploySpigot","stateMutability":"nonpayable","inputs":[{"name":"owner","type":"address"},{"name":"borrower","type":"address"},{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"deployEscrow","stateMutability":"nonpayable","inputs":[{"name":"minCRatio","type":"uint32"},{"name":"oracle","type":"address"},{"name":"owner","type":"address"},{"name":"borrower","type":"address"}],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"deploySecuredLine","stateMutability":"nonpayable","inputs":[{"name":"borrower","type":"address"},{"name":"ttl","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"deploySecuredLineWithConfig","stateMutability":"nonpayable","inputs":[{"name":"coreParams","type":"tuple","components":[{"name":"borrower","type":"address"},{"name":"ttl","type":"uint256"},{"name":"cratio","type":"uint32"},{"name":"revenueSplit","type":"uint8"}]}],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"rolloverSecuredLine","stateMutability":"nonpayable","inputs":[{"name":"oldLine","type":"address"},{"name":"borrower","type":"address"},{"name":"oracle","type":"address"},{"name":"arbiter","type":"address"},{"name":"ttl","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
{"type":"event","name":"DeployedSpigot","inputs":[{"name":"deployedAt","type":"address","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"borrower","type":"address","indexed":false},{"name":"operator","type":"address","indexed":false}],"anonymous":false},
{"type":"event","name":"DeployedEscrow","inputs":[{"name":"deployedAt","type":"address","indexed":true},{"name":"minCRatio","type":"uint32","indexed":true},{"name":"oracle","type":"address","indexed":true},{"name":"owner","type":"address","indexed":false}],"anonymous":false},
{"type":"event","name":"DeployedSecuredLine","inputs":[{"name":"deployedAt","type":"address","indexed":true},{"name":"escrow","type":"address","indexed":true},{"name":"spigot","type":"address","indexed":true},{"name":"swapTarget","type":"address","indexed":false},{"name":"revenueSplit","type":"uint8","indexed":false}],"anonymous":false}
]`

const erc20ABI = `[
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`
