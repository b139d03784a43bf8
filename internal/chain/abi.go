package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Read surface of the escrow contract. The order tuple is positional: the
// decode in escrow.go depends on this exact field order.
const escrowABIJSON = `[
  {"type":"function","name":"nextOrderId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"orders","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[
    {"name":"id","type":"uint256"},
    {"name":"maker","type":"address"},
    {"name":"buyer","type":"address"},
    {"name":"seller","type":"address"},
    {"name":"projectId","type":"bytes32"},
    {"name":"amount","type":"uint256"},
    {"name":"unitPrice","type":"uint256"},
    {"name":"buyerFunds","type":"uint256"},
    {"name":"sellerCollateral","type":"uint256"},
    {"name":"settlementDeadline","type":"uint64"},
    {"name":"isSell","type":"bool"},
    {"name":"allowedTaker","type":"address"},
    {"name":"status","type":"uint8"}]},
  {"type":"function","name":"settlementProofs","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"paused","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"SettlementActivated","inputs":[
    {"name":"orderId","type":"uint256","indexed":true},
    {"name":"deadline","type":"uint64","indexed":false}]}
]`

const registryABIJSON = `[
  {"type":"function","name":"getActiveProjects","stateMutability":"view","inputs":[],"outputs":[
    {"name":"","type":"tuple[]","components":[
      {"name":"slug","type":"string"},
      {"name":"name","type":"string"},
      {"name":"token","type":"address"},
      {"name":"isPoints","type":"bool"},
      {"name":"active","type":"bool"},
      {"name":"metadataURI","type":"string"}]}]},
  {"type":"function","name":"getProject","stateMutability":"view","inputs":[{"name":"slug","type":"string"}],"outputs":[
    {"name":"","type":"tuple","components":[
      {"name":"slug","type":"string"},
      {"name":"name","type":"string"},
      {"name":"token","type":"address"},
      {"name":"isPoints","type":"bool"},
      {"name":"active","type":"bool"},
      {"name":"metadataURI","type":"string"}]}]},
  {"type":"event","name":"ProjectAdded","inputs":[
    {"name":"projectId","type":"bytes32","indexed":true},
    {"name":"slug","type":"string","indexed":false},
    {"name":"name","type":"string","indexed":false}]},
  {"type":"event","name":"ProjectStatusChanged","inputs":[
    {"name":"projectId","type":"bytes32","indexed":true},
    {"name":"active","type":"bool","indexed":false}]}
]`

var (
	escrowABI   abi.ABI
	registryABI abi.ABI
)

func init() {
	var err error
	escrowABI, err = abi.JSON(strings.NewReader(escrowABIJSON))
	if err != nil {
		panic("chain: invalid escrow ABI: " + err.Error())
	}
	registryABI, err = abi.JSON(strings.NewReader(registryABIJSON))
	if err != nil {
		panic("chain: invalid registry ABI: " + err.Error())
	}
}

// EscrowABI returns the parsed escrow contract ABI.
func EscrowABI() abi.ABI { return escrowABI }

// RegistryABI returns the parsed registry contract ABI.
func RegistryABI() abi.ABI { return registryABI }
