package params

import (
	"fmt"
	"math/big"
	"strings"
)

// supported network keys
const (
	NetworkETH = "eth"
	NetworkBSC = "bsc"
	NetworkPLG = "plg"
)

// Network describes one supported EVM chain.
type Network struct {
	Key         string
	ChainID     *big.Int
	Label       string
	Symbol      string
	ExplorerURL string
}

// builtin descriptor table, overridable per entry by config
var builtinNetworks = map[string]*Network{
	NetworkETH: {
		Key:         NetworkETH,
		ChainID:     big.NewInt(1),
		Label:       "Ethereum",
		Symbol:      "ETH",
		ExplorerURL: "https://etherscan.io",
	},
	NetworkBSC: {
		Key:         NetworkBSC,
		ChainID:     big.NewInt(56),
		Label:       "BNB Smart Chain",
		Symbol:      "BNB",
		ExplorerURL: "https://bscscan.com",
	},
	NetworkPLG: {
		Key:         NetworkPLG,
		ChainID:     big.NewInt(137),
		Label:       "Polygon",
		Symbol:      "POL",
		ExplorerURL: "https://polygonscan.com",
	},
}

// GetNetwork get the chain descriptor of a network key,
// with config overrides applied.
func GetNetwork(networkKey string) (*Network, error) {
	key := strings.ToLower(networkKey)
	builtin, exist := builtinNetworks[key]
	if !exist {
		return nil, fmt.Errorf("unknown network '%v'", networkKey)
	}
	network := &Network{
		Key:         builtin.Key,
		ChainID:     new(big.Int).Set(builtin.ChainID),
		Label:       builtin.Label,
		Symbol:      builtin.Symbol,
		ExplorerURL: builtin.ExplorerURL,
	}
	netCfg, exist := clientConfig.Networks[key]
	if !exist {
		return network, nil
	}
	if netCfg.Label != "" {
		network.Label = netCfg.Label
	}
	if netCfg.Symbol != "" {
		network.Symbol = netCfg.Symbol
	}
	if netCfg.ExplorerURL != "" {
		network.ExplorerURL = netCfg.ExplorerURL
	}
	if override := GetChainIDOverride(key); override != nil {
		network.ChainID = override
	}
	return network, nil
}

// GetEnabledNetworks get all enabled network keys, stable order
func GetEnabledNetworks() []string {
	keys := make([]string, 0, len(clientConfig.Networks))
	for _, key := range []string{NetworkETH, NetworkBSC, NetworkPLG} {
		if IsNetworkEnabled(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// IsKnownNetwork is builtin network key
func IsKnownNetwork(networkKey string) bool {
	_, exist := builtinNetworks[strings.ToLower(networkKey)]
	return exist
}

// GetGasMultiplier get configured gas multiplier of network (0 if unset)
func GetGasMultiplier(networkKey string) float64 {
	netCfg, exist := clientConfig.Networks[strings.ToLower(networkKey)]
	if !exist {
		return 0
	}
	return netCfg.GasMultiplier
}
