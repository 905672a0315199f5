// Package params loads and verifies the swap client configuration.
package params

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/common"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
)

// swap client constants
const (
	SwapClientPrefixID = "ccxswap"
)

// version
const (
	VersionWithMeta = "0.3.0"
)

var (
	clientConfig = &ClientConfig{}
	locDataDir   string

	// GatewayConfigFile if non empty, watched for gateway hot reload
	GatewayConfigFile string
)

// ClientConfig swap client config
type ClientConfig struct {
	Identifier string

	BridgeAPI *BridgeAPIConfig
	Server    *APIServerConfig `toml:",omitempty" json:",omitempty"`
	History   *HistoryConfig   `toml:",omitempty" json:",omitempty"`

	Networks map[string]*NetworkConfig // key is network key (eg. eth, bsc, plg)
	Gateways map[string][]string       // key is network key, value is provider endpoints

	Connectors map[string]*ConnectorConfig `toml:",omitempty" json:",omitempty"` // key is connector id

	Extra *ExtraConfig `toml:",omitempty" json:",omitempty"`
}

// BridgeAPIConfig bridge backend api config
type BridgeAPIConfig struct {
	BaseURL        string
	TimeoutSeconds int    `toml:",omitempty" json:",omitempty"`
	MaxRetries     uint64 `toml:",omitempty" json:",omitempty"`
}

// APIServerConfig local status api config
type APIServerConfig struct {
	Port             int
	AllowedOrigins   []string
	MaxRequestsLimit int `toml:",omitempty" json:",omitempty"`
}

// HistoryConfig swap history store config
type HistoryConfig struct {
	DBPath string
}

// NetworkConfig per network overrides of the builtin descriptor table
type NetworkConfig struct {
	Enabled       bool
	Label         string  `toml:",omitempty" json:",omitempty"`
	ChainID       string  `toml:",omitempty" json:",omitempty"`
	Symbol        string  `toml:",omitempty" json:",omitempty"`
	ExplorerURL   string  `toml:",omitempty" json:",omitempty"`
	GasMultiplier float64 `toml:",omitempty" json:",omitempty"`
}

// ConnectorConfig wallet connector config
type ConnectorConfig struct {
	Endpoint   string // websocket endpoint of the provider transport
	InstallURL string `toml:",omitempty" json:",omitempty"`
}

// ExtraConfig extra config
type ExtraConfig struct {
	IsDebugMode bool `toml:",omitempty" json:",omitempty"`

	PollSuccessIntervalSeconds uint64 `toml:",omitempty" json:",omitempty"`
	PollMaxRetries             int    `toml:",omitempty" json:",omitempty"`
}

// GetClientConfig get client config
func GetClientConfig() *ClientConfig {
	return clientConfig
}

// GetIdentifier get identifier
func GetIdentifier() string {
	return GetClientConfig().Identifier
}

// GetExtraConfig get extra config
func GetExtraConfig() *ExtraConfig {
	return clientConfig.Extra
}

// IsDebugMode is debug mode, add more debugging log infos
func IsDebugMode() bool {
	return GetExtraConfig() != nil && GetExtraConfig().IsDebugMode
}

// GetBridgeAPIConfig get bridge api config
func GetBridgeAPIConfig() *BridgeAPIConfig {
	return clientConfig.BridgeAPI
}

// GetServerConfig get local status api config (may be nil)
func GetServerConfig() *APIServerConfig {
	return clientConfig.Server
}

// GetHistoryConfig get history store config (may be nil)
func GetHistoryConfig() *HistoryConfig {
	return clientConfig.History
}

// GetGatewayURLs get provider endpoints of specified network
func GetGatewayURLs(networkKey string) []string {
	return clientConfig.Gateways[strings.ToLower(networkKey)]
}

// GetConnectorConfig get connector config of specified connector id
func GetConnectorConfig(connectorID string) *ConnectorConfig {
	return clientConfig.Connectors[strings.ToLower(connectorID)]
}

// IsNetworkEnabled is network enabled in config
func IsNetworkEnabled(networkKey string) bool {
	netCfg, exist := clientConfig.Networks[strings.ToLower(networkKey)]
	return exist && netCfg.Enabled
}

// GetChainIDOverride get configured chain id override of network (may be nil)
func GetChainIDOverride(networkKey string) *big.Int {
	netCfg, exist := clientConfig.Networks[strings.ToLower(networkKey)]
	if !exist || netCfg.ChainID == "" {
		return nil
	}
	chainID, err := common.GetBigIntFromStr(netCfg.ChainID)
	if err != nil {
		return nil
	}
	return chainID
}

// SetDataDir set data dir
func SetDataDir(datadir string) {
	if datadir == "" {
		log.Warn("suggest specify '--datadir' to enhance accident protection")
		return
	}
	err := common.EnsureDir(datadir)
	if err != nil {
		log.Fatalf("SetDataDir error: %v", err)
	}
	locDataDir = datadir
	log.Infof("set data dir success, datadir is '%v'", datadir)
}

// GetDataDir get data dir
func GetDataDir() string {
	return locDataDir
}

// LoadClientConfig load swap client config
func LoadClientConfig(configFile string, check bool) *ClientConfig {
	if configFile == "" {
		log.Fatal("LoadClientConfig error: no config file specified")
	}
	if !common.FileExist(configFile) {
		log.Fatalf("LoadClientConfig error: config file '%v' not exist", configFile)
	}
	config := &ClientConfig{}
	if _, err := toml.DecodeFile(configFile, &config); err != nil {
		log.Fatalf("LoadClientConfig error (toml DecodeFile): %v", err)
	}

	normalizeConfig(config)
	clientConfig = config

	if check {
		if err := CheckConfig(config); err != nil {
			log.Fatalf("CheckConfig failed: %v", err)
		}
	}

	var bs []byte
	if log.JSONFormat {
		bs, _ = json.Marshal(config)
	} else {
		bs, _ = json.MarshalIndent(config, "", "  ")
	}
	log.Println("LoadClientConfig finished.", string(bs))
	return config
}

func normalizeConfig(config *ClientConfig) {
	networks := make(map[string]*NetworkConfig, len(config.Networks))
	for key, netCfg := range config.Networks {
		networks[strings.ToLower(key)] = netCfg
	}
	config.Networks = networks

	gateways := make(map[string][]string, len(config.Gateways))
	for key, urls := range config.Gateways {
		gateways[strings.ToLower(key)] = urls
	}
	config.Gateways = gateways

	connectors := make(map[string]*ConnectorConfig, len(config.Connectors))
	for key, connCfg := range config.Connectors {
		connectors[strings.ToLower(key)] = connCfg
	}
	config.Connectors = connectors
}

// SetGatewayURLs replace provider endpoints of specified network (hot reload)
func SetGatewayURLs(networkKey string, urls []string) {
	if clientConfig.Gateways == nil {
		clientConfig.Gateways = make(map[string][]string)
	}
	clientConfig.Gateways[strings.ToLower(networkKey)] = urls
	log.Info("set gateway urls success", "network", networkKey, "count", len(urls))
}
