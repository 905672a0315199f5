package params

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// CheckConfig check client config
func CheckConfig(config *ClientConfig) (err error) {
	if config.Identifier == "" {
		return errors.New("must config non empty 'Identifier'")
	}
	if !strings.HasPrefix(config.Identifier, SwapClientPrefixID) {
		return fmt.Errorf("wrong identifier '%v', missing prefix '%v'", config.Identifier, SwapClientPrefixID)
	}
	err = checkBridgeAPIConfig(config.BridgeAPI)
	if err != nil {
		return err
	}
	err = checkNetworksConfig(config)
	if err != nil {
		return err
	}
	err = checkConnectorsConfig(config.Connectors)
	if err != nil {
		return err
	}
	if config.Server != nil && config.Server.Port <= 0 {
		return fmt.Errorf("wrong api server port %v", config.Server.Port)
	}
	if config.History != nil && config.History.DBPath == "" {
		return errors.New("must config non empty 'History.DBPath'")
	}
	return nil
}

func checkBridgeAPIConfig(apiCfg *BridgeAPIConfig) error {
	if apiCfg == nil {
		return errors.New("must config 'BridgeAPI'")
	}
	if apiCfg.BaseURL == "" {
		return errors.New("must config non empty 'BridgeAPI.BaseURL'")
	}
	parsed, err := url.Parse(apiCfg.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("wrong 'BridgeAPI.BaseURL' '%v'", apiCfg.BaseURL)
	}
	if apiCfg.TimeoutSeconds < 0 {
		return fmt.Errorf("wrong 'BridgeAPI.TimeoutSeconds' %v", apiCfg.TimeoutSeconds)
	}
	return nil
}

func checkNetworksConfig(config *ClientConfig) error {
	if len(config.Networks) == 0 {
		return errors.New("must config at least one network")
	}
	hasEnabled := false
	for key := range config.Networks {
		if !IsKnownNetwork(key) {
			return fmt.Errorf("unknown network '%v' in config", key)
		}
		if !config.Networks[key].Enabled {
			continue
		}
		hasEnabled = true
		if len(config.Gateways[key]) == 0 {
			return fmt.Errorf("network '%v' enabled but has no gateway urls", key)
		}
	}
	if !hasEnabled {
		return errors.New("no network is enabled")
	}
	return nil
}

func checkConnectorsConfig(connectors map[string]*ConnectorConfig) error {
	for id, connCfg := range connectors {
		if connCfg.Endpoint == "" {
			return fmt.Errorf("connector '%v' has empty endpoint", id)
		}
		parsed, err := url.Parse(connCfg.Endpoint)
		if err != nil || (parsed.Scheme != "ws" && parsed.Scheme != "wss") {
			return fmt.Errorf("connector '%v' endpoint '%v' is not a websocket url", id, connCfg.Endpoint)
		}
	}
	return nil
}
