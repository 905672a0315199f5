// Command swapclient is the main program to run the ccx <-> wccx
// bridge swap client or its sub commands.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/bridgeapi"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/cmd/utils"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/history"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/internal/swapapi"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/params"
	rpcclient "github.com/ThrownLemon/conceal-bridge-ux-sub000/rpc/client"
	rpcserver "github.com/ThrownLemon/conceal-bridge-ux-sub000/rpc/server"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/wallet"
)

var (
	clientIdentifier = "swapclient"
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
	// The app that holds all commands and flags.
	app = utils.NewApp(clientIdentifier, gitCommit, gitDate, "the ccx/wccx bridge swap client command line interface")
)

func initApp() {
	app.Action = swapclient
	app.HideVersion = true // we have a command to print the version
	app.Commands = []*cli.Command{
		configCommand,
		utils.VersionCommand,
	}
	app.Flags = []cli.Flag{
		utils.DataDirFlag,
		utils.ConfigFileFlag,
		utils.GatewayConfigFileFlag,
		utils.RunServerFlag,
		utils.LogFileFlag,
		utils.LogRotationFlag,
		utils.LogMaxAgeFlag,
		utils.VerbosityFlag,
		utils.JSONFormatFlag,
		utils.ColorFormatFlag,
	}
}

func main() {
	// optional environment overrides, absence is not an error
	_ = godotenv.Load()
	initApp()
	if err := app.Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func swapclient(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	if ctx.NArg() > 0 {
		return fmt.Errorf("invalid command: %q", ctx.Args().Get(0))
	}

	params.SetDataDir(utils.GetDataDir(ctx))
	configFile := utils.GetConfigFilePath(ctx)
	config := params.LoadClientConfig(configFile, true)

	params.GatewayConfigFile = ctx.String(utils.GatewayConfigFileFlag.Name)
	params.WatchGatewayConfig()

	rpcclient.InitHTTPClient()
	bridgeClient := newBridgeClient(config)
	walletAdapter := newWalletAdapter(config)
	defer walletAdapter.Close()

	hydrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	walletAdapter.Hydrate(hydrateCtx)
	cancel()

	historyStore := openHistoryStore(config)
	if historyStore != nil {
		defer func() {
			if err := historyStore.Close(); err != nil {
				log.Error("close history db failed", "err", err)
			}
		}()
	}

	swapapi.Init(bridgeClient, walletAdapter, historyStore)

	utils.WatchSignals()
	if ctx.Bool(utils.RunServerFlag.Name) {
		rpcserver.StartAPIServer()
	}

	utils.TopWaitGroup.Wait()
	return nil
}

func newBridgeClient(config *params.ClientConfig) *bridgeapi.Client {
	apiCfg := config.BridgeAPI
	return bridgeapi.NewClient(apiCfg.BaseURL, apiCfg.TimeoutSeconds, apiCfg.MaxRetries)
}

func newWalletAdapter(config *params.ClientConfig) *wallet.Adapter {
	registry := wallet.NewRegistry()
	for connectorID, connectorCfg := range config.Connectors {
		registry.Register(newConnector(connectorID, connectorCfg))
	}
	flags := wallet.NewFileDisconnectStore(params.GetDataDir())
	return wallet.NewAdapter(registry, flags)
}

func newConnector(connectorID string, connectorCfg *params.ConnectorConfig) *wallet.Connector {
	endpoint := connectorCfg.Endpoint
	matches := wallet.MatchesTrustLike
	if strings.EqualFold(connectorID, wallet.ConnectorMetaMask) {
		matches = wallet.MatchesMetaMask
	}
	return &wallet.Connector{
		ID:         connectorID,
		Name:       connectorID,
		InstallURL: connectorCfg.InstallURL,
		Matches:    matches,
		Open: func() (wallet.Provider, error) {
			return wallet.DialWS(endpoint)
		},
	}
}

func openHistoryStore(config *params.ClientConfig) *history.Store {
	historyCfg := config.History
	if historyCfg == nil {
		return nil
	}
	dbPath := historyCfg.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(params.GetDataDir(), "history.db")
	}
	store, err := history.Open(dbPath)
	if err != nil {
		log.Error("open history db failed, history disabled", "path", dbPath, "err", err)
		return nil
	}
	return store
}
