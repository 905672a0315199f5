package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/cmd/utils"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/params"
)

var configCommand = &cli.Command{
	Name:  "config",
	Usage: "inspect client configuration",
	Description: `
check and show the swap client configuration
`,
	Subcommands: []*cli.Command{
		{
			Name:   "check",
			Usage:  "load and verify the config file",
			Action: checkConfig,
			Flags: []cli.Flag{
				utils.ConfigFileFlag,
			},
		},
		{
			Name:   "show",
			Usage:  "print the loaded config as json",
			Action: showConfig,
			Flags: []cli.Flag{
				utils.ConfigFileFlag,
			},
		},
		{
			Name:   "networks",
			Usage:  "print the enabled networks and their chain descriptors",
			Action: showNetworks,
			Flags: []cli.Flag{
				utils.ConfigFileFlag,
			},
		},
	},
}

func checkConfig(ctx *cli.Context) error {
	configFile := utils.GetConfigFilePath(ctx)
	params.LoadClientConfig(configFile, true)
	log.Info("check config success", "configFile", configFile)
	return nil
}

func showConfig(ctx *cli.Context) error {
	configFile := utils.GetConfigFilePath(ctx)
	config := params.LoadClientConfig(configFile, false)
	jsonData, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonData))
	return nil
}

func showNetworks(ctx *cli.Context) error {
	configFile := utils.GetConfigFilePath(ctx)
	params.LoadClientConfig(configFile, true)
	for _, key := range params.GetEnabledNetworks() {
		network, err := params.GetNetwork(key)
		if err != nil {
			return err
		}
		jsonData, err := json.Marshal(network)
		if err != nil {
			return err
		}
		fmt.Println(string(jsonData))
	}
	return nil
}
