package utils

import (
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/common"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
	"github.com/urfave/cli/v2"
)

// common flags
var (
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the databases and keystore",
		Value: "datadir",
	}
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Specify config file",
		Value: "config.toml",
	}
	GatewayConfigFileFlag = &cli.StringFlag{
		Name:  "gatewayconfig",
		Usage: "Specify gateway config file (watched for hot reload)",
	}
	RunServerFlag = &cli.BoolFlag{
		Name:  "runserver",
		Usage: "Run local status api server",
	}
	LogFileFlag = &cli.StringFlag{
		Name:  "log",
		Usage: "Specify log file, support rotate",
	}
	LogRotationFlag = &cli.Uint64Flag{
		Name:  "rotate",
		Usage: "Log rotation time (hours)",
		Value: 24,
	}
	LogMaxAgeFlag = &cli.Uint64Flag{
		Name:  "maxage",
		Usage: "Log max age (hours)",
		Value: 720,
	}
	VerbosityFlag = &cli.Uint64Flag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=panic, 1=fatal, 2=error, 3=warn, 4=info, 5=debug, 6=trace",
		Value: 4,
	}
	JSONFormatFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Output log in json format",
	}
	ColorFormatFlag = &cli.BoolFlag{
		Name:  "color",
		Usage: "Output log in color text format",
		Value: true,
	}
)

// SetLogger set logger from cli flags
func SetLogger(ctx *cli.Context) {
	logLevel := uint32(ctx.Uint64(VerbosityFlag.Name))
	jsonFormat := ctx.Bool(JSONFormatFlag.Name)
	colorFormat := ctx.Bool(ColorFormatFlag.Name)
	log.SetLogger(logLevel, jsonFormat, colorFormat)

	logFile := ctx.String(LogFileFlag.Name)
	if logFile != "" {
		logRotation := ctx.Uint64(LogRotationFlag.Name)
		logMaxAge := ctx.Uint64(LogMaxAgeFlag.Name)
		log.SetLogFile(logFile, logRotation, logMaxAge)
	}
}

// GetDataDir specified by `--datadir`
func GetDataDir(ctx *cli.Context) string {
	return ctx.String(DataDirFlag.Name)
}

// GetConfigFilePath specified by `--config`
func GetConfigFilePath(ctx *cli.Context) string {
	configFile := ctx.String(ConfigFileFlag.Name)
	if configFile != "" {
		return configFile
	}
	dir, err := common.CurrentDir()
	if err != nil {
		log.Fatalf("get current dir failed. %v", err)
	}
	return common.AbsolutePath(dir, "config.toml")
}
