// Package utils provides common sub commands and command flags.
package utils

import (
	"fmt"
	"os"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/params"
	"github.com/urfave/cli/v2"
)

// NewApp creates an app with sane defaults.
func NewApp(identifier, gitCommit, gitDate, usage string) *cli.App {
	app := cli.NewApp()
	app.Name = identifier
	app.Authors = []*cli.Author{{Name: identifier}}
	app.Version = params.VersionWithMeta
	if gitCommit != "" {
		app.Version += "-" + gitCommit[:8]
	}
	if gitDate != "" {
		app.Version += "-" + gitDate
	}
	app.Usage = usage
	return app
}

// VersionCommand version sub command
var VersionCommand = &cli.Command{
	Action:    version,
	Name:      "version",
	Usage:     "Print version numbers",
	ArgsUsage: " ",
	Description: `
The output of this command is supposed to be machine-readable.
`,
}

func version(ctx *cli.Context) error {
	fmt.Println(ctx.App.Name)
	fmt.Println("Version:", ctx.App.Version)
	fmt.Println("OS:", os.Getenv("GOOS"))
	return nil
}
