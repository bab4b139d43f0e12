package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"
)

var Version = "dev"

func main() {
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}

	app := &cli.App{
		Name:    "product-matcher",
		Usage:   "Match free-text product names against a reference dictionary",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "settings",
				Aliases: []string{"s"},
				Usage:   "YAML file with weights, threshold and word lists",
				EnvVars: []string{"SETTINGS_FILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug|info|warn|error",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			runCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
