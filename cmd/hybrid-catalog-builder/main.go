package main

import (
	"fmt"
	"os"

	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/cli/build"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/cli/cmd"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cmd.NewApp()
	app.Commands = []*cli.Command{
		cmd.NewBuildCommand(build.Run),
		cmd.NewVersionCommand(),
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
