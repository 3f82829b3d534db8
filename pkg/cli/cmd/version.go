package cmd

import (
	"fmt"

	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/version"
	"github.com/urfave/cli/v2"
)

func NewVersionCommand() *cli.Command {
	return &cli.Command{
		Name:      "version",
		Usage:     "Print the version of the application",
		UsageText: fmt.Sprintf("%s version", appName),
		Action: func(_ *cli.Context) error {
			fmt.Println(version.GetVersion())
			return nil
		},
	}
}
