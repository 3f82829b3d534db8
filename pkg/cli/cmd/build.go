package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

type BuildFlags struct {
	Bundles       cli.StringSlice
	Registry      string
	Branch        string
	OperatorImage string
	CatalogTag    string
	NoBuild       bool
	ImageBuilder  string
	DryRun        bool
}

var BuildArgs BuildFlags

func NewBuildCommand(action func(*cli.Context) error) *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Assemble and push an operator upgrade-test catalog",
		UsageText: fmt.Sprintf("%s build [OPTIONS]", appName),
		Action:    action,
		Flags: []cli.Flag{
			BundleFlag,
			RegistryFlag,
			BranchFlag,
			OperatorImageFlag,
			CatalogTagFlag,
			NoBuildFlag,
			ImageBuilderFlag,
			DryRunFlag,
		},
	}
}
