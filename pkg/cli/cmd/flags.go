package cmd

import (
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/config"
	"github.com/urfave/cli/v2"
)

var (
	BundleFlag = &cli.StringSliceFlag{
		Name:        "bundle",
		Usage:       "Bundle image reference; repeatable, the order defines the upgrade chain",
		Required:    true,
		Destination: &BuildArgs.Bundles,
	}
	RegistryFlag = &cli.StringFlag{
		Name:        "registry",
		Usage:       "Registry to push the built images to, e.g. quay.io/myorg",
		Required:    true,
		Destination: &BuildArgs.Registry,
	}
	BranchFlag = &cli.StringFlag{
		Name:        "branch",
		Usage:       "Branch to build the operator image from (default: the current branch)",
		Destination: &BuildArgs.Branch,
	}
	OperatorImageFlag = &cli.StringFlag{
		Name:        "operator-image",
		Usage:       "Pre-built operator image to inject instead of building one",
		Destination: &BuildArgs.OperatorImage,
	}
	CatalogTagFlag = &cli.StringFlag{
		Name:        "catalog-tag",
		Usage:       "Tag for the catalog image (default: derived from the bundle tags)",
		Destination: &BuildArgs.CatalogTag,
	}
	NoBuildFlag = &cli.BoolFlag{
		Name:        "no-build",
		Usage:       "Assemble the catalog from the bundles as-is, without hybridization",
		Destination: &BuildArgs.NoBuild,
	}
	ImageBuilderFlag = &cli.StringFlag{
		Name:        "image-builder",
		Usage:       "Image builder CLI to use (docker-compatible)",
		Value:       config.DefaultImageBuilder,
		Destination: &BuildArgs.ImageBuilder,
	}
	DryRunFlag = &cli.BoolFlag{
		Name:        "dry-run",
		Usage:       "Announce external actions instead of executing them",
		Destination: &BuildArgs.DryRun,
	}
)
