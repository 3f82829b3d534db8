package build

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/bundle"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/catalog"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/cleanup"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/cli/cmd"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/config"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/container"
	audit "github.com/opendatahub-io/hybrid-catalog-builder/pkg/log"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/operator"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/runner"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/vcs"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logFilename     = "catalog-build.log"
	checkLogMessage = "Please check the catalog-build.log file for more information."

	componentOperator     = "operator image"
	componentBundles      = "bundle resolution"
	componentCatalog      = "catalog assembly"
	componentVerification = "catalog verification"
)

func Run(_ *cli.Context) error {
	args := &cmd.BuildArgs

	cfg := &config.RunConfig{
		Bundles:       args.Bundles.Value(),
		Registry:      args.Registry,
		Branch:        args.Branch,
		OperatorImage: args.OperatorImage,
		CatalogTag:    args.CatalogTag,
		NoBuild:       args.NoBuild,
		ImageBuilder:  args.ImageBuilder,
		DryRun:        args.DryRun,
	}

	if err := cfg.Validate(); err != nil {
		audit.Auditf("Invalid arguments: %s", err)
		return err
	}

	catalogTag, err := cfg.DeriveCatalogTag()
	if err != nil {
		audit.Auditf("Invalid arguments: %s", err)
		return err
	}

	// This needs to occur as early as possible so that the subsequent calls can use the log
	setupLogging()

	if err = checkPrerequisites(cfg); err != nil {
		audit.Auditf("Missing prerequisite: %s", err)
		return err
	}

	workDir, err := os.MkdirTemp("", "hybrid-catalog-")
	if err != nil {
		audit.AuditInfo("The working directory could not be set up.")
		return err
	}

	cleaner := cleanup.New()
	cleaner.Add("remove work dir", func() error {
		return os.RemoveAll(workDir)
	})
	cleaner.TrapSignals()
	defer cleaner.Run()

	run := selectRunner(cfg)
	tool := container.NewTool(cfg.ImageBuilder, run)
	git := vcs.New(run)

	checkRegistryLogin(tool, cfg)

	operatorImage, err := operator.NewProvider(cfg, git, tool, run, cleaner).Resolve()
	if err != nil {
		failComponent(componentOperator, err)
		return err
	}
	if cfg.NoBuild {
		audit.AuditComponentSkipped(componentOperator)
	} else {
		audit.AuditComponentSuccessful(componentOperator)
	}

	hybridizer := bundle.NewHybridizer(tool, workDir, cfg.Registry, operatorImage, cfg.DryRun)
	resolved, err := bundle.Resolve(cfg.Bundles, cfg.NoBuild, hybridizer)
	if err != nil {
		failComponent(componentBundles, err)
		return err
	}
	audit.AuditComponentSuccessful(componentBundles)

	renderer := catalog.NewRenderer(run)
	assembler := catalog.NewAssembler(renderer, tool, workDir, cfg.Registry, catalogTag, cfg.DryRun)
	catalogImage, err := assembler.Assemble(resolved)
	if err != nil {
		failComponent(componentCatalog, err)
		return err
	}
	audit.AuditComponentSuccessful(componentCatalog)

	if cfg.DryRun {
		audit.AuditComponentSkipped(componentVerification)
	} else {
		findings := catalog.NewVerifier(renderer).Verify(catalogImage, len(resolved))
		for _, finding := range findings {
			audit.AuditWarn(finding)
		}
		audit.AuditComponentSuccessful(componentVerification)
	}

	printSummary(resolved, catalogImage)

	return nil
}

// Configures the global logger.
func setupLogging() {
	logConfig := zap.NewProductionConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	logConfig.Encoding = "console"
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logConfig.OutputPaths = []string{logFilename}

	logger := zap.Must(logConfig.Build())

	// Set our configured logger to be accessed globally by zap.L()
	zap.ReplaceGlobals(logger)
}

// checkPrerequisites confirms every external tool the run will invoke is
// installed, before anything is mutated.
func checkPrerequisites(cfg *config.RunConfig) error {
	tools := []string{cfg.ImageBuilder, "opm"}
	if !cfg.NoBuild && cfg.OperatorImage == "" {
		tools = append(tools, "git", "make")
	}

	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("required tool %q is not installed: %w", tool, err)
		}
	}

	return nil
}

func selectRunner(cfg *config.RunConfig) runner.Runner {
	if cfg.DryRun {
		audit.Audit("Dry run mode: external actions will be announced, not executed.")
		return runner.NewDryRunner(logFilename)
	}

	return runner.NewExecRunner(logFilename)
}

func checkRegistryLogin(tool *container.Tool, cfg *config.RunConfig) {
	user, err := tool.Login(cfg.RegistryHost())
	if err != nil {
		audit.AuditWarnf("Not logged into registry %s; pushes may fail: %s", cfg.RegistryHost(), err)
		return
	}

	zap.S().Infof("Logged into registry %s as %s", cfg.RegistryHost(), user)
}

func failComponent(component string, err error) {
	audit.AuditComponentFailed(component)
	cmd.LogError(&cmd.Error{
		UserMessage: fmt.Sprintf("Building the catalog failed during %s.", component),
		LogMessage:  err.Error(),
	}, checkLogMessage)
}

func printSummary(resolved []string, catalogImage string) {
	audit.Audit("")
	audit.Audit("Catalog build complete!")
	audit.Audit("Upgrade chain images (install order):")
	for _, image := range resolved {
		audit.Auditf("  %s", image)
	}
	audit.Auditf("Catalog image: %s", catalogImage)
	audit.Auditf("Subscribe to package %q on channel %q to walk the chain.", catalog.PackageName, catalog.DefaultChannel)
}
