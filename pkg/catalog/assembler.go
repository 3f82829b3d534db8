package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/fileio"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/log"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/template"
	"github.com/operator-framework/operator-registry/alpha/declcfg"
	"go.uber.org/zap"
)

const (
	// PackageName is the operator package every assembled catalog declares.
	PackageName = "rhods-operator"
	// DefaultChannel is the single channel carrying the upgrade chain.
	DefaultChannel = "fast"
	// Repository is the image repository catalog images are pushed to.
	Repository = "opendatahub-operator-catalog"

	catalogDirName     = "catalog"
	catalogFileName    = "catalog.yaml"
	dockerfileName     = "catalog.Dockerfile"
	catalogServerImage = "quay.io/operator-framework/opm:latest"
)

//go:embed templates/catalog.Dockerfile.tpl
var dockerfileTemplate string

type renderer interface {
	Render(image string) (*declcfg.DeclarativeConfig, error)
}

type imageBuilder interface {
	Build(dockerfile, tag, context string) error
	Push(image string) error
}

// Assembler renders every resolved bundle image, composes the file-based
// catalog declaring a strictly linear upgrade chain in the given order,
// validates it, and builds and pushes the catalog image.
type Assembler struct {
	renderer renderer
	tool     imageBuilder
	workDir  string
	registry string
	tag      string
	dryRun   bool
}

func NewAssembler(renderer renderer, tool imageBuilder, workDir, registry, tag string, dryRun bool) *Assembler {
	return &Assembler{
		renderer: renderer,
		tool:     tool,
		workDir:  workDir,
		registry: registry,
		tag:      tag,
		dryRun:   dryRun,
	}
}

func (a *Assembler) Assemble(images []string) (string, error) {
	catalogImage := fmt.Sprintf("%s/%s:%s", a.registry, Repository, a.tag)

	var (
		bundles []declcfg.Bundle
		names   []string
	)

	for _, image := range images {
		rendered, err := a.renderer.Render(image)
		if err != nil {
			return "", err
		}

		bundle, err := bundleDocument(rendered, image)
		if err != nil {
			return "", err
		}

		bundles = append(bundles, *bundle)
		names = append(names, bundle.Name)
	}

	cfg := declcfg.DeclarativeConfig{
		Packages: []declcfg.Package{
			{
				Schema:         declcfg.SchemaPackage,
				Name:           PackageName,
				DefaultChannel: DefaultChannel,
			},
		},
		Channels: []declcfg.Channel{BuildChannel(names)},
		Bundles:  bundles,
	}

	if a.dryRun {
		log.AuditInfof("Dry run: would build and push catalog image %s with upgrade chain: %s",
			catalogImage, strings.Join(names, " -> "))
		return catalogImage, nil
	}

	catalogDir, err := a.writeCatalog(cfg)
	if err != nil {
		return "", err
	}

	if err = validateCatalog(catalogDir); err != nil {
		a.dumpCatalog(catalogDir)
		return "", fmt.Errorf("validating assembled catalog: %w", err)
	}

	dockerfile, err := a.writeDockerfile()
	if err != nil {
		return "", err
	}

	if err = a.tool.Build(dockerfile, catalogImage, a.workDir); err != nil {
		return "", err
	}

	if err = a.tool.Push(catalogImage); err != nil {
		return "", err
	}

	log.AuditInfof("Catalog image pushed: %s", catalogImage)

	return catalogImage, nil
}

// BuildChannel returns the channel document encoding a linear upgrade chain:
// every entry after the first replaces its immediate predecessor. The order
// of names is preserved.
func BuildChannel(names []string) declcfg.Channel {
	entries := make([]declcfg.ChannelEntry, 0, len(names))
	for i, name := range names {
		entry := declcfg.ChannelEntry{Name: name}
		if i > 0 {
			entry.Replaces = names[i-1]
		}
		entries = append(entries, entry)
	}

	return declcfg.Channel{
		Schema:  declcfg.SchemaChannel,
		Name:    DefaultChannel,
		Package: PackageName,
		Entries: entries,
	}
}

func bundleDocument(cfg *declcfg.DeclarativeConfig, image string) (*declcfg.Bundle, error) {
	if len(cfg.Bundles) == 0 {
		return nil, fmt.Errorf("rendering %s produced no olm.bundle document", image)
	}

	bundle := cfg.Bundles[0]
	if bundle.Name == "" {
		return nil, fmt.Errorf("bundle document rendered from %s carries no name", image)
	}

	return &bundle, nil
}

func (a *Assembler) writeCatalog(cfg declcfg.DeclarativeConfig) (string, error) {
	catalogDir := filepath.Join(a.workDir, catalogDirName)
	if err := os.MkdirAll(catalogDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("creating catalog directory: %w", err)
	}

	file, err := os.Create(filepath.Join(catalogDir, catalogFileName))
	if err != nil {
		return "", fmt.Errorf("creating catalog file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err = declcfg.WriteYAML(cfg, file); err != nil {
		return "", fmt.Errorf("writing catalog: %w", err)
	}

	return catalogDir, nil
}

// validateCatalog runs the same checks `opm validate` does: load the
// directory as declarative config and convert it to the internal model.
func validateCatalog(dir string) error {
	cfg, err := declcfg.LoadFS(context.Background(), os.DirFS(dir))
	if err != nil {
		return err
	}

	if _, err = declcfg.ConvertToModel(*cfg); err != nil {
		return err
	}

	return nil
}

// dumpCatalog mirrors the rejected catalog content into the run log so it
// survives the cleanup of the work directory.
func (a *Assembler) dumpCatalog(catalogDir string) {
	data, err := os.ReadFile(filepath.Join(catalogDir, catalogFileName))
	if err != nil {
		zap.S().Warnf("Reading rejected catalog for diagnosis failed: %s", err)
		return
	}

	zap.S().Errorf("Assembled catalog content:\n%s", data)
}

func (a *Assembler) writeDockerfile() (string, error) {
	contents, err := template.Parse(dockerfileName, dockerfileTemplate, struct {
		BaseImage string
	}{
		BaseImage: catalogServerImage,
	})
	if err != nil {
		return "", fmt.Errorf("parsing catalog dockerfile template: %w", err)
	}

	path := filepath.Join(a.workDir, dockerfileName)
	if err = fileio.WriteFile(path, contents, fileio.NonExecutablePerms); err != nil {
		return "", err
	}

	return path, nil
}
