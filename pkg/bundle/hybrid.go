package bundle

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/catalog"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/config"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/csv"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/fileio"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/log"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/template"
	"github.com/otiai10/copy"
	"go.uber.org/zap"
)

const (
	// Repository is the image repository hybrid bundles are pushed to.
	Repository = "opendatahub-operator-bundle"

	hybridTagPrefix = "hybrid-"
	dockerfileName  = "Dockerfile"
	manifestsDir    = "manifests"
	metadataDir     = "metadata"
)

//go:embed templates/Dockerfile.tpl
var dockerfileTemplate string

type ContainerTool interface {
	Create(image string) (string, error)
	CopyOut(container, src, dest string) error
	Remove(container string) error
	Build(dockerfile, tag, context string) error
	Push(image string) error
}

// Hybridizer repackages a released bundle with a custom operator image: the
// bundle's manifests and metadata are extracted, the CSV's operator image
// references are patched, and the result is pushed as a new bundle image
// under a tag derived from the source bundle's tag.
type Hybridizer struct {
	tool          ContainerTool
	workDir       string
	registry      string
	operatorImage string
	dryRun        bool
}

func NewHybridizer(tool ContainerTool, workDir, registry, operatorImage string, dryRun bool) *Hybridizer {
	return &Hybridizer{
		tool:          tool,
		workDir:       workDir,
		registry:      registry,
		operatorImage: operatorImage,
		dryRun:        dryRun,
	}
}

func (h *Hybridizer) Hybridize(sourceBundle string) (string, error) {
	sourceTag, err := config.ImageTag(sourceBundle)
	if err != nil {
		return "", fmt.Errorf("extracting tag from %q: %w", sourceBundle, err)
	}

	hybridImage := fmt.Sprintf("%s/%s:%s%s", h.registry, Repository, hybridTagPrefix, sourceTag)

	if h.dryRun {
		log.AuditInfof("Dry run: would hybridize %s with operator image %s into %s",
			sourceBundle, h.operatorImage, hybridImage)
		return hybridImage, nil
	}

	extractDir := filepath.Join(h.workDir, "bundle-"+sourceTag)
	if err = os.MkdirAll(extractDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("creating extraction directory: %w", err)
	}

	if err = h.extract(sourceBundle, extractDir); err != nil {
		return "", fmt.Errorf("extracting bundle content from %s: %w", sourceBundle, err)
	}

	if err = h.patchCSV(filepath.Join(extractDir, manifestsDir)); err != nil {
		return "", err
	}

	contextDir, err := h.prepareBuildContext(extractDir, sourceTag)
	if err != nil {
		return "", fmt.Errorf("preparing bundle build context: %w", err)
	}

	if err = h.tool.Build(filepath.Join(contextDir, dockerfileName), hybridImage, contextDir); err != nil {
		return "", err
	}

	if err = h.tool.Push(hybridImage); err != nil {
		return "", err
	}

	log.AuditInfof("Hybrid bundle image pushed: %s", hybridImage)

	return hybridImage, nil
}

// extract copies /manifests and /metadata out of a non-running container
// materialized from the bundle image. The container is removed regardless of
// the copy outcome.
func (h *Hybridizer) extract(image, dest string) error {
	container, err := h.tool.Create(image)
	if err != nil {
		return err
	}
	defer func() {
		if removeErr := h.tool.Remove(container); removeErr != nil {
			zap.S().Warnf("Removing extraction container failed: %s", removeErr)
		}
	}()

	for _, path := range []string{"/" + manifestsDir, "/" + metadataDir} {
		if err = h.tool.CopyOut(container, path, dest); err != nil {
			return err
		}
	}

	return nil
}

func (h *Hybridizer) patchCSV(manifests string) error {
	csvPath, err := csv.Locate(manifests)
	if err != nil {
		return err
	}

	before, err := csv.CountRelatedImages(csvPath)
	if err != nil {
		return fmt.Errorf("counting related images before patch: %w", err)
	}
	zap.S().Infof("CSV %s carries %d RELATED_IMAGE entries", filepath.Base(csvPath), before)

	if err = csv.PatchOperatorImage(csvPath, h.operatorImage); err != nil {
		return fmt.Errorf("patching cluster service version: %w", err)
	}

	if err = csv.VerifyOperatorImage(csvPath, h.operatorImage); err != nil {
		return fmt.Errorf("verifying patched cluster service version: %w", err)
	}

	after, err := csv.CountRelatedImages(csvPath)
	if err != nil {
		return fmt.Errorf("counting related images after patch: %w", err)
	}
	if before != after {
		log.AuditWarnf("RELATED_IMAGE entry count changed from %d to %d during patching", before, after)
	}

	return nil
}

// prepareBuildContext stages the extracted directories next to a generated
// Dockerfile so the image build sees nothing but the bundle content.
func (h *Hybridizer) prepareBuildContext(extractDir, sourceTag string) (string, error) {
	contextDir := filepath.Join(h.workDir, "bundle-context-"+sourceTag)
	if err := os.MkdirAll(contextDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("creating build context dir %s: %w", contextDir, err)
	}

	for _, dir := range []string{manifestsDir, metadataDir} {
		if err := copy.Copy(filepath.Join(extractDir, dir), filepath.Join(contextDir, dir)); err != nil {
			return "", fmt.Errorf("staging %s: %w", dir, err)
		}
	}

	dockerfile, err := template.Parse(dockerfileName, dockerfileTemplate, struct {
		Package        string
		Channels       []string
		DefaultChannel string
	}{
		Package:        catalog.PackageName,
		Channels:       []string{catalog.DefaultChannel},
		DefaultChannel: catalog.DefaultChannel,
	})
	if err != nil {
		return "", fmt.Errorf("parsing bundle dockerfile template: %w", err)
	}

	if err = fileio.WriteFile(filepath.Join(contextDir, dockerfileName), dockerfile, fileio.NonExecutablePerms); err != nil {
		return "", err
	}

	return contextDir, nil
}
