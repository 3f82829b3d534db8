package config

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"
)

const (
	// DefaultImageBuilder is used when --image-builder is not provided.
	DefaultImageBuilder = "podman"

	hybridTagSuffix = "hybrid"
)

// RunConfig is the validated, immutable configuration for a single catalog build.
// The order of Bundles defines the upgrade chain and is never reordered.
type RunConfig struct {
	Bundles       []string
	Registry      string
	Branch        string
	OperatorImage string
	CatalogTag    string
	NoBuild       bool
	ImageBuilder  string
	DryRun        bool
}

func (c *RunConfig) Validate() error {
	if len(c.Bundles) == 0 {
		return fmt.Errorf("at least one --bundle reference is required")
	}

	if c.Registry == "" {
		return fmt.Errorf("--registry is required")
	}

	if c.NoBuild && c.OperatorImage != "" {
		return fmt.Errorf("--operator-image and --no-build are mutually exclusive")
	}

	if c.ImageBuilder == "" {
		return fmt.Errorf("--image-builder must not be empty")
	}

	for _, bundle := range c.Bundles {
		if _, err := ImageTag(bundle); err != nil {
			return fmt.Errorf("invalid bundle reference %q: %w", bundle, err)
		}
	}

	return nil
}

// DeriveCatalogTag returns the catalog image tag, computing it from the bundle
// tags when --catalog-tag was not provided: the tags are joined with '-' and a
// 'hybrid' suffix is appended unless --no-build is set.
func (c *RunConfig) DeriveCatalogTag() (string, error) {
	if c.CatalogTag != "" {
		return c.CatalogTag, nil
	}

	tags := make([]string, 0, len(c.Bundles))
	for _, bundle := range c.Bundles {
		tag, err := ImageTag(bundle)
		if err != nil {
			return "", fmt.Errorf("extracting tag from %q: %w", bundle, err)
		}
		tags = append(tags, tag)
	}

	if !c.NoBuild {
		tags = append(tags, hybridTagSuffix)
	}

	return strings.Join(tags, "-"), nil
}

// RegistryHost returns the host component of the push registry,
// e.g. "quay.io" for "quay.io/myorg".
func (c *RunConfig) RegistryHost() string {
	host, _, _ := strings.Cut(c.Registry, "/")
	return host
}

// ImageTag extracts the tag of a container image reference.
// References without an explicit tag are rejected.
func ImageTag(ref string) (string, error) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", fmt.Errorf("parsing image reference: %w", err)
	}

	tagged, ok := named.(reference.Tagged)
	if !ok {
		return "", fmt.Errorf("image reference %q carries no tag", ref)
	}

	return tagged.Tag(), nil
}
