package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/config"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/log"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/runner"
	"github.com/operator-framework/operator-registry/alpha/declcfg"
)

const renderTool = "opm"

// Renderer turns an image reference into its file-based catalog documents by
// delegating to `opm render` and decoding the resulting JSON stream.
type Renderer struct {
	run runner.Runner
}

func NewRenderer(run runner.Runner) *Renderer {
	return &Renderer{run: run}
}

func (r *Renderer) Render(image string) (*declcfg.DeclarativeConfig, error) {
	if r.run.DryRun() {
		return r.placeholder(image)
	}

	out, err := r.run.Output(renderCommand(image))
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", image, err)
	}

	cfg, err := readJSONStream(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("parsing rendered output of %s: %w", image, err)
	}

	return cfg, nil
}

// placeholder synthesizes the single bundle document a render would yield so
// a dry run can still print the full upgrade chain. Images built earlier in a
// dry run were never pushed, so a real render cannot succeed.
func (r *Renderer) placeholder(image string) (*declcfg.DeclarativeConfig, error) {
	tag, err := config.ImageTag(image)
	if err != nil {
		return nil, fmt.Errorf("extracting tag from %q: %w", image, err)
	}

	name := fmt.Sprintf("%s.%s", PackageName, tag)
	log.AuditInfof("Dry run: would render %s (assuming bundle %s)", image, name)

	return &declcfg.DeclarativeConfig{
		Bundles: []declcfg.Bundle{
			{
				Schema:  declcfg.SchemaBundle,
				Name:    name,
				Package: PackageName,
				Image:   image,
			},
		},
	}, nil
}

func renderCommand(image string) *exec.Cmd {
	return exec.Command(renderTool, "render", "-o", "json", image)
}

// readJSONStream decodes a stream of declarative config documents, sorting
// them into the typed collections by their schema discriminator.
func readJSONStream(r io.Reader) (*declcfg.DeclarativeConfig, error) {
	cfg := &declcfg.DeclarativeConfig{}

	decoder := json.NewDecoder(r)
	for {
		var doc declcfg.Meta
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return cfg, nil
			}
			return nil, fmt.Errorf("decoding document: %w", err)
		}

		switch doc.Schema {
		case declcfg.SchemaPackage:
			var p declcfg.Package
			if err := json.Unmarshal(doc.Blob, &p); err != nil {
				return nil, fmt.Errorf("decoding package document %s: %w", doc.Name, err)
			}
			cfg.Packages = append(cfg.Packages, p)
		case declcfg.SchemaChannel:
			var c declcfg.Channel
			if err := json.Unmarshal(doc.Blob, &c); err != nil {
				return nil, fmt.Errorf("decoding channel document %s: %w", doc.Name, err)
			}
			cfg.Channels = append(cfg.Channels, c)
		case declcfg.SchemaBundle:
			var b declcfg.Bundle
			if err := json.Unmarshal(doc.Blob, &b); err != nil {
				return nil, fmt.Errorf("decoding bundle document %s: %w", doc.Name, err)
			}
			cfg.Bundles = append(cfg.Bundles, b)
		default:
			cfg.Others = append(cfg.Others, doc)
		}
	}
}
