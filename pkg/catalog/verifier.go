package catalog

import (
	"fmt"
)

// Verifier re-renders a pushed catalog image and compares it against what the
// assembler produced. Findings are informational; the catalog was already
// validated and pushed by the time verification runs.
type Verifier struct {
	renderer renderer
}

func NewVerifier(renderer renderer) *Verifier {
	return &Verifier{renderer: renderer}
}

func (v *Verifier) Verify(catalogImage string, expectedBundles int) []string {
	rendered, err := v.renderer.Render(catalogImage)
	if err != nil {
		return []string{fmt.Sprintf("rendering pushed catalog %s failed: %s", catalogImage, err)}
	}

	var findings []string

	switch {
	case len(rendered.Packages) == 0:
		findings = append(findings, "pushed catalog carries no olm.package document")
	case rendered.Packages[0].Name != PackageName:
		findings = append(findings, fmt.Sprintf("pushed catalog declares package %q, expected %q",
			rendered.Packages[0].Name, PackageName))
	}

	if len(rendered.Bundles) != expectedBundles {
		findings = append(findings, fmt.Sprintf("pushed catalog carries %d bundle documents, expected %d",
			len(rendered.Bundles), expectedBundles))
	}

	return findings
}
