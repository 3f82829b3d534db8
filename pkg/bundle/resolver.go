package bundle

import (
	"fmt"
)

type hybridizer interface {
	Hybridize(sourceBundle string) (string, error)
}

// Resolve maps the ordered bundle reference list onto the list of images the
// catalog will be assembled from. All bundles except the last pass through
// unchanged; the last one is replaced by its hybrid unless no-build is set.
// A single-entry list hybridizes that sole bundle.
func Resolve(bundles []string, noBuild bool, h hybridizer) ([]string, error) {
	if len(bundles) == 0 {
		return nil, fmt.Errorf("no bundles to resolve")
	}

	resolved := make([]string, 0, len(bundles))
	resolved = append(resolved, bundles[:len(bundles)-1]...)

	last := bundles[len(bundles)-1]
	if noBuild {
		return append(resolved, last), nil
	}

	hybrid, err := h.Hybridize(last)
	if err != nil {
		return nil, fmt.Errorf("hybridizing bundle %s: %w", last, err)
	}

	return append(resolved, hybrid), nil
}
