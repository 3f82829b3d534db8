package bundle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHybridizer struct {
	hybridize func(sourceBundle string) (string, error)
}

func (m mockHybridizer) Hybridize(sourceBundle string) (string, error) {
	if m.hybridize != nil {
		return m.hybridize(sourceBundle)
	}

	panic("not implemented")
}

func TestResolve(t *testing.T) {
	hybridizer := mockHybridizer{
		hybridize: func(sourceBundle string) (string, error) {
			return "quay.io/myorg/opendatahub-operator-bundle:hybrid-rhoai-3.3", nil
		},
	}

	tests := []struct {
		name     string
		bundles  []string
		noBuild  bool
		expected []string
	}{
		{
			name: "Last bundle is hybridized",
			bundles: []string{
				"quay.io/org/bundle:rhoai-2.25",
				"quay.io/org/bundle:rhoai-3.2",
				"quay.io/org/bundle:rhoai-3.3",
			},
			expected: []string{
				"quay.io/org/bundle:rhoai-2.25",
				"quay.io/org/bundle:rhoai-3.2",
				"quay.io/myorg/opendatahub-operator-bundle:hybrid-rhoai-3.3",
			},
		},
		{
			name:    "Sole bundle is hybridized",
			bundles: []string{"quay.io/org/bundle:rhoai-3.3"},
			expected: []string{
				"quay.io/myorg/opendatahub-operator-bundle:hybrid-rhoai-3.3",
			},
		},
		{
			name: "No-build passes every bundle through",
			bundles: []string{
				"quay.io/org/bundle:rhoai-2.25",
				"quay.io/org/bundle:rhoai-3.3",
			},
			noBuild: true,
			expected: []string{
				"quay.io/org/bundle:rhoai-2.25",
				"quay.io/org/bundle:rhoai-3.3",
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resolved, err := Resolve(test.bundles, test.noBuild, hybridizer)

			require.NoError(t, err)
			assert.Equal(t, test.expected, resolved)
		})
	}
}

func TestResolveHybridizationFails(t *testing.T) {
	hybridizer := mockHybridizer{
		hybridize: func(sourceBundle string) (string, error) {
			return "", fmt.Errorf("extraction failed")
		},
	}

	_, err := Resolve([]string{"quay.io/org/bundle:rhoai-3.3"}, false, hybridizer)
	assert.EqualError(t, err, "hybridizing bundle quay.io/org/bundle:rhoai-3.3: extraction failed")
}

func TestResolveEmptyList(t *testing.T) {
	_, err := Resolve(nil, false, mockHybridizer{})
	assert.EqualError(t, err, "no bundles to resolve")
}
