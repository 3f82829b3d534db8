package csv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const csvFixture = `apiVersion: operators.coreos.com/v1alpha1
kind: ClusterServiceVersion
metadata:
  annotations:
    alm-examples: '[]'
    containerImage: quay.io/opendatahub/opendatahub-operator:v2.25.2
    repository: https://github.com/opendatahub-io/opendatahub-operator
  name: rhods-operator.2.25.2
spec:
  displayName: Red Hat OpenShift AI
  install:
    spec:
      deployments:
        - name: opendatahub-operator-controller-manager
          spec:
            replicas: 1
            template:
              spec:
                containers:
                  - name: manager
                    image: quay.io/opendatahub/opendatahub-operator:v2.25.2
                    env:
                      - name: RELATED_IMAGE_ODH_DASHBOARD_IMAGE
                        value: quay.io/opendatahub/odh-dashboard@sha256:1111111111111111
                      - name: RELATED_IMAGE_ODH_NOTEBOOK_CONTROLLER_IMAGE
                        value: quay.io/opendatahub/notebook-controller@sha256:2222222222222222
                      - name: OPERATOR_NAME
                        value: opendatahub-operator
                  - name: kube-rbac-proxy
                    image: quay.io/brancz/kube-rbac-proxy:v0.18.0
    strategy: deployment
`

func writeFixture(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "rhods-operator.clusterserviceversion.yaml")
	require.NoError(t, os.WriteFile(path, []byte(csvFixture), 0o644))

	return path
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()

	_, err := Locate(dir)
	assert.EqualError(t, err, "expected exactly one cluster service version under "+dir+", found 0")

	csvPath := filepath.Join(dir, "rhods-operator.clusterserviceversion.yaml")
	require.NoError(t, os.WriteFile(csvPath, []byte(csvFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rhods-operator.crd.yaml"), []byte("kind: CustomResourceDefinition"), 0o644))

	located, err := Locate(dir)
	require.NoError(t, err)
	assert.Equal(t, csvPath, located)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "second.clusterserviceversion.yaml"), []byte(csvFixture), 0o644))

	_, err = Locate(dir)
	assert.EqualError(t, err, "expected exactly one cluster service version under "+dir+", found 2")
}

func TestPatchOperatorImage(t *testing.T) {
	path := writeFixture(t)
	const operatorImage = "quay.io/myorg/opendatahub-operator:feature-branch"

	require.NoError(t, PatchOperatorImage(path, operatorImage))
	assert.NoError(t, VerifyOperatorImage(path, operatorImage))

	patched := parseFile(t, path)

	container := firstContainerMap(t, patched)
	assert.Equal(t, operatorImage, container["image"])

	metadata := patched["metadata"].(map[string]any)
	annotations := metadata["annotations"].(map[string]any)
	assert.Equal(t, operatorImage, annotations["containerImage"])

	// everything else survives untouched
	assert.Equal(t, "[]", annotations["alm-examples"])
	assert.Equal(t, "https://github.com/opendatahub-io/opendatahub-operator", annotations["repository"])

	env := container["env"].([]any)
	require.Len(t, env, 3)
	assert.Equal(t, map[string]any{
		"name":  "RELATED_IMAGE_ODH_DASHBOARD_IMAGE",
		"value": "quay.io/opendatahub/odh-dashboard@sha256:1111111111111111",
	}, env[0])
	assert.Equal(t, map[string]any{
		"name":  "RELATED_IMAGE_ODH_NOTEBOOK_CONTROLLER_IMAGE",
		"value": "quay.io/opendatahub/notebook-controller@sha256:2222222222222222",
	}, env[1])
	assert.Equal(t, map[string]any{
		"name":  "OPERATOR_NAME",
		"value": "opendatahub-operator",
	}, env[2])

	// second container is not touched
	original := parseString(t, csvFixture)
	assert.Equal(t, secondContainerMap(t, original), secondContainerMap(t, patched))
}

func TestPatchOperatorImageIsIdempotent(t *testing.T) {
	path := writeFixture(t)
	const operatorImage = "quay.io/myorg/opendatahub-operator:feature-branch"

	require.NoError(t, PatchOperatorImage(path, operatorImage))
	require.NoError(t, PatchOperatorImage(path, operatorImage))

	assert.NoError(t, VerifyOperatorImage(path, operatorImage))
}

func TestVerifyOperatorImageMismatch(t *testing.T) {
	path := writeFixture(t)

	err := VerifyOperatorImage(path, "quay.io/myorg/opendatahub-operator:feature-branch")
	assert.EqualError(t, err, "patched deployment image is \"quay.io/opendatahub/opendatahub-operator:v2.25.2\", "+
		"expected \"quay.io/myorg/opendatahub-operator:feature-branch\"")
}

func TestPatchOperatorImageMissingDeployment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.clusterserviceversion.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metadata:\n  annotations: {}\nspec:\n  install: {}\n"), 0o644))

	err := PatchOperatorImage(path, "quay.io/myorg/operator:latest")
	assert.EqualError(t, err, "field \"spec.install.spec\" not found")
}

func TestCountRelatedImages(t *testing.T) {
	path := writeFixture(t)

	count, err := CountRelatedImages(path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, PatchOperatorImage(path, "quay.io/myorg/operator:latest"))

	count, err = CountRelatedImages(path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func parseFile(t *testing.T, path string) map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return parseString(t, string(data))
}

func parseString(t *testing.T, contents string) map[string]any {
	t.Helper()

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(contents), &parsed))

	return parsed
}

func firstContainerMap(t *testing.T, doc map[string]any) map[string]any {
	t.Helper()

	return containerMap(t, doc, 0)
}

func secondContainerMap(t *testing.T, doc map[string]any) map[string]any {
	t.Helper()

	return containerMap(t, doc, 1)
}

func containerMap(t *testing.T, doc map[string]any, index int) map[string]any {
	t.Helper()

	spec := doc["spec"].(map[string]any)
	install := spec["install"].(map[string]any)
	installSpec := install["spec"].(map[string]any)
	deployments := installSpec["deployments"].([]any)
	require.NotEmpty(t, deployments)

	deployment := deployments[0].(map[string]any)
	template := deployment["spec"].(map[string]any)["template"].(map[string]any)
	containers := template["spec"].(map[string]any)["containers"].([]any)
	require.Greater(t, len(containers), index)

	return containers[index].(map[string]any)
}
