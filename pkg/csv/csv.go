package csv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/fileio"
	"gopkg.in/yaml.v3"
)

const (
	// FilePattern matches the ClusterServiceVersion manifest inside a bundle's manifests directory.
	FilePattern = "*.clusterserviceversion.yaml"

	containerImageAnnotation = "containerImage"
	relatedImagePrefix       = "RELATED_IMAGE"
)

// Locate returns the single ClusterServiceVersion file under the given
// manifests directory. A bundle without exactly one CSV cannot be patched.
func Locate(manifestsDir string) (string, error) {
	pattern := filepath.Join(manifestsDir, FilePattern)

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("looking for cluster service version with pattern %s: %w", pattern, err)
	}

	if len(matches) != 1 {
		return "", fmt.Errorf("expected exactly one cluster service version under %s, found %d", manifestsDir, len(matches))
	}

	return matches[0], nil
}

// PatchOperatorImage rewrites the two operator image references inside the
// CSV: the first container of the first deployment in the install spec, and
// the containerImage annotation. The rewrite is node surgery on the parsed
// document, so every other node - including the RELATED_IMAGE environment
// entries pinning companion images - is carried over untouched.
func PatchOperatorImage(path, operatorImage string) error {
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	imageNode, err := deploymentImageNode(doc)
	if err != nil {
		return err
	}
	setScalar(imageNode, operatorImage)

	annotations, err := lookup(doc, "metadata", "annotations")
	if err != nil {
		return err
	}
	setMappingValue(annotations, containerImageAnnotation, operatorImage)

	return writeDocument(path, doc)
}

// VerifyOperatorImage re-reads the CSV and confirms both patched fields carry
// the intended value.
func VerifyOperatorImage(path, operatorImage string) error {
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	imageNode, err := deploymentImageNode(doc)
	if err != nil {
		return err
	}
	if imageNode.Value != operatorImage {
		return fmt.Errorf("patched deployment image is %q, expected %q", imageNode.Value, operatorImage)
	}

	annotations, err := lookup(doc, "metadata", "annotations")
	if err != nil {
		return err
	}

	annotation := mappingValue(annotations, containerImageAnnotation)
	if annotation == nil {
		return fmt.Errorf("annotation %q not found after patching", containerImageAnnotation)
	}
	if annotation.Value != operatorImage {
		return fmt.Errorf("patched annotation %q is %q, expected %q", containerImageAnnotation, annotation.Value, operatorImage)
	}

	return nil
}

// CountRelatedImages counts the environment entries of the patched container
// whose name carries the RELATED_IMAGE prefix. The count is informational;
// it must not change across a patch.
func CountRelatedImages(path string) (int, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return 0, err
	}

	container, err := firstDeploymentContainer(doc)
	if err != nil {
		return 0, err
	}

	env := mappingValue(container, "env")
	if env == nil {
		return 0, nil
	}
	if env.Kind != yaml.SequenceNode {
		return 0, fmt.Errorf("container env is not a sequence")
	}

	count := 0
	for _, entry := range env.Content {
		if entry.Kind != yaml.MappingNode {
			continue
		}
		if name := mappingValue(entry, "name"); name != nil && strings.HasPrefix(name.Value, relatedImagePrefix) {
			count++
		}
	}

	return count, nil
}

func deploymentImageNode(doc *yaml.Node) (*yaml.Node, error) {
	container, err := firstDeploymentContainer(doc)
	if err != nil {
		return nil, err
	}

	image := mappingValue(container, "image")
	if image == nil {
		return nil, fmt.Errorf("first container carries no image field")
	}

	return image, nil
}

func firstDeploymentContainer(doc *yaml.Node) (*yaml.Node, error) {
	deployments, err := lookup(doc, "spec", "install", "spec", "deployments")
	if err != nil {
		return nil, err
	}

	deployment, err := firstElement(deployments, "spec.install.spec.deployments")
	if err != nil {
		return nil, err
	}

	containers, err := lookup(deployment, "spec", "template", "spec", "containers")
	if err != nil {
		return nil, err
	}

	return firstElement(containers, "containers")
}

func loadDocument(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc yaml.Node
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s does not contain a YAML mapping", path)
	}

	return doc.Content[0], nil
}

func writeDocument(path string, doc *yaml.Node) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileio.NonExecutablePerms)
	if err != nil {
		return fmt.Errorf("opening %s for writing: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)

	if err = encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	return encoder.Close()
}

// lookup walks nested mappings by key, erroring with the full path of the
// first missing field.
func lookup(node *yaml.Node, path ...string) (*yaml.Node, error) {
	current := node
	for i, key := range path {
		if current.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("field %q is not a mapping", strings.Join(path[:i], "."))
		}

		next := mappingValue(current, key)
		if next == nil {
			return nil, fmt.Errorf("field %q not found", strings.Join(path[:i+1], "."))
		}
		current = next
	}

	return current, nil
}

func firstElement(node *yaml.Node, field string) (*yaml.Node, error) {
	if node.Kind != yaml.SequenceNode || len(node.Content) == 0 {
		return nil, fmt.Errorf("field %q is not a non-empty sequence", field)
	}

	return node.Content[0], nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}

	return nil
}

func setMappingValue(node *yaml.Node, key, value string) {
	if existing := mappingValue(node, key); existing != nil {
		setScalar(existing, value)
		return
	}

	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}

func setScalar(node *yaml.Node, value string) {
	node.Kind = yaml.ScalarNode
	node.Tag = "!!str"
	node.Value = value
	node.Style = 0
}
