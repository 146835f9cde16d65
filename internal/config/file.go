package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/indica/internal/errors"
	"gopkg.in/yaml.v3"
)

const fileHeader = `# indica configuration
# Keys can be overridden with INDICA_* environment variables,
# e.g. INDICA_BAR_WIDTH=40 or INDICA_OUTPUT_COLOR=never.

`

// WriteDefault writes the default config to path. An existing file is only
// replaced when force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Config file already exists: %s", path),
			"Use --force to overwrite")
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(DefaultConfig()); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to generate config",
			"This shouldn't happen - please report this bug")
	}
	encoder.Close()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Failed to create directory: %s", dir),
				"Check directory permissions")
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", path),
			"Check directory permissions")
	}
	return nil
}

// SetValue sets a dotted key (e.g. "bar.width") in the config file at path.
// It preserves the existing YAML structure and comments, creating missing
// sections as needed. The file is only written when the result still
// passes Validate.
func SetValue(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Run 'indica config init' first")
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to parse config file",
			"Check the YAML syntax in "+path)
	}
	if root.Kind == 0 {
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return errors.New(errors.ErrConfig,
			"Config file is not a YAML mapping",
			"Check the YAML syntax in "+path)
	}

	parts := strings.Split(key, ".")
	node := root.Content[0]
	for _, part := range parts[:len(parts)-1] {
		child := findMapValue(node, part)
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, scalar(part), child)
		}
		if child.Kind != yaml.MappingNode {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("'%s' is not a section", part),
				"Use a full key such as bar.width")
		}
		node = child
	}

	leaf := parts[len(parts)-1]
	newValue := parseValue(value)
	if existing := findMapValue(node, leaf); existing != nil {
		newValue.HeadComment = existing.HeadComment
		newValue.LineComment = existing.LineComment
		*existing = *newValue
	} else {
		node.Content = append(node.Content, scalar(leaf), newValue)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
	}
	encoder.Close()

	if err := checkContent(buf.Bytes()); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", path),
			"Check file permissions")
	}
	return nil
}

// checkContent loads YAML content the way Load does and validates it.
func checkContent(data []byte) error {
	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Resulting config is not valid YAML", "")
	}
	cfg, err := parseConfig(v, "")
	if err != nil {
		return err
	}
	return Validate(cfg)
}

// parseValue turns a command-line value into a node. A comma-separated
// value inside brackets ("[bold, underline]") becomes a sequence.
func parseValue(value string) *yaml.Node {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
		if inner != "" {
			for _, item := range strings.Split(inner, ",") {
				seq.Content = append(seq.Content, scalar(strings.TrimSpace(item)))
			}
		}
		return seq
	}
	// Leave the tag unset so the value resolves like hand-written YAML.
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
