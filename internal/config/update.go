package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const fileHeader = "# sysmon configuration. Keys not listed here use built-in defaults.\n"

// Save writes the whole config to path with 2-space indentation.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString(fileHeader)
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SetValue sets a single top-level key in the config file, preserving the
// existing YAML structure and comments. The string value is typed by the
// field it targets: booleans, integers, and comma-separated lists.
func SetValue(configPath, key, value string) error {
	typed, err := typedValue(key, value)
	if err != nil {
		return err
	}
	return SetValues(configPath, map[string]interface{}{key: typed})
}

// SetValues updates several top-level keys at once. A missing file is created.
func SetValues(configPath string, values map[string]interface{}) error {
	var root yaml.Node

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if root.Kind == 0 {
		root = yaml.Node{
			Kind:        yaml.DocumentNode,
			HeadComment: strings.TrimSuffix(fileHeader, "\n"),
			Content:     []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	// Stable order so new keys are appended deterministically.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var valueNode yaml.Node
		if err := valueNode.Encode(values[key]); err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}

		if existing := findMapValue(docNode, key); existing != nil {
			// Keep comments attached to the old value.
			valueNode.HeadComment = existing.HeadComment
			valueNode.LineComment = existing.LineComment
			valueNode.FootComment = existing.FootComment
			*existing = valueNode
			continue
		}

		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: key,
		}
		docNode.Content = append(docNode.Content, keyNode, &valueNode)
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// PersistedValues returns the settings the UI can change at runtime, keyed
// by their YAML names. These are written back on a clean exit.
func PersistedValues(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"update_ms":     cfg.UpdateMS,
		"proc_sorting":  cfg.ProcSorting,
		"proc_reversed": cfg.ProcReversed,
		"proc_tree":     cfg.ProcTree,
		"proc_per_core": cfg.ProcPerCore,
		"shown_boxes":   cfg.ShownBoxes,
		"mem_graphs":    cfg.MemGraphs,
		"show_swap":     cfg.ShowSwap,
		"show_disks":    cfg.ShowDisks,
		"net_auto":      cfg.NetAuto,
		"net_sync":      cfg.NetSync,
		"color_theme":   cfg.ColorTheme,
	}
}

// typedValue converts a CLI string into the Go type the key expects.
func typedValue(key, value string) (interface{}, error) {
	field, ok := keyKinds()[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key '%s'", key)
	}

	switch field {
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got '%s'", key, value)
		}
		return b, nil
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects a whole number, got '%s'", key, value)
		}
		return n, nil
	case "list":
		parts := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
		return parts, nil
	default:
		return value, nil
	}
}

// keyKinds maps YAML keys to a coarse type name, derived from Config's tags.
func keyKinds() map[string]string {
	kinds := make(map[string]string)
	var raw map[string]interface{}
	data, _ := yaml.Marshal(DefaultConfig())
	_ = yaml.Unmarshal(data, &raw)
	for k, v := range raw {
		switch v.(type) {
		case bool:
			kinds[k] = "bool"
		case int:
			kinds[k] = "int"
		case []interface{}:
			kinds[k] = "list"
		default:
			kinds[k] = "string"
		}
	}
	return kinds
}

// Keys returns every settable config key, sorted.
func Keys() []string {
	kinds := keyKinds()
	keys := make([]string, 0, len(kinds))
	for k := range kinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
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
