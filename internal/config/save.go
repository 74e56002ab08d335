package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/kinship/internal/log"
)

// SaveViews replaces the views section of the config file. Comments and
// formatting in other sections are preserved by editing the yaml.Node tree.
func SaveViews(configPath string, views []ViewConfig) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	viewsNode := buildViewsNode(views)

	switch {
	case doc.Kind == 0:
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{{
				Kind:    yaml.MappingNode,
				Content: []*yaml.Node{keyNode("views"), viewsNode},
			}},
		}
	case doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 && doc.Content[0].Kind == yaml.MappingNode:
		setMappingValue(doc.Content[0], "views", viewsNode)
	default:
		return fmt.Errorf("parsing config: top level is not a mapping")
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	if err := writeAtomic(configPath, buf.Bytes()); err != nil {
		return err
	}
	log.Info(log.CatConfig, "Saved views", "path", configPath, "views", len(views))
	return nil
}

// AddView appends view to views, or replaces the view with the same name,
// and saves the result.
func AddView(configPath string, views []ViewConfig, view ViewConfig) ([]ViewConfig, error) {
	updated := make([]ViewConfig, 0, len(views)+1)
	replaced := false
	for _, v := range views {
		if v.Name == view.Name {
			v = view
			replaced = true
		}
		updated = append(updated, v)
	}
	if !replaced {
		updated = append(updated, view)
	}

	if err := ValidateViews(updated); err != nil {
		return nil, err
	}
	if err := SaveViews(configPath, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteView removes the view at index and saves the result.
func DeleteView(configPath string, views []ViewConfig, index int) ([]ViewConfig, error) {
	if index < 0 || index >= len(views) {
		return nil, fmt.Errorf("view index %d out of range (have %d views)", index, len(views))
	}
	updated := make([]ViewConfig, 0, len(views)-1)
	updated = append(updated, views[:index]...)
	updated = append(updated, views[index+1:]...)

	if err := SaveViews(configPath, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func buildViewsNode(views []ViewConfig) *yaml.Node {
	node := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range views {
		viewNode := &yaml.Node{Kind: yaml.MappingNode}
		viewNode.Content = append(viewNode.Content,
			keyNode("name"), stringNode(v.Name),
			keyNode("query"), stringNode(v.Query),
		)
		if v.From != "" {
			viewNode.Content = append(viewNode.Content, keyNode("from"), stringNode(v.From))
		}
		node.Content = append(node.Content, viewNode)
	}
	return node
}

// setMappingValue replaces the value under key, or appends the pair.
func setMappingValue(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content, keyNode(key), value)
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: key}
}

func stringNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// writeAtomic writes to a temp file in the target directory, then renames.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".kinship.config.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
