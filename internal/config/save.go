package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadBoard reads a standalone layout file: a YAML document with the same
// columns and cards keys as the board section of the config.
func LoadBoard(path string) (BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BoardConfig{}, fmt.Errorf("reading layout: %w", err)
	}
	var b BoardConfig
	if err := yaml.Unmarshal(data, &b); err != nil {
		return BoardConfig{}, fmt.Errorf("parsing layout: %w", err)
	}
	if err := ValidateBoard(b); err != nil {
		return BoardConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// SaveColumns rewrites board.columns in the file at path, creating the file
// if needed. Comments and every other key are carried over through the
// yaml.Node tree.
func SaveColumns(path string, columns []ColumnConfig) error {
	doc, err := readDocument(path)
	if err != nil {
		return err
	}

	var seq yaml.Node
	if err := seq.Encode(columns); err != nil {
		return fmt.Errorf("encoding columns: %w", err)
	}

	board := lookup(doc.Content[0], "board")
	if board.Kind != yaml.MappingNode {
		*board = yaml.Node{Kind: yaml.MappingNode}
	}
	*lookup(board, "columns") = seq

	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return replaceFile(path, out.Bytes())
}

// readDocument parses the YAML file at path into a document node whose
// single child is a mapping. A missing or empty file yields an empty one.
func readDocument(path string) (*yaml.Node, error) {
	empty := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	switch {
	case doc.Kind == 0:
		return empty, nil
	case len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode:
		return nil, errors.New("parsing config: top level is not a mapping")
	}
	return &doc, nil
}

// lookup returns the value node stored under key in mapping m, adding an
// empty mapping entry when the key is absent.
func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 1; i < len(m.Content); i += 2 {
		if m.Content[i-1].Value == key {
			return m.Content[i]
		}
	}
	val := &yaml.Node{Kind: yaml.MappingNode}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
	return val
}

// replaceFile swaps data in for path's contents through a sibling temp
// file, so readers never observe a partial write.
func replaceFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
