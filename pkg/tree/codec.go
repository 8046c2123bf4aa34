package tree

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Tree Serialization API
// =============================================================================

// Marshal converts a Tree to indented JSON bytes.
func Marshal(t Tree) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// Unmarshal deserializes JSON bytes to a Tree.
func Unmarshal(data []byte) (Tree, error) {
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return Tree{}, fmt.Errorf("decode tree: %w", err)
	}
	return t, nil
}

// Write writes a Tree as JSON to an io.Writer.
func Write(t Tree, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	return nil
}

// Read decodes a JSON tree from an io.Reader.
func Read(r io.Reader) (Tree, error) {
	var t Tree
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return Tree{}, fmt.Errorf("decode tree: %w", err)
	}
	return t, nil
}

// WriteFile writes a Tree to a JSON file with 0644 permissions.
func WriteFile(t Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(t, f)
}

// ReadFile reads a JSON file and returns the decoded Tree.
func ReadFile(path string) (Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tree{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
