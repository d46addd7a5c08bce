package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Supported document extensions.
var Extensions = []string{".cue", ".yaml", ".yml", ".json"}

// LoadFile reads and decodes a query document, choosing the decoder from
// the file extension. opts.Filename defaults to path.
func LoadFile(path string, opts Options) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query document: %w", err)
	}
	if opts.Filename == "" {
		opts.Filename = path
	}
	return Decode(data, filepath.Ext(path), opts)
}

// Decode decodes data according to ext (".cue", ".yaml", ".yml" or ".json").
func Decode(data []byte, ext string, opts Options) (*Document, error) {
	switch strings.ToLower(ext) {
	case ".cue":
		return CompileCUE(data, opts.Filename, opts)
	case ".yaml", ".yml", ".json":
		return DecodeYAML(data, opts)
	default:
		return nil, fmt.Errorf("unsupported document extension %q (want one of %v)", ext, Extensions)
	}
}
