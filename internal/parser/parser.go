package parser

import (
	"errors"
	"fmt"
	"os"
)

// Source turns a file on disk into the line-oriented text that Parse consumes.
type Source interface {
	CanRead(filename string) bool
	Read(path string, opt ReadOptions) (string, error)
}

// ReadOptions selects what part of a file a Source reads.
type ReadOptions struct {
	// Sheet names the worksheet for spreadsheet sources; empty means the first sheet.
	Sheet string
}

var registry []Source

// Register adds a source implementation to the registry.
func Register(s Source) {
	registry = append(registry, s)
}

// ReadFile selects a source based on filename and returns the record text.
// Files no source claims are read as plain text.
func ReadFile(path string, opt ReadOptions) (string, error) {
	if path == "" {
		return "", fmt.Errorf("read records: empty path: %w", ErrNoPath)
	}
	for _, s := range registry {
		if s.CanRead(path) {
			return s.Read(path, opt)
		}
	}
	return textSource{}.Read(path, opt)
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func init() {
	Register(textSource{})
	Register(xlsxSource{})
}

// ErrNoPath indicates ReadFile was called without a path.
var ErrNoPath = errors.New("no input file")
