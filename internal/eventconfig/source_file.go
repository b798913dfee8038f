package eventconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileSource loads the configuration document from a JSON file keyed by
// year string. The file is re-read on every Load; wrap with CachedSource
// when call volume warrants it.
type FileSource struct {
	path string
}

// NewFileSource builds a FileSource for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and parses the document. Entries that fail validation are
// rejected as a whole so a typo cannot silently half-apply.
func (s *FileSource) Load(_ context.Context) (map[string]YearConfig, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read year config: %w", err)
	}

	var doc map[string]YearConfig
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse year config: %w", err)
	}

	for key, cfg := range doc {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("year config entry %q: %w", key, err)
		}
	}
	return doc, nil
}

// StaticSource serves a fixed in-memory document. Used in tests and for
// deployments that inject configuration at startup.
type StaticSource map[string]YearConfig

// Load returns the document as-is.
func (s StaticSource) Load(_ context.Context) (map[string]YearConfig, error) {
	return s, nil
}
