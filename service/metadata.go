package service

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/snowie2000/stepdaddylive/model"
)

//go:embed meta.json
var embeddedMeta []byte

// Metadata is the static name -> {tags, logo} table merged into the catalog.
type Metadata struct {
	table map[string]model.Meta
}

// LoadMetadata reads the table from path, or the built-in one when path is empty.
func LoadMetadata(path string) (*Metadata, error) {
	if path == "" {
		return ParseMetadata(embeddedMeta)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	md, err := ParseMetadata(data)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded %d metadata entries from %s\n", md.Len(), path)
	return md, nil
}

func ParseMetadata(data []byte) (*Metadata, error) {
	table := make(map[string]model.Meta)
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	return &Metadata{table: table}, nil
}

func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.table)
}

// Resolve looks a channel name up. Adult channels share the AdultMarker entry.
// Unknown names get no tags and no logo.
func (m *Metadata) Resolve(name string) model.Meta {
	if m == nil {
		return model.Meta{Tags: []string{}}
	}
	key := name
	if strings.HasPrefix(name, model.AdultMarker) {
		key = model.AdultMarker
	}
	meta, ok := m.table[key]
	if !ok {
		return model.Meta{Tags: []string{}}
	}
	// callers get their own tag slice
	tags := make([]string, len(meta.Tags))
	copy(tags, meta.Tags)
	return model.Meta{Tags: tags, Logo: meta.Logo}
}
