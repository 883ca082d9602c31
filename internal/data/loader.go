package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no data directory holds the reference.
var ErrNotFound = errors.New("reference not found")

// Loader handles reading and instantiating records from the read-only data layer
type Loader struct {
	dataDirs []string
}

// NewLoader initializes a new Data Loader with the given data directory fallback hierarchy
func NewLoader(dataDirs []string) *Loader {
	return &Loader{
		dataDirs: dataDirs,
	}
}

// Slug turns a display name into its file name: "Potion of Healing" → "potion-of-healing".
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// LoadCharacter constructs a typed Character object by searching through the data directories sequentially
func (l *Loader) LoadCharacter(name string) (*Character, error) {
	var c Character
	ref := filepath.Join("characters", fmt.Sprintf("%s.yaml", Slug(name)))
	if err := l.load(ref, &c); err != nil {
		return nil, err
	}
	if c.Index == "" {
		c.Index = Slug(name)
	}
	return &c, nil
}

// LoadItem reads an item sheet.
func (l *Loader) LoadItem(name string) (*Item, error) {
	var it Item
	ref := filepath.Join("items", fmt.Sprintf("%s.yaml", Slug(name)))
	if err := l.load(ref, &it); err != nil {
		return nil, err
	}
	if it.Index == "" {
		it.Index = Slug(name)
	}
	return &it, nil
}

// LoadRollTable reads a flavor roll table by its display name.
func (l *Loader) LoadRollTable(name string) (*RollTable, error) {
	var t RollTable
	ref := filepath.Join("tables", fmt.Sprintf("%s.yaml", Slug(name)))
	if err := l.load(ref, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (l *Loader) load(ref string, target interface{}) error {
	for _, dir := range l.dataDirs {
		path := filepath.Join(dir, ref)
		f, err := os.Open(path)
		if err == nil {
			defer f.Close()
			decoder := yaml.NewDecoder(f)
			if err := decoder.Decode(target); err != nil {
				return fmt.Errorf("failed to decode yaml reference %s: %w", ref, err)
			}
			return nil
		}
	}
	return fmt.Errorf("could not find or open reference %s in any available data directory: %w", ref, ErrNotFound)
}
