package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/world"
)

// HostileTemplate holds static data for a hostile kind loaded from YAML.
type HostileTemplate struct {
	Kind    string `yaml:"kind"`
	Name    string `yaml:"name"`
	HP      int    `yaml:"hp"`
	Offense int    `yaml:"offense"`
	Glyph   string `yaml:"glyph"`
}

// ItemTemplate holds static data for an item loaded from YAML.
type ItemTemplate struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "consumable" or "weapon"
	Heal int    `yaml:"heal"`
	Dmg  int    `yaml:"dmg"`
}

type hostileListFile struct {
	Hostiles []HostileTemplate `yaml:"hostiles"`
}

type itemListFile struct {
	Items []ItemTemplate `yaml:"items"`
}

// HostileTable holds all hostile templates indexed by kind.
type HostileTable struct {
	byKind map[string]*HostileTemplate
}

func LoadHostileTable(path string) (*HostileTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var file hostileListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	t := &HostileTable{byKind: make(map[string]*HostileTemplate, len(file.Hostiles))}
	for i := range file.Hostiles {
		tmpl := &file.Hostiles[i]
		t.byKind[tmpl.Kind] = tmpl
	}
	return t, nil
}

func (t *HostileTable) Get(kind string) *HostileTemplate { return t.byKind[kind] }
func (t *HostileTable) Count() int                       { return len(t.byKind) }

// ItemTable holds all item templates indexed by ID.
type ItemTable struct {
	byID map[string]*ItemTemplate
}

func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var file itemListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	t := &ItemTable{byID: make(map[string]*ItemTemplate, len(file.Items))}
	for i := range file.Items {
		tmpl := &file.Items[i]
		t.byID[tmpl.ID] = tmpl
	}
	return t, nil
}

func (t *ItemTable) Get(id string) *ItemTemplate { return t.byID[id] }
func (t *ItemTable) Count() int                  { return len(t.byID) }

// Item materializes an inventory item from its template.
func (t *ItemTable) Item(id string) (world.Item, bool) {
	tmpl := t.byID[id]
	if tmpl == nil {
		return world.Item{}, false
	}
	return world.Item{
		ID:   tmpl.ID,
		Name: tmpl.Name,
		Kind: world.ItemKind(tmpl.Kind),
		Heal: tmpl.Heal,
		Dmg:  tmpl.Dmg,
	}, true
}
