package loadout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies a loadout document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath guesses the document format from a file extension.
// Unknown extensions are treated as YAML, which also accepts JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Decode parses a loadout document. YAML and JSON documents keep the order
// of their keys; TOML documents are returned in canonical category order.
//
// A document is either a mapping ("AR: Rare") or a sequence of
// {category, rarity} objects.
func Decode(data []byte, format Format) (Loadout, error) {
	var l Loadout
	switch format {
	case FormatTOML:
		var raw map[string]string
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Loadout{}, fmt.Errorf("%w: parsing toml loadout: %v", ErrInvalidInput, err)
		}
		return FromMap(raw)
	case FormatJSON, FormatYAML, "":
		if len(bytes.TrimSpace(data)) == 0 {
			return Loadout{}, nil
		}
		if err := yaml.Unmarshal(data, &l); err != nil {
			return Loadout{}, fmt.Errorf("parsing %s loadout: %w", format, err)
		}
		return l, nil
	default:
		return Loadout{}, fmt.Errorf("%w: unsupported loadout format %q", ErrInvalidInput, format)
	}
}

// Load reads a loadout document from disk.
func Load(path string) (Loadout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loadout{}, fmt.Errorf("reading loadout: %w", err)
	}
	l, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return Loadout{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Save writes a loadout to disk, encoded according to the file extension.
func Save(path string, l Loadout) error {
	var (
		data []byte
		err  error
	)
	switch FormatFromPath(path) {
	case FormatJSON:
		data, err = json.MarshalIndent(l, "", "  ")
	case FormatTOML:
		raw := make(map[string]string, l.Len())
		for _, s := range l.slots {
			raw[string(s.Category)] = string(s.Rarity)
		}
		data, err = toml.Marshal(raw)
	default:
		data, err = yaml.Marshal(l)
	}
	if err != nil {
		return fmt.Errorf("marshaling loadout: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for loadout: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing loadout: %w", err)
	}
	return nil
}

// UnmarshalYAML decodes a mapping or a sequence of slots, keeping document order.
func (l *Loadout) UnmarshalYAML(value *yaml.Node) error {
	var slots []Slot
	switch value.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			s, err := parseSlot(value.Content[i].Value, value.Content[i+1].Value)
			if err != nil {
				return err
			}
			slots = append(slots, s)
		}
	case yaml.SequenceNode:
		for _, item := range value.Content {
			var raw struct {
				Category string `yaml:"category"`
				Rarity   string `yaml:"rarity"`
			}
			if err := item.Decode(&raw); err != nil {
				return fmt.Errorf("%w: line %d: %v", ErrInvalidInput, item.Line, err)
			}
			s, err := parseSlot(raw.Category, raw.Rarity)
			if err != nil {
				return err
			}
			slots = append(slots, s)
		}
	default:
		return fmt.Errorf("%w: line %d: loadout must be a mapping or a list", ErrInvalidInput, value.Line)
	}

	parsed, err := New(slots...)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalYAML encodes the loadout as an ordered mapping.
func (l Loadout) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range l.slots {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(s.Category)},
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(s.Rarity)},
		)
	}
	return node, nil
}

// UnmarshalJSON decodes a JSON object or array, keeping document order.
func (l *Loadout) UnmarshalJSON(data []byte) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		return l.UnmarshalYAML(node.Content[0])
	}
	*l = Loadout{}
	return nil
}

// MarshalJSON encodes the loadout as a JSON object in slot order.
func (l Loadout) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range l.slots {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(string(s.Category))
		v, _ := json.Marshal(string(s.Rarity))
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func parseSlot(category, rarity string) (Slot, error) {
	c, err := ParseCategory(category)
	if err != nil {
		return Slot{}, err
	}
	r, err := ParseRarity(rarity)
	if err != nil {
		return Slot{}, fmt.Errorf("%s: %w", c, err)
	}
	return Slot{Category: c, Rarity: r}, nil
}

// ParseAssignments parses "Category=Rarity" strings, as given on a command line.
func ParseAssignments(assignments []string) ([]Slot, error) {
	slots := make([]Slot, 0, len(assignments))
	for _, a := range assignments {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("%w: expected Category=Rarity, got %q", ErrInvalidInput, a)
		}
		s, err := parseSlot(k, v)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, nil
}
