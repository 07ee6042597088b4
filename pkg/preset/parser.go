// parser.go: Preset JSON parsing and example generation.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// GetExampleJSON returns a sample preset.json and overrides.json for
// shotbeautifier init.
func GetExampleJSON() (presetJSON, overridesJSON string) {
	presetJSON = `{
  "meta": {
    "name": "Sunset Card",
    "version": "1.0",
    "author": "ShotBeautifier",
    "description": "Warm gradient card with a soft shadow"
  },
  "canvas": { "size": "1080p" },
  "background": {
    "type": "gradient",
    "gradient": "linear-gradient(135deg, #ff7e5f, #feb47b)",
    "opacity": 100,
    "cornerRadius": 4
  },
  "shadow": {
    "color": "#000000",
    "opacity": 45,
    "blur": 12,
    "distance": 3
  },
  "image": {
    "cornerRadius": 3,
    "padding": 35,
    "offsetX": 0,
    "offsetY": 0
  }
}`

	overridesJSON = `{
  "background": {
    "type": "freeform",
    "points": [
      { "color": "#6a11cb", "x": 10, "y": 15 },
      { "color": "#2575fc", "x": 85, "y": 30 },
      { "color": "#f8f9d2", "x": 40, "y": 90 }
    ]
  },
  "image": { "padding": 20 }
}`
	return
}

// ParsePresetFile loads a standalone preset JSON file. A relative background
// image path is resolved against the file's directory.
func ParsePresetFile(path string) (*Preset, error) {
	p, err := readPreset(path)
	if err != nil {
		return nil, err
	}
	resolveAssetPaths(p, filepath.Dir(path))
	return p, nil
}

// ParsePreset parses preset JSON held in memory. Asset paths are left as
// written.
func ParsePreset(data []byte) (*Preset, error) {
	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse preset JSON: %w", err)
	}
	applyDefaults(&p)
	return &p, nil
}

func readPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset: %w", err)
	}
	return ParsePreset(data)
}

// applyDefaults fills in the fill kind when the preset leaves it implicit.
func applyDefaults(p *Preset) {
	if p.Background.Type != "" {
		return
	}
	switch {
	case len(p.Background.Points) > 0:
		p.Background.Type = FillFreeform
	case p.Background.Gradient != "":
		p.Background.Type = FillGradient
	case p.Background.Source != "":
		p.Background.Type = FillImage
	default:
		p.Background.Type = FillSolid
	}
}
