package config

import (
	"fmt"
	"os"

	yamlv2 "gopkg.in/yaml.v2"
)

// SearchPreset is a saved filter set offered as a one-tap search.
type SearchPreset struct {
	Name          string  `yaml:"name"`
	Capacity      int     `yaml:"capacity"`
	View          string  `yaml:"view"`
	HotelChain    string  `yaml:"hotel_chain"`
	HotelCategory int     `yaml:"hotel_category"`
	MaxPrice      float64 `yaml:"max_price"`
	Nights        int     `yaml:"nights"`
}

// LoadPresets reads the optional saved-searches file. A missing file is
// not an error; a malformed one is.
func LoadPresets(path string) ([]SearchPreset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var parsed struct {
		Presets []SearchPreset `yaml:"presets"`
	}
	if err := yamlv2.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	for _, p := range parsed.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset without a name")
		}
	}
	return parsed.Presets, nil
}
