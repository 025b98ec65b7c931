// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 MackanT

package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlFile is the on-disk catalog layout.
type yamlFile struct {
	Registers []yamlRegister `yaml:"registers"`
}

type yamlRegister struct {
	Index    uint16         `yaml:"index"`
	Name     string         `yaml:"name"`
	Width    int            `yaml:"width"`
	Signed   bool           `yaml:"signed"`
	Scale    float64        `yaml:"scale"`
	Unit     string         `yaml:"unit"`
	Writable bool           `yaml:"writable"`
	Min      *float64       `yaml:"min"`
	Max      *float64       `yaml:"max"`
	Fields   []yamlBitField `yaml:"bitfields"`
}

type yamlBitField struct {
	Name   string         `yaml:"name"`
	Mask   uint8          `yaml:"mask"`
	Labels map[int]string `yaml:"labels"`
}

// Load reads a YAML register catalog from r.
func Load(r io.Reader) (*Catalog, error) {
	var file yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing register catalog: %w", err)
	}

	registers := make([]Register, 0, len(file.Registers))
	for _, entry := range file.Registers {
		if entry.Width == 0 {
			entry.Width = 2
		}
		if entry.Width != 1 && entry.Width != 2 && entry.Width != 4 {
			return nil, fmt.Errorf("register %d: invalid width %d (must be 1, 2 or 4)",
				entry.Index, entry.Width)
		}

		fields := make([]BitField, 0, len(entry.Fields))
		for _, f := range entry.Fields {
			if f.Mask == 0 {
				return nil, fmt.Errorf("register %d: bit field %q has zero mask",
					entry.Index, f.Name)
			}
			fields = append(fields, BitField{Name: f.Name, Mask: f.Mask, Labels: f.Labels})
		}

		registers = append(registers, Register{
			Index:     entry.Index,
			Name:      entry.Name,
			Width:     entry.Width,
			Signed:    entry.Signed,
			Scale:     entry.Scale,
			Unit:      entry.Unit,
			Writable:  entry.Writable,
			Min:       entry.Min,
			Max:       entry.Max,
			BitFields: fields,
		})
	}

	return New(registers), nil
}

// LoadFile reads a YAML register catalog from a file path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening register catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}
