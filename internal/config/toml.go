// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/dsc2asc/internal/format"
	"github.com/verte-zerg/dsc2asc/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Convert  ConvertConfig   `toml:"convert"`
	Preview  PreviewConfig   `toml:"preview"`
	Profiles []ProfileConfig `toml:"profiles"`
}

// ConvertConfig maps conversion settings.
type ConvertConfig struct {
	Format   *string `toml:"format"`
	Encoding *string `toml:"encoding"`
	OutDir   *string `toml:"out-dir"`
	Zip      *bool   `toml:"zip"`
}

// PreviewConfig maps chart settings.
type PreviewConfig struct {
	Height *int  `toml:"height"`
	Color  *bool `toml:"color"`
}

// ProfileConfig declares a user-defined output format.
type ProfileConfig struct {
	Name       string `toml:"name"`
	Extension  string `toml:"extension"`
	Delimiter  string `toml:"delimiter"`
	Decimal    string `toml:"decimal"`
	Mime       string `toml:"mime"`
	XPrecision *int   `toml:"x-precision"`
	YPrecision *int   `toml:"y-precision"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// FormatProfiles converts configured profiles, filling unset fields with defaults.
func (c FileConfig) FormatProfiles() []model.FormatProfile {
	out := make([]model.FormatProfile, 0, len(c.Profiles))
	for _, pc := range c.Profiles {
		p := model.FormatProfile{
			Name:             pc.Name,
			Extension:        pc.Extension,
			Delimiter:        pc.Delimiter,
			DecimalSeparator: pc.Decimal,
			MimeType:         pc.Mime,
			XPrecision:       format.DefaultXPrecision,
			YPrecision:       format.DefaultYPrecision,
		}
		if p.DecimalSeparator == "" {
			p.DecimalSeparator = "."
		}
		if p.MimeType == "" {
			p.MimeType = "text/plain"
		}
		if pc.XPrecision != nil {
			p.XPrecision = *pc.XPrecision
		}
		if pc.YPrecision != nil {
			p.YPrecision = *pc.YPrecision
		}
		out = append(out, p)
	}
	return out
}
