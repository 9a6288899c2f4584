package config

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/ecomap/internal/common"
)

//go:embed defaults/*.yaml
var defaults embed.FS

// Override selects the values merged on top of a built-in default.
// Values takes precedence over Name. An empty Override keeps the defaults.
type Override struct {
	Values map[string]any
	Name   string // built-in name or file path
	Dir    string // working directory for relative file paths
}

// Named returns an override by built-in name or file path.
func Named(name string) Override {
	return Override{Name: name}
}

// Inline returns an override from an in-memory mapping.
func Inline(values map[string]any) Override {
	return Override{Values: values}
}

// LoadEcotopeConfig merges the override onto the built-in ecotope thresholds.
func LoadEcotopeConfig(o Override) (*EcotopeConfig, error) {
	cfg := &EcotopeConfig{}
	name, err := load(DefaultEcotopeConfig, o, cfg)
	if err != nil {
		return nil, err
	}
	cfg.Name = name

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadMapConfig merges the override onto the built-in map-file configuration.
func LoadMapConfig(o Override) (*MapConfig, error) {
	cfg := &MapConfig{}
	name, err := load(DefaultMapConfig, o, cfg)
	if err != nil {
		return nil, err
	}
	cfg.Name = name

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsBuiltin reports whether name refers to an embedded configuration.
func IsBuiltin(name string) bool {
	_, err := fs.Stat(defaults, builtinPath(name))
	return err == nil
}

// BuiltinNames lists the embedded configurations.
func BuiltinNames() []string {
	entries, err := fs.ReadDir(defaults, "defaults")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	return names
}

func builtinPath(name string) string {
	name = strings.TrimSuffix(strings.TrimSuffix(name, ".json"), ".yaml")
	return path.Join("defaults", name+".yaml")
}

// load reads the default into a fresh viper instance, applies the override leaf
// by leaf and decodes the result into out. It returns the configuration name.
func load(defaultName string, o Override, out any) (string, error) {
	base := viper.New()
	base.SetConfigType("yaml")

	data, err := defaults.ReadFile(builtinPath(defaultName))
	if err != nil {
		return "", fmt.Errorf("%w: built-in %q: %v", common.ErrMissingConfig, defaultName, err)
	}
	if err := base.ReadConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to parse built-in %q: %w", defaultName, err)
	}

	override, name, err := readOverride(o, defaultName)
	if err != nil {
		return "", err
	}

	if override != nil {
		keys := override.AllKeys()
		for _, key := range keys {
			base.Set(key, override.Get(key))
		}
		if len(keys) > 0 {
			slog.Debug("Default configuration replaced", "config", name, "keys", keys)
		}
	}

	if err := base.Unmarshal(out); err != nil {
		return "", fmt.Errorf("%w: %s: %v", common.ErrInvalidConfig, name, err)
	}

	return name, nil
}

// readOverride resolves the override into its own viper instance so nested
// values flatten into leaf keys. A nil instance means no override applies.
func readOverride(o Override, defaultName string) (*viper.Viper, string, error) {
	v := viper.New()

	switch {
	case o.Values != nil:
		if err := v.MergeConfigMap(o.Values); err != nil {
			return nil, "", fmt.Errorf("%w: inline override: %v", common.ErrInvalidConfig, err)
		}
		return v, "inline", nil

	case o.Name == "" || strings.TrimSuffix(o.Name, path.Ext(o.Name)) == defaultName:
		slog.Debug("Default configuration used", "config", defaultName)
		return nil, defaultName, nil

	case IsBuiltin(o.Name):
		data, err := defaults.ReadFile(builtinPath(o.Name))
		if err != nil {
			return nil, "", err
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, "", fmt.Errorf("failed to parse built-in %q: %w", o.Name, err)
		}
		name := strings.TrimSuffix(o.Name, path.Ext(o.Name))
		slog.Info("Built-in configuration used", "config", name)
		return v, name, nil
	}

	file := ExpandPath(o.Name)
	if !filepath.IsAbs(file) && o.Dir != "" {
		file = filepath.Join(ExpandPath(o.Dir), file)
	}

	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Custom configuration file not found, using defaults", "file", file)
			return nil, file, nil
		}
		return nil, "", fmt.Errorf("%w: %s: %v", common.ErrInvalidConfig, file, err)
	}

	slog.Info("Custom configuration file used", "file", file)
	return v, file, nil
}
