// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/filesystem"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/where"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Accepted values of the enumerated keys.
var (
	EngineKinds  = []string{"mse", "native"}
	SurfaceKinds = []string{"mpv", "null"}
)

// Setup initializes the global configuration state, including defaults, environment bindings, and localized file resolution.
func Setup() error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	viper.SetConfigName(constant.App)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.App)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return nil
}

// loadDotEnv exports variables from a .env file next to the config file and from the working directory.
// Variables already present in the environment win.
func loadDotEnv() error {
	for _, path := range []string{filepath.Join(where.Config(), ".env"), ".env"} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Validate reports the first configuration value that is outside of its accepted range.
func Validate() error {
	if kind := viper.GetString(key.EngineKind); !lo.Contains(EngineKinds, kind) {
		return fmt.Errorf("%s: unknown engine %q, expected one of %s", key.EngineKind, kind, strings.Join(EngineKinds, ", "))
	}

	if kind := viper.GetString(key.PlayerSurface); !lo.Contains(SurfaceKinds, kind) {
		return fmt.Errorf("%s: unknown surface %q, expected one of %s", key.PlayerSurface, kind, strings.Join(SurfaceKinds, ", "))
	}

	if v := viper.GetFloat64(key.PlayerVolume); v < 0 || v > 1 {
		return fmt.Errorf("%s: %v is out of range [0, 1]", key.PlayerVolume, v)
	}

	for _, k := range []string{key.ManifestMaxRetry, key.LevelMaxRetry, key.FragmentMaxRetry, key.MediaRecoverRetry} {
		if viper.GetInt(k) < 0 {
			return fmt.Errorf("%s must not be negative", k)
		}
	}

	if viper.GetInt(key.BufferLiveSyncCount) < 1 {
		return fmt.Errorf("%s must be at least 1", key.BufferLiveSyncCount)
	}

	return nil
}

// ErrUnknownKey is returned for keys missing from Default.
var ErrUnknownKey = errors.New("unknown key")

// Parse converts command line values to the type of the key's default value.
func Parse(name string, values []string) (any, error) {
	field, ok := Default[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: missing value", name)
	}

	raw := values[0]
	switch field.Value.(type) {
	case string:
		return raw, nil
	case int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not an integer", name, raw)
		}
		return v, nil
	case float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", name, raw)
		}
		return v, nil
	case bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a boolean", name, raw)
		}
		return v, nil
	case []string:
		return values, nil
	default:
		return nil, fmt.Errorf("%s: unsupported type %T", name, field.Value)
	}
}

// Set validates and stores a value, restoring the previous one when validation fails.
func Set(name string, value any) error {
	previous := viper.Get(name)
	viper.Set(name, value)

	if err := Validate(); err != nil {
		viper.Set(name, previous)
		return err
	}
	return nil
}

// Save writes the current settings, creating the config file when there is none.
func Save() error {
	err := viper.WriteConfig()
	if errors.As(err, new(viper.ConfigFileNotFoundError)) {
		return viper.SafeWriteConfig()
	}
	return err
}
