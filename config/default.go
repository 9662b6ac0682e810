// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.EngineKind, "mse", "Streaming engine bound to the player.\nAvailable options are: mse (fetch and feed fragments), native (let the player load HLS itself)")
	register(key.EngineStartLevel, -1, "Level index to start with, -1 lets the bandwidth estimate decide")
	register(key.EngineUserAgent, constant.UserAgent, "User-Agent header sent with manifest and fragment requests")
	register(key.MediaRecoverRetry, 3, "Consecutive media recovery attempts before the error becomes fatal")

	register(key.ManifestTimeout, 10000, "Manifest request timeout in milliseconds")
	register(key.ManifestMaxRetry, 3, "Manifest request retries before giving up")
	register(key.ManifestRetryDelay, 1000, "Initial delay between manifest retries in milliseconds, doubled after each attempt")
	register(key.LevelTimeout, 10000, "Level playlist request timeout in milliseconds")
	register(key.LevelMaxRetry, 4, "Level playlist retries before the level is considered failed")
	register(key.LevelRetryDelay, 1000, "Initial delay between level playlist retries in milliseconds")
	register(key.FragmentTimeout, 20000, "Fragment request timeout in milliseconds")
	register(key.FragmentMaxRetry, 6, "Fragment retries before the level is considered failed")
	register(key.FragmentRetryDelay, 1000, "Initial delay between fragment retries in milliseconds")

	register(key.BufferMaxLength, 30, "Seconds of media to keep buffered ahead of the playhead")
	register(key.BufferMaxSize, 60*1000*1000, "Upper bound of buffered bytes ahead of the playhead")
	register(key.BufferLiveSyncCount, 3, "Start this many segments behind the live edge")

	register(key.ABRDefaultEstimate, 500000, "Bandwidth estimate in bits per second used before the first fragment is measured")
	register(key.ABRBandwidthFactor, 0.95, "Fraction of the estimated bandwidth a level may use")

	register(key.PlayerSurface, "mpv", "Media surface to render into.\nAvailable options are: mpv, null (headless, discards media)")
	register(key.PlayerAutoplay, true, "Start playback as soon as the stream is connected")
	register(key.PlayerVolume, 1.0, "Initial volume, from 0 to 1")
	register(key.PlayerMuted, false, "Start muted")
	register(key.PlayerControlsHideDelay, 3000, "Idle time in milliseconds before fullscreen controls hide")
	register(key.PlayerControlsLeaveDelay, 1000, "Time in milliseconds before fullscreen controls hide once the pointer leaves")

	register(key.HistorySaveOnPlay, true, "Remember played channels so they can be resumed with --continue")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Check for a newer release when showing help or the version")
	register(key.MetricsListen, "", "Address to serve prometheus metrics on while playing, e.g. 127.0.0.1:9090. Empty disables it")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
