// Package config resolves cocomerge settings from defaults, an optional YAML
// file, COCOMERGE_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/cocomerge/internal/logging"
	"github.com/roach88/cocomerge/internal/merge"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "COCOMERGE"

// Setting keys.
const (
	KeyBaseJSON         = "base_json"
	KeyBaseImagePath    = "base_image_path"
	KeyAddJSON          = "add_json"
	KeyAddImagePath     = "add_image_path"
	KeyUnifiedJSONPath  = "unified_json_path"
	KeyUnifiedImagePath = "unified_image_path"
	KeyRemap            = "remap"
	KeyLedger           = "ledger"
	KeySchemaCheck      = "schema_check"
	KeyDryRun           = "dry_run"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
	KeyLogFile          = "log.file"
)

// Settings is the resolved configuration of one invocation.
type Settings struct {
	BaseJSON         string `mapstructure:"base_json"`
	BaseImagePath    string `mapstructure:"base_image_path"`
	AddJSON          string `mapstructure:"add_json"`
	AddImagePath     string `mapstructure:"add_image_path"`
	UnifiedJSONPath  string `mapstructure:"unified_json_path"`
	UnifiedImagePath string `mapstructure:"unified_image_path"`

	Remap       string `mapstructure:"remap"`        // category remap policy: new | all
	Ledger      string `mapstructure:"ledger"`       // run ledger database, empty disables it
	SchemaCheck bool   `mapstructure:"schema_check"` // validate inputs against the COCO schema
	DryRun      bool   `mapstructure:"dry_run"`      // merge in memory only

	Log logging.Config `mapstructure:"log"`
}

// defaults mirror the directory layout the tool has always shipped with.
var defaults = map[string]any{
	KeyBaseJSON:         "coco_custom1/annotations/sample_annotation1.json",
	KeyBaseImagePath:    "coco_custom1/images/",
	KeyAddJSON:          "coco_custom2/annotations/sample_annotation2.json",
	KeyAddImagePath:     "coco_custom2/images/",
	KeyUnifiedJSONPath:  "coco_merge/annotations/merge_annotation.json",
	KeyUnifiedImagePath: "coco_merge/images/",
	KeyRemap:            string(merge.RemapNew),
	KeyLedger:           "",
	KeySchemaCheck:      false,
	KeyDryRun:           false,
	KeyLogLevel:         "info",
	KeyLogFormat:        "text",
	KeyLogFile:          "",
}

// Keys returns every setting key in a stable order.
func Keys() []string {
	return []string{
		KeyBaseJSON, KeyBaseImagePath,
		KeyAddJSON, KeyAddImagePath,
		KeyUnifiedJSONPath, KeyUnifiedImagePath,
		KeyRemap, KeyLedger, KeySchemaCheck, KeyDryRun,
		KeyLogLevel, KeyLogFormat, KeyLogFile,
	}
}

// Default returns the default value of key, or nil for an unknown key.
func Default(key string) any {
	return defaults[key]
}

// EnvVar returns the environment variable bound to key, e.g.
// COCOMERGE_BASE_JSON or COCOMERGE_LOG_LEVEL.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// FlagName returns the command-line flag bound to key, e.g. base-json or
// log-level.
func FlagName(key string) string {
	return strings.NewReplacer("_", "-", ".", "-").Replace(key)
}

// New returns a viper instance carrying the defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	for _, key := range Keys() {
		v.SetDefault(key, defaults[key])
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(key, EnvVar(key))
	}
	return v
}

// BindFlags binds every flag in fs that corresponds to a setting key. Flags
// that are absent from fs are ignored so subcommands can expose a subset.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range Keys() {
		f := fs.Lookup(FlagName(key))
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	}
	return nil
}

// Load reads configFile (when non-empty) and resolves the settings.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Validate reports the first invalid setting.
func (s *Settings) Validate() error {
	required := []struct {
		key, value string
	}{
		{KeyBaseJSON, s.BaseJSON},
		{KeyBaseImagePath, s.BaseImagePath},
		{KeyAddJSON, s.AddJSON},
		{KeyAddImagePath, s.AddImagePath},
		{KeyUnifiedJSONPath, s.UnifiedJSONPath},
		{KeyUnifiedImagePath, s.UnifiedImagePath},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("invalid config: %s must not be empty", r.key)
		}
	}

	if _, err := merge.ParseRemapPolicy(s.Remap); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := s.Log.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Policy returns the parsed remap policy. Validate must have succeeded.
func (s *Settings) Policy() merge.RemapPolicy {
	p, _ := merge.ParseRemapPolicy(s.Remap)
	return p
}
