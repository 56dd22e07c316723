package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/gdsmerge/pkg/errors"
	"github.com/arthur-debert/gdsmerge/pkg/merge"
	"github.com/arthur-debert/gdsmerge/pkg/naming"
	"github.com/arthur-debert/gdsmerge/pkg/report"
	"github.com/arthur-debert/gdsmerge/pkg/utils"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides, e.g. GDSMERGE_NAMING_SEPARATOR.
const EnvPrefix = "GDSMERGE_"

// Config holds every gdsmerge setting.
type Config struct {
	Output OutputConfig `koanf:"output"`
	Naming NamingConfig `koanf:"naming"`
	Units  UnitsConfig  `koanf:"units"`
	Report ReportConfig `koanf:"report"`
	Log    LogConfig    `koanf:"log"`
}

type OutputConfig struct {
	LibraryName   string      `koanf:"library_name"`
	StagingSuffix string      `koanf:"staging_suffix"`
	FileMode      os.FileMode `koanf:"file_mode"`
}

type NamingConfig struct {
	Separator   string `koanf:"separator"`
	FirstSuffix int    `koanf:"first_suffix"`
}

type UnitsConfig struct {
	RelativeTolerance float64 `koanf:"relative_tolerance"`
}

type ReportConfig struct {
	Format string `koanf:"format"`
}

type LogConfig struct {
	File bool `koanf:"file"`
}

// LoadOptions selects the optional layers of Load.
type LoadOptions struct {
	// File is an explicit config file. It must exist. Files ending in
	// .yaml or .yml are parsed as YAML, anything else as TOML.
	File string
	// Overrides are dotted keys set from the command line.
	Overrides map[string]interface{}
	// SkipUserConfig ignores $XDG_CONFIG_HOME/gdsmerge/config.toml.
	SkipUserConfig bool
}

// UserConfigPath is the location of the per-user config file.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "gdsmerge", "config.toml")
}

// Load builds the configuration from all layers.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(embeddedProvider{data: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. User config if it exists
	if !opts.SkipUserConfig {
		userPath := UserConfigPath()
		if _, err := os.Stat(userPath); err == nil {
			if err := k.Load(file.Provider(userPath), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load user config from %s", userPath).
					WithDetail("path", userPath)
			}
		}
	}

	// 3. Explicit config file
	if opts.File != "" {
		path := utils.ExpandPath(opts.File)
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found", opts.File).
				WithDetail("path", opts.File)
		}
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", opts.File).
				WithDetail("path", opts.File)
		}
	}

	// 4. Environment, GDSMERGE_SECTION_KEY -> section.key
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 5. Command-line overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				stringToFileModeHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration from the embedded defaults alone.
func Default() *Config {
	cfg, err := Load(LoadOptions{SkipUserConfig: true})
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks values the merge cannot work with.
func (c *Config) Validate() error {
	invalid := func(key string, format string, args ...interface{}) error {
		return errors.Newf(errors.ErrConfigValid, format, args...).WithDetail("key", key)
	}
	if c.Naming.Separator == "" {
		return invalid("naming.separator", "naming.separator must not be empty")
	}
	if c.Naming.FirstSuffix < 0 {
		return invalid("naming.first_suffix", "naming.first_suffix must not be negative, got %d", c.Naming.FirstSuffix)
	}
	if c.Units.RelativeTolerance < 0 || c.Units.RelativeTolerance >= 1 {
		return invalid("units.relative_tolerance", "units.relative_tolerance must be in [0, 1), got %g", c.Units.RelativeTolerance)
	}
	if c.Output.StagingSuffix == "" {
		return invalid("output.staging_suffix", "output.staging_suffix must not be empty")
	}
	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		return invalid("report.format", "report.format %q is not one of toml, yaml, json, xml, cbor", c.Report.Format)
	}
	return nil
}

// MergeOptions converts the configuration into options for merge.Merge.
func (c *Config) MergeOptions() merge.Options {
	return merge.Options{
		LibraryName:   c.Output.LibraryName,
		UnitTolerance: c.Units.RelativeTolerance,
		Naming: []naming.Option{
			naming.WithSeparator(c.Naming.Separator),
			naming.WithFirstSuffix(c.Naming.FirstSuffix),
		},
		StagingSuffix: c.Output.StagingSuffix,
		FileMode:      c.Output.FileMode,
	}
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// stringToFileModeHookFunc parses octal strings such as "0644" into an
// os.FileMode.
func stringToFileModeHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(os.FileMode(0)) || from.Kind() != reflect.String {
			return data, nil
		}
		mode, err := strconv.ParseUint(data.(string), 8, 32)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigValid, "invalid file mode %q", data)
		}
		return os.FileMode(mode), nil
	}
}
