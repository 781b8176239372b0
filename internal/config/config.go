package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// OutputFormat selects what the renderer writes.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
)

func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want markdown or html)", s)
	}
}

// Ext returns the file extension for pages in this format.
func (f OutputFormat) Ext() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

// OutputStyle selects how a crate is split into pages.
type OutputStyle string

const (
	DocPerCrate OutputStyle = "doc-per-crate"
	DocPerMod   OutputStyle = "doc-per-mod"
)

func ParseOutputStyle(s string) (OutputStyle, error) {
	switch st := OutputStyle(strings.ToLower(strings.TrimSpace(s))); st {
	case DocPerCrate, DocPerMod:
		return st, nil
	default:
		return "", fmt.Errorf("unknown output style %q (want doc-per-crate or doc-per-mod)", s)
	}
}

type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

type DocsRsConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (c DocsRsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type RenderConfig struct {
	Format  OutputFormat `mapstructure:"format"`
	Style   OutputStyle  `mapstructure:"style"`
	Workers int          `mapstructure:"workers"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type Config struct {
	Cache  CacheConfig  `mapstructure:"cache"`
	DocsRs DocsRsConfig `mapstructure:"docs_rs"`
	Render RenderConfig `mapstructure:"render"`
	HTTP   HTTPConfig   `mapstructure:"http"`
}

// cacheBase returns the base cache directory for ferrisdoc.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/ferrisdoc as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "ferrisdoc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "ferrisdoc")
	}
	return filepath.Join(os.TempDir(), "ferrisdoc")
}

// CacheDir returns the cache root: cache.dir when set, the XDG location
// otherwise.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return expandHome(c.Cache.Dir)
	}
	return cacheBase()
}

// DBPath returns the path to the DuckDB catalogue file.
func (c *Config) DBPath() string {
	return filepath.Join(c.CacheDir(), "catalogue.db")
}

// CASDir returns the path to the content-addressable storage directory.
func (c *Config) CASDir() string {
	return filepath.Join(c.CacheDir(), "cas")
}

// JSONCacheDir returns the path to the rustdoc JSON cache directory.
func (c *Config) JSONCacheDir() string {
	return filepath.Join(c.CacheDir(), "json")
}

// LogPath returns the path of the log file written in MCP mode.
func (c *Config) LogPath() string {
	return filepath.Join(c.CacheDir(), "ferrisdoc.log")
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "ferrisdoc"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "ferrisdoc"))
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("FERRISDOC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.dir", "")
	v.SetDefault("docs_rs.base_url", "https://docs.rs")
	v.SetDefault("docs_rs.user_agent", "ferrisdoc/0.1.0")
	v.SetDefault("docs_rs.timeout_seconds", 60)
	v.SetDefault("render.format", string(FormatMarkdown))
	v.SetDefault("render.style", string(DocPerMod))
	v.SetDefault("render.workers", 8)
	v.SetDefault("http.addr", "127.0.0.1:7070")
}

// stringToOutputHookFunc validates render.format and render.style while
// decoding.
func stringToOutputHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		switch t {
		case reflect.TypeOf(OutputFormat("")):
			return ParseOutputFormat(data.(string))
		case reflect.TypeOf(OutputStyle("")):
			return ParseOutputStyle(data.(string))
		}
		return data, nil
	}
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}
	return decode(viper.AllSettings())
}

func decode(settings map[string]interface{}) (*Config, error) {
	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToOutputHookFunc(),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Render.Workers <= 0 {
		config.Render.Workers = 1
	}
	return &config, nil
}

// Default returns the configuration used when no file or environment
// overrides anything.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	config, err := decode(v.AllSettings())
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return config
}
