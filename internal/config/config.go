package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nulzo/prism-local/internal/registry"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Data        DataConfig        `mapstructure:"data"`
	Runtime     RuntimeConfig     `mapstructure:"runtime"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Log         LogConfig         `mapstructure:"log"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	UpdateCheck UpdateCheckConfig `mapstructure:"update_check"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              string        `mapstructure:"port"`
	Env               string        `mapstructure:"env"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	// DebugAddr serves expvar and pprof when set, e.g. 127.0.0.1:6060.
	DebugAddr string `mapstructure:"debug_addr"`
}

// DataConfig points at the data root and describes the models directory
// inside it.
type DataConfig struct {
	Root         string `mapstructure:"root"`
	ModelsDir    string `mapstructure:"models_dir"`
	MetadataFile string `mapstructure:"metadata_file"`
	Layout       string `mapstructure:"layout"`
	DeleteObject string `mapstructure:"delete_object"`
}

// Models is the registry configuration for installed models.
func (c DataConfig) Models() registry.Configuration {
	return registry.Configuration{
		DirName:          c.ModelsDir,
		MetadataFileName: c.MetadataFile,
		Layout:           registry.Layout(c.Layout),
		Delete:           registry.DeleteConfig{Object: c.DeleteObject},
	}
}

// RuntimeConfig locates the local inference runtime.
type RuntimeConfig struct {
	BaseURL               string        `mapstructure:"base_url"`
	ChatPath              string        `mapstructure:"chat_path"`
	HealthPath            string        `mapstructure:"health_path"`
	LocalEngine           string        `mapstructure:"local_engine"`
	BackendTag            string        `mapstructure:"backend_tag"`
	DialTimeout           time.Duration `mapstructure:"dial_timeout"`
	ResponseHeaderTimeout time.Duration `mapstructure:"response_header_timeout"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	Enabled  bool   `mapstructure:"enabled"`
}

type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

type UpdateCheckConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Repo    string `mapstructure:"repo"`
}

// Addr is the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"port":     "server.port",
	"data-dir": "data.root",
}

// RegisterFlags adds the flags that override config keys to fs. Pass the same
// set to LoadConfig after parsing.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("port", "p", "", "listen port (overrides server.port)")
	fs.StringP("data-dir", "d", "", "data root holding the models directory (overrides data.root)")
}

// LoadConfig reads configuration from file or environment variables. An
// explicit configFile wins over CONFIG_FILE, which wins over the default
// search paths. Flags from RegisterFlags that were set on the command line
// win over everything else. flags may be nil.
func LoadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	// Environment Variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	root, err := expandHome(cfg.Data.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve data root: %w", err)
	}
	cfg.Data.Root = root

	if cfg.Database.Path != "" && !filepath.IsAbs(cfg.Database.Path) {
		cfg.Database.Path = filepath.Join(cfg.Data.Root, cfg.Database.Path)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "1337")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.debug_addr", "")

	v.SetDefault("data.root", "~/prism")
	v.SetDefault("data.models_dir", "models")
	v.SetDefault("data.metadata_file", "model.json")
	v.SetDefault("data.layout", "nested")
	v.SetDefault("data.delete_object", "model")

	v.SetDefault("runtime.base_url", "http://127.0.0.1:3928")
	v.SetDefault("runtime.chat_path", "/inferences/server/chat_completion")
	v.SetDefault("runtime.health_path", "/healthz")
	v.SetDefault("runtime.local_engine", "nitro")
	v.SetDefault("runtime.backend_tag", "cortex.llamacpp")
	v.SetDefault("runtime.dial_timeout", 5*time.Second)
	v.SetDefault("runtime.response_header_timeout", 0)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "prism:")

	v.SetDefault("database.enabled", true)
	v.SetDefault("database.path", "prism.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "prism-local")

	v.SetDefault("update_check.enabled", false)
	v.SetDefault("update_check.repo", "nulzo/prism-local")
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
