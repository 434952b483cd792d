// Package config loads tinyrel settings.
//
// Precedence (highest to lowest): flags > TINYREL_ env vars > tinyrel.yaml >
// defaults.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

const (
	EnvPrefix         = "TINYREL_"
	DefaultGRPCAddr   = "127.0.0.1:9090"
	DefaultHTTPAddr   = "127.0.0.1:8080"
	DefaultFormat     = "tsv"
	DefaultLogLevel   = "info"
	DefaultJWTIssuer  = "tinyrel"
	defaultConfigName = "tinyrel"
)

// Config is the full tinyrel configuration.
type Config struct {
	Key         string           `koanf:"key"`
	LogLevel    string           `koanf:"log_level"`
	Format      string           `koanf:"format"`
	HistoryFile string           `koanf:"history_file"`
	Server      ServerConfig     `koanf:"server"`
	Auth        AuthConfig       `koanf:"auth"`
	Checkpoint  CheckpointConfig `koanf:"checkpoint"`
	S3          S3Config         `koanf:"s3"`
}

// ServerConfig holds listen addresses. An empty address disables that
// listener.
type ServerConfig struct {
	GRPC string `koanf:"grpc"`
	HTTP string `koanf:"http"`
}

// AuthConfig enables HS256 bearer tokens when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	Issuer    string `koanf:"issuer"`
}

// CheckpointConfig schedules periodic SAVE_AS of the command log.
type CheckpointConfig struct {
	Schedule string `koanf:"schedule"`
	Dest     string `koanf:"dest"`
}

type S3Config struct {
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"key":             "key",
	"log-level":       "log_level",
	"format":          "format",
	"history-file":    "history_file",
	"grpc-addr":       "server.grpc",
	"http-addr":       "server.http",
	"jwt-secret":      "auth.jwt_secret",
	"checkpoint":      "checkpoint.schedule",
	"checkpoint-dest": "checkpoint.dest",
}

// nestedSections are the config sections whose env vars carry a section
// prefix, e.g. TINYREL_S3_ACCESS_KEY -> s3.access_key.
var nestedSections = []string{"server", "auth", "checkpoint", "s3"}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, sec := range nestedSections {
		if strings.HasPrefix(key, sec+"_") {
			return sec + "." + strings.TrimPrefix(key, sec+"_")
		}
	}
	return key
}

// findConfigFile finds the config file to use.
// Priority: explicit path > tinyrel.yaml > tinyrel.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{defaultConfigName + ".yaml", defaultConfigName + ".yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load reads configuration from defaults, the config file, the environment
// and changed flags. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"log_level":   DefaultLogLevel,
		"format":      DefaultFormat,
		"server.grpc": DefaultGRPCAddr,
		"server.http": DefaultHTTPAddr,
		"auth.issuer": DefaultJWTIssuer,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// KeyKind parses the configured key type. It is required.
func (c *Config) KeyKind() (storage.KeyKind, error) {
	if strings.TrimSpace(c.Key) == "" {
		return 0, fmt.Errorf("key type is required (--key int|string)")
	}
	return storage.ParseKeyKind(c.Key)
}

// Remote returns the settings for s3:// log paths.
func (c *Config) Remote() storage.RemoteConfig {
	return storage.RemoteConfig{
		Region:    c.S3.Region,
		Endpoint:  c.S3.Endpoint,
		AccessKey: c.S3.AccessKey,
		SecretKey: c.S3.SecretKey,
	}
}

// NewLogger builds a text logger at the configured level.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
