package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("key", "", "")
	fs.String("format", DefaultFormat, "")
	fs.String("grpc-addr", DefaultGRPCAddr, "")
	fs.String("checkpoint", "", "")
	fs.Bool("verbose", false, "")
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tinyrel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultFormat, cfg.Format)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultGRPCAddr, cfg.Server.GRPC)
	assert.Equal(t, DefaultHTTPAddr, cfg.Server.HTTP)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.GRPC)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.HTTP)
	assert.Equal(t, DefaultJWTIssuer, cfg.Auth.Issuer)
	assert.Empty(t, cfg.Key)

	_, err = cfg.KeyKind()
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
key: string
format: table
server:
  grpc: ":7000"
  http: ":7001"
checkpoint:
  schedule: "@hourly"
  dest: s3://bucket/log.txt
s3:
  region: eu-central-1
  access_key: from-file
`)
	t.Setenv("TINYREL_FORMAT", "csv")
	t.Setenv("TINYREL_S3_ACCESS_KEY", "from-env")
	t.Setenv("TINYREL_SERVER_HTTP", ":9999")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--format", "json", "--checkpoint", "@every 5m"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "@every 5m", cfg.Checkpoint.Schedule)
	assert.Equal(t, "s3://bucket/log.txt", cfg.Checkpoint.Dest)
	assert.Equal(t, ":7000", cfg.Server.GRPC)
	assert.Equal(t, ":9999", cfg.Server.HTTP)

	kind, err := cfg.KeyKind()
	require.NoError(t, err)
	assert.Equal(t, storage.StringKeyed, kind)

	remote := cfg.Remote()
	assert.Equal(t, "eu-central-1", remote.Region)
	assert.Equal(t, "from-env", remote.AccessKey)
}

func TestUnchangedFlagsDoNotOverride(t *testing.T) {
	path := writeConfig(t, "key: int\nserver:\n  grpc: \":7000\"\n")
	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--verbose"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.GRPC)
	assert.Equal(t, "int", cfg.Key)
}

func TestLoadBadFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	path := writeConfig(t, "key: [unterminated\n")
	_, err = Load(path, nil)
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "log_level", envKey("TINYREL_LOG_LEVEL"))
	assert.Equal(t, "s3.secret_key", envKey("TINYREL_S3_SECRET_KEY"))
	assert.Equal(t, "auth.jwt_secret", envKey("TINYREL_AUTH_JWT_SECRET"))
	assert.Equal(t, "checkpoint.dest", envKey("TINYREL_CHECKPOINT_DEST"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "warn"}
	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	cfg.LogLevel = "loud"
	_, err = cfg.NewLogger(&buf)
	assert.Error(t, err)
}
