package config

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/persistid/pkg/database"
	"github.com/hashicorp-forge/persistid/pkg/pid"
	"github.com/hashicorp-forge/persistid/pkg/pid/doi"
	"github.com/hashicorp-forge/persistid/pkg/pid/handle"
)

const fullConfig = `
log_level = "DEBUG"

database {
  driver       = "postgres"
  host         = "db.internal"
  user         = "persistid"
  password     = "secret"
  dbname       = "persistid"
  auto_migrate = true
}

identifiers {
  preferred_namespace = "doi"

  scheme "hdl" {
    kind     = "handle"
    protocol = "https"
    base_uri = "hdl.handle.net"
    prefix   = "123456789"
    assign   = true
  }

  scheme "doi" {
    kind             = "doi"
    protocol         = "https"
    base_uri         = "doi.org"
    retain_tombstone = false
  }
}

kafka {
  brokers       = ["kafka-1:9092", "kafka-2:9092"]
  topic         = "persistid.identifiers"
  poll_interval = "250ms"
  batch_size    = 50
}
`

func writeConfig(t *testing.T, src string) (afero.Fs, string) {
	t.Helper()

	fs := afero.NewMemMapFs()
	path := "/etc/persistid/config.hcl"
	require.NoError(t, afero.WriteFile(fs, path, []byte(src), 0o644))
	return fs, path
}

type sequenceSource struct{ next int }

func (s *sequenceSource) NextSuffix(ctx context.Context, prefix string) (string, error) {
	s.next++
	return "100" + string(rune('0'+s.next)), nil
}

func TestLoadConfig(t *testing.T) {
	fs, path := writeConfig(t, fullConfig)

	cfg, err := LoadConfig(fs, path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)

	require.NotNil(t, cfg.Database)
	assert.Equal(t, database.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port, "postgres port should default")
	assert.True(t, cfg.Database.AutoMigrate)

	dbCfg := cfg.Database.DatabaseConfig()
	assert.Equal(t, "db.internal", dbCfg.Host)
	assert.Equal(t, "persistid", dbCfg.DBName)

	require.NotNil(t, cfg.Identifiers)
	assert.Equal(t, "doi", cfg.Identifiers.PreferredNamespace)
	require.Len(t, cfg.Identifiers.Schemes, 2)
	assert.Equal(t, "hdl", cfg.Identifiers.Schemes[0].Namespace)
	assert.Equal(t, "doi", cfg.Identifiers.Schemes[1].Namespace)

	require.NotNil(t, cfg.Kafka)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "persistid.identifiers", cfg.Kafka.Topic)
	assert.Equal(t, 250*time.Millisecond, cfg.Kafka.PollIntervalDuration())
	assert.Equal(t, 50, cfg.Kafka.BatchSize)
}

func TestLoadConfig_Defaults(t *testing.T) {
	fs, path := writeConfig(t, `
database {
  driver = "sqlite"
  path   = "persistid.db"
}
`)

	cfg, err := LoadConfig(fs, path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.Database.Port, "sqlite has no port")
	assert.Equal(t, DefaultIdentifiers(), cfg.Identifiers)
	require.NotNil(t, cfg.Kafka)
	assert.Zero(t, cfg.Kafka.PollIntervalDuration())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "trace")
	fs, path := writeConfig(t, fullConfig)

	cfg, err := LoadConfig(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.NotNil(t, cfg.Logger("persistid"))
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(afero.NewMemMapFs(), "/nope.hcl")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("syntax error", func(t *testing.T) {
		fs, path := writeConfig(t, `database {`)
		_, err := LoadConfig(fs, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error decoding config file")
	})

	t.Run("unknown attribute", func(t *testing.T) {
		fs, path := writeConfig(t, `colour = "blue"`)
		_, err := LoadConfig(fs, path)
		assert.Error(t, err)
	})
}

func TestLoadConfig_ValidationReportsEveryProblem(t *testing.T) {
	fs, path := writeConfig(t, `
log_level = "loud"

database {
  driver = "sqlite"
}

identifiers {
  preferred_namespace = "ark"

  scheme "hdl" {
    kind   = "handle"
    assign = true
  }

  scheme "hdl" {
    kind = "handle"
  }

  scheme "doi" {
    kind   = "doi"
    assign = true
  }

  scheme "uuid" {
    kind = "handle"
  }

  scheme "urn" {
    kind = "urn"
  }
}

kafka {
  poll_interval = "soon"
}
`)

	_, err := LoadConfig(fs, path)
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"log_level",
		"path",
		`scheme "hdl": prefix`,
		`scheme "hdl": declared more than once`,
		`scheme "doi": assign`,
		`scheme "uuid": namespace`,
		`scheme "urn": kind`,
		`preferred_namespace "ark"`,
		"poll_interval",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestIdentifiers_BuildRegistry(t *testing.T) {
	fs, path := writeConfig(t, fullConfig)
	cfg, err := LoadConfig(fs, path)
	require.NoError(t, err)

	reg, err := cfg.Identifiers.BuildRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"hdl", "doi"}, reg.Namespaces())

	hdl, ok := reg.ByNamespace("hdl")
	require.True(t, ok)
	assert.Equal(t, handle.Kind, hdl.Kind())
	assert.Equal(t, "hdl.handle.net", hdl.BaseURI())
	assert.True(t, hdl.RetainTombstone())

	d, ok := reg.ByNamespace("doi")
	require.True(t, ok)
	assert.Equal(t, doi.Kind, d.Kind())
	assert.False(t, d.RetainTombstone())
}

func TestIdentifiers_BuildAssigners(t *testing.T) {
	fs, path := writeConfig(t, fullConfig)
	cfg, err := LoadConfig(fs, path)
	require.NoError(t, err)

	reg, err := cfg.Identifiers.BuildRegistry()
	require.NoError(t, err)

	assigners, err := cfg.Identifiers.BuildAssigners(reg, &sequenceSource{})
	require.NoError(t, err)
	require.Len(t, assigners, 1, "only the handle scheme is assigned")
	assert.Equal(t, "hdl", assigners[0].Type().Namespace())

	native, err := pid.NewNativeID(uuid.New(), pid.ResourceTypeItem, 7)
	require.NoError(t, err)
	ext, err := assigners[0].Mint(context.Background(), nil, native)
	require.NoError(t, err)
	assert.Equal(t, "hdl:123456789/1001", ext.Canonical())

	t.Run("unregistered scheme", func(t *testing.T) {
		empty, err := pid.NewRegistry()
		require.NoError(t, err)

		_, err = cfg.Identifiers.BuildAssigners(empty, &sequenceSource{})
		assert.Error(t, err)
	})
}

func TestLoadConfig_ExampleFile(t *testing.T) {
	cfg, err := LoadConfig(afero.NewReadOnlyFs(afero.NewOsFs()), "../../configs/persistid.hcl")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "hdl", cfg.Identifiers.PreferredNamespace)
	assert.Equal(t, 2*time.Second, cfg.Kafka.PollIntervalDuration())

	reg, err := cfg.Identifiers.BuildRegistry()
	require.NoError(t, err)
	assigners, err := cfg.Identifiers.BuildAssigners(reg, &sequenceSource{})
	require.NoError(t, err)
	assert.Len(t, assigners, 1)
}
