package tablebridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_PassesItsOwnValidation(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfig_ValidateRejectsNonPositiveMaxConnections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.MaxConnections = 0
	err := cfg.Validate()
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "engine.maxConnections", cfgErr.Field)
}

func TestConfig_ValidateRejectsEmptyDBPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.DBPath = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.dbPath")
}

func TestConfig_ValidateRejectsUnknownDefaultScheme(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObjectStore.DefaultScheme = "gcs"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "objectStore.defaultScheme")
}

func TestConfig_ValidateAcceptsFileScheme(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObjectStore.DefaultScheme = "file"
	assert.NoError(t, cfg.Validate())
}
