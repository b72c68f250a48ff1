package internal

import (
	"context"
	"testing"

	tb "github.com/lychee-technology/tablebridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineSession_DefaultsToInMemoryAndHealthy(t *testing.T) {
	session, err := NewEngineSession(tb.EngineConfig{}, tb.ObjectStoreConfig{})
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.HealthCheck(context.Background()))
	assert.NotNil(t, session.Engine())
}

func TestNewEngineSession_AppliesSearchPath(t *testing.T) {
	session, err := NewEngineSession(
		tb.EngineConfig{DBPath: ":memory:"},
		tb.ObjectStoreConfig{},
		WithSearchPath("main"),
	)
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, []string{"main"}, session.SearchPath)
}

func TestNewEngineSession_EngineIsUsableForRegisterAndQuery(t *testing.T) {
	session, err := NewEngineSession(tb.EngineConfig{}, tb.ObjectStoreConfig{})
	require.NoError(t, err)
	defer session.Close()

	batch := intBatch([]int64{1, 2, 3})
	engine := session.Engine()
	require.NoError(t, engine.RegisterBatch(context.Background(), "t_session", batch))
	defer engine.Deregister(context.Background(), "t_session")

	rows, err := engine.Query(context.Background(), "SELECT count(*) AS c FROM t_session")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, 1, rows[0].NumRows())
}

func TestEngineSession_CloseIsIdempotentOnNil(t *testing.T) {
	var s *EngineSession
	assert.NoError(t, s.Close())
}
