package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOpenSource(t *testing.T) {
	t.Run("embedded", func(t *testing.T) {
		src, name, err := openSource("")
		require.NoError(t, err)
		t.Cleanup(func() { _ = src.Close() })
		assert.Equal(t, "iofs", name)

		first, err := src.First()
		require.NoError(t, err)
		assert.Equal(t, uint(1), first)
	})

	t.Run("directory", func(t *testing.T) {
		dir := t.TempDir()
		_, err := CreateMigration(dir, "add_refill_index", "")
		require.NoError(t, err)

		src, name, err := openSource(dir)
		require.NoError(t, err)
		t.Cleanup(func() { _ = src.Close() })
		assert.Equal(t, "file", name)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, _, err := openSource(t.TempDir() + "/nope")
		assert.Error(t, err)
	})
}

func TestMigrateLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l := migrateLogger{zap.New(core).Sugar()}

	assert.True(t, l.Verbose())
	l.Printf("Start buffering %d/u %s\n", 1, "init_schema")

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "Start buffering 1/u init_schema", recorded.All()[0].Message)

	quiet := migrateLogger{zap.NewNop().Sugar()}
	assert.False(t, quiet.Verbose())
}
