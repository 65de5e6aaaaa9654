package diskusage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jon4hz/neurofit/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	cfg := &config.Config{
		StaticDir: "./data/",
		Database:  &config.DatabaseConfig{Driver: config.DatabaseDriverSQLite, Path: "./data/neurofit.db"},
	}
	assert.Equal(t, []string{"data"}, Paths(cfg))

	cfg.StaticDir = "/srv/static"
	assert.Equal(t, []string{"data", "/srv/static"}, Paths(cfg))

	cfg.Database = &config.DatabaseConfig{Driver: config.DatabaseDriverMySQL, DSN: "user@tcp(db)/neurofit"}
	assert.Equal(t, []string{"/srv/static"}, Paths(cfg))

	assert.Nil(t, Paths(nil))
}

func TestHighest(t *testing.T) {
	dir := t.TempDir()

	usage, err := Highest(context.Background(), []string{dir, filepath.Join(dir, "does-not-exist")})
	require.NoError(t, err)
	assert.Equal(t, dir, usage.Path)
	assert.Positive(t, usage.Total)
	assert.GreaterOrEqual(t, usage.UsedPercent, 0.0)

	_, err = Highest(context.Background(), nil)
	assert.Error(t, err)

	_, err = Highest(context.Background(), []string{filepath.Join(dir, "does-not-exist")})
	assert.Error(t, err)
}
