package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/xgrid/internal/layout"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 25.0, cfg.Grid.K, 0.001)
	assert.InDelta(t, 25.0, cfg.Grid.CellSizeOnScreen, 0.001)
	assert.Equal(t, PresetConfig{Rows: 45, Cols: 30}, cfg.Grid.A4)
	assert.Equal(t, PresetConfig{Rows: 45, Cols: 73}, cfg.Grid.A3)
	assert.Equal(t, 5000, cfg.Worksheet.ScaleDenominator)
	assert.Equal(t, "xgrid.db", cfg.Store.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
grid:
  k: 20
  a3:
    cols: 80
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 20.0, cfg.Grid.K, 0.001)
	assert.Equal(t, 80, cfg.Grid.A3.Cols)
	assert.Equal(t, 45, cfg.Grid.A3.Rows)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, "xgrid.db", cfg.Store.Path)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store:\n  path: file.db\n"), 0o644))

	t.Setenv("XGRID_STORE_PATH", "env.db")
	t.Setenv("XGRID_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("grid: [\n"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestSettings(t *testing.T) {
	cfg := &Config{Grid: GridConfig{
		K:                25,
		CellSizeOnScreen: 30,
		A4:               PresetConfig{Rows: 40, Cols: 28},
		A3:               PresetConfig{Rows: 45, Cols: 73},
	}}

	s := cfg.Settings()
	assert.InDelta(t, 25.0, s.K, 0.001)
	assert.InDelta(t, 30.0, s.CellSize, 0.001)
	require.Len(t, s.Presets, 2)
	assert.Equal(t, layout.Preset{Name: "A4", Rows: 40, Cols: 28, Orientation: layout.Portrait}, s.Presets[0])
	assert.Equal(t, layout.Landscape, s.Presets[1].Orientation)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero k", mutate: func(c *Config) { c.Grid.K = 0 }, wantErr: "grid.k"},
		{name: "zero cell size", mutate: func(c *Config) { c.Grid.CellSizeOnScreen = 0 }, wantErr: "cell_size_on_screen"},
		{name: "bad preset", mutate: func(c *Config) { c.Grid.A3.Cols = 0 }, wantErr: "grid.a3"},
		{name: "bad scale", mutate: func(c *Config) { c.Worksheet.ScaleDenominator = -1 }, wantErr: "scale_denominator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Grid: GridConfig{
					K: 25, CellSizeOnScreen: 25,
					A4: PresetConfig{Rows: 45, Cols: 30},
					A3: PresetConfig{Rows: 45, Cols: 73},
				},
				Worksheet: WorksheetConfig{ScaleDenominator: 5000},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateServe(t *testing.T) {
	assert.NoError(t, (&Config{Server: ServerConfig{Port: 8080}}).ValidateServe())
	assert.Error(t, (&Config{Server: ServerConfig{Port: 0}}).ValidateServe())
	assert.Error(t, (&Config{Server: ServerConfig{Port: 70000}}).ValidateServe())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
