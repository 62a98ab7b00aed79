package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/xgrid/internal/layout"
	"github.com/sells-group/xgrid/internal/session"
)

// Config holds the full application configuration.
type Config struct {
	Grid      GridConfig      `yaml:"grid" mapstructure:"grid"`
	Worksheet WorksheetConfig `yaml:"worksheet" mapstructure:"worksheet"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// GridConfig configures the reference grid.
type GridConfig struct {
	K                float64      `yaml:"k" mapstructure:"k"`
	CellSizeOnScreen float64      `yaml:"cell_size_on_screen" mapstructure:"cell_size_on_screen"`
	A4               PresetConfig `yaml:"a4" mapstructure:"a4"`
	A3               PresetConfig `yaml:"a3" mapstructure:"a3"`
}

// PresetConfig overrides a preset's dimensions.
type PresetConfig struct {
	Rows int `yaml:"rows" mapstructure:"rows"`
	Cols int `yaml:"cols" mapstructure:"cols"`
}

// WorksheetConfig configures worksheet presentation.
type WorksheetConfig struct {
	ScaleDenominator int `yaml:"scale_denominator" mapstructure:"scale_denominator"`
}

// StoreConfig configures run history storage.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Settings converts the grid section into session settings, smallest preset
// first.
func (c *Config) Settings() session.Settings {
	a4 := layout.A4
	a4.Rows, a4.Cols = c.Grid.A4.Rows, c.Grid.A4.Cols
	a3 := layout.A3
	a3.Rows, a3.Cols = c.Grid.A3.Rows, c.Grid.A3.Cols
	return session.Settings{
		K:        c.Grid.K,
		CellSize: c.Grid.CellSizeOnScreen,
		Presets:  []layout.Preset{a4, a3},
	}
}

// Validate checks the values every command depends on.
func (c *Config) Validate() error {
	var missing []string
	if c.Grid.K <= 0 {
		missing = append(missing, "grid.k must be positive")
	}
	if c.Grid.CellSizeOnScreen <= 0 {
		missing = append(missing, "grid.cell_size_on_screen must be positive")
	}
	for name, p := range map[string]PresetConfig{"a4": c.Grid.A4, "a3": c.Grid.A3} {
		if p.Rows <= 0 || p.Cols <= 0 {
			missing = append(missing, "grid."+name+" rows and cols must be positive")
		}
	}
	if c.Worksheet.ScaleDenominator <= 0 {
		missing = append(missing, "worksheet.scale_denominator must be positive")
	}
	if len(missing) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(missing, "; "))
	}
	return nil
}

// ValidateServe checks the server section.
func (c *Config) ValidateServe() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return eris.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("XGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("grid.k", layout.DefaultK)
	v.SetDefault("grid.cell_size_on_screen", 25.0)
	v.SetDefault("grid.a4.rows", layout.A4.Rows)
	v.SetDefault("grid.a4.cols", layout.A4.Cols)
	v.SetDefault("grid.a3.rows", layout.A3.Rows)
	v.SetDefault("grid.a3.cols", layout.A3.Cols)
	v.SetDefault("worksheet.scale_denominator", 5000)
	v.SetDefault("store.path", "xgrid.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
