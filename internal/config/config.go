// Package config loads service configuration from defaults, an optional
// YAML file, FLIGHTPRICE_* environment variables and bound CLI flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// FLIGHTPRICE_HTTP_PORT for http.port.
const EnvPrefix = "FLIGHTPRICE"

// Keys understood by Load.
const (
	KeyVerbose         = "verbose"
	KeyHTTPAddr        = "http.addr"
	KeyHTTPPort        = "http.port"
	KeyIncludeVector   = "http.include_vector"
	KeyShutdownTimeout = "http.shutdown_timeout"
	KeyModelPath       = "model.path"
	KeyTablesPath      = "model.tables_path"
	KeyMinDuration     = "pricing.min_duration_mins"
	KeyHistoryDSN      = "history.dsn"
	KeyHistoryCSV      = "history.csv"
	KeyMemoryMode      = "runtime.memory_mode"
	KeyMaxProcs        = "runtime.max_procs"
	KeyGCPercent       = "runtime.gc_percent"
	KeyMemoryLimitMB   = "runtime.memory_limit_mb"
	KeySoftLimitMB     = "runtime.soft_limit_mb"
	KeyShedOnPressure  = "runtime.shed_on_pressure"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Config holds application configuration.
type Config struct {
	Verbose bool

	// Server
	HTTPAddr        string
	HTTPPort        int
	IncludeVector   bool
	ShutdownTimeout time.Duration

	// Model artifacts. An empty TablesPath uses the built-in tables.
	ModelPath  string
	TablesPath string

	// Pricing
	MinDurationMins int

	// History store
	HistoryDSN string
	HistoryCSV string

	Runtime Runtime
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPAddr, c.HTTPPort)
}

// Validate reports configuration that cannot be served.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("%s: %d out of range", KeyHTTPPort, c.HTTPPort))
	}
	if c.MinDurationMins < 0 {
		errs = append(errs, fmt.Errorf("%s: must not be negative", KeyMinDuration))
	}
	if c.HistoryDSN == "" {
		errs = append(errs, fmt.Errorf("%s: required", KeyHistoryDSN))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", KeyShutdownTimeout))
	}
	if c.Runtime.SoftLimitMB > 0 && c.Runtime.MemoryLimitMB > 0 && c.Runtime.SoftLimitMB > c.Runtime.MemoryLimitMB {
		errs = append(errs, fmt.Errorf("%s: %dMB exceeds %s %dMB",
			KeySoftLimitMB, c.Runtime.SoftLimitMB, KeyMemoryLimitMB, c.Runtime.MemoryLimitMB))
	}
	return errors.Join(errs...)
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// SetDefaults registers every key with its default value. Keys must be
// registered for environment overrides to apply.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyHTTPAddr, "0.0.0.0")
	v.SetDefault(KeyHTTPPort, 8080)
	v.SetDefault(KeyIncludeVector, false)
	v.SetDefault(KeyShutdownTimeout, 10*time.Second)
	v.SetDefault(KeyModelPath, "")
	v.SetDefault(KeyTablesPath, "")
	v.SetDefault(KeyMinDuration, 30)
	v.SetDefault(KeyHistoryDSN, "flightprice.db")
	v.SetDefault(KeyHistoryCSV, "")
	v.SetDefault(KeyMemoryMode, MemoryModeNormal.String())
	v.SetDefault(KeyMaxProcs, 0)
	v.SetDefault(KeyGCPercent, 0)
	v.SetDefault(KeyMemoryLimitMB, 0)
	v.SetDefault(KeySoftLimitMB, 0)
	v.SetDefault(KeyShedOnPressure, false)
}

// New returns a viper instance with defaults and environment overrides
// wired. When cfgFile is empty, .flightprice.yaml is looked up in the
// working directory and then $HOME; a missing file is not an error.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".flightprice")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// BindFlags binds CLI flags to keys. Flags that are not present are skipped.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for key, name := range bindings {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the configuration out of v, resolves the runtime preset and
// validates the result.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Verbose:         v.GetBool(KeyVerbose),
		HTTPAddr:        v.GetString(KeyHTTPAddr),
		HTTPPort:        v.GetInt(KeyHTTPPort),
		IncludeVector:   v.GetBool(KeyIncludeVector),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
		ModelPath:       v.GetString(KeyModelPath),
		TablesPath:      v.GetString(KeyTablesPath),
		MinDurationMins: v.GetInt(KeyMinDuration),
		HistoryDSN:      v.GetString(KeyHistoryDSN),
		HistoryCSV:      v.GetString(KeyHistoryCSV),
	}

	mode, err := ParseMemoryMode(v.GetString(KeyMemoryMode))
	if err != nil {
		return cfg, err
	}
	cfg.Runtime = Runtime{
		Mode:           mode,
		MaxProcs:       v.GetInt(KeyMaxProcs),
		GCPercent:      v.GetInt(KeyGCPercent),
		MemoryLimitMB:  v.GetInt(KeyMemoryLimitMB),
		SoftLimitMB:    v.GetInt(KeySoftLimitMB),
		ShedOnPressure: v.GetBool(KeyShedOnPressure),
	}.Resolve()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
