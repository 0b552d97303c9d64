// Package config holds the ambient defaults the rest of the module reads
// at startup: prompt text, log file naming, and the one tuning knob the
// core data structure exposes, the maximum leaf size.
//
// Grounded on the teacher's pkg/config/default.go, which is a bare
// constant block with no loader; this package adds a properties-file and
// environment-variable loader via github.com/magiconair/properties, since
// a complete module needs a way to configure NodeCapacity without a
// recompile.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/magiconair/properties"
)

// Name of the module, used as the REPL's default prompt prefix.
const Name = "cdcset"

// Prompt printed by the interactive REPL (package replcmd).
const Prompt = Name + "> "

// DefaultLogFileName is Default's value for Config.LogFileName.
const DefaultLogFileName = "cdcset.log"

// EnvNodeCapacity, when set, overrides NodeCapacity in Load.
const EnvNodeCapacity = "CDCSET_NODE_CAPACITY"

// Config is the set of values read at startup.
type Config struct {
	// NodeCapacity is the maximum number of elements a leaf holds before
	// a Put forces a split. Must be >= 2.
	NodeCapacity int
	// LogFileName is loaded from the log_file_name property. No other
	// package reads it: storectl names each table's CDC log
	// <table>.cdclog.
	LogFileName string
}

// Default returns the configuration used when no properties file or
// environment override is present.
func Default() Config {
	return Config{
		NodeCapacity: 1024,
		LogFileName:  DefaultLogFileName,
	}
}

// Load reads a Config from a .properties file at path (in the format
// github.com/magiconair/properties parses — "key = value" lines), falling
// back to Default for any field the file omits, then applying the
// CDCSET_NODE_CAPACITY environment variable, if set, over the result.
//
// Load tolerates a missing path: a file that doesn't exist yields the
// Default configuration rather than an error, since a fresh checkout of
// this module has no properties file yet.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			props, err := properties.LoadFile(path, properties.UTF8)
			if err != nil {
				return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
			}
			cfg.NodeCapacity = props.GetInt("node_capacity", cfg.NodeCapacity)
			cfg.LogFileName = props.GetString("log_file_name", cfg.LogFileName)
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	if v, ok := os.LookupEnv(EnvNodeCapacity); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s=%q: %w", EnvNodeCapacity, v, err)
		}
		cfg.NodeCapacity = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports an error if cfg has an unusable NodeCapacity.
func (c Config) Validate() error {
	if c.NodeCapacity < 2 {
		return fmt.Errorf("config: node capacity %d must be at least 2", c.NodeCapacity)
	}
	return nil
}
