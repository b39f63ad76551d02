package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the monitor configuration. Flags take precedence over the
// YAML file: file values only fill in flags the user did not set.
type Config struct {
	ConfigFile    string
	Port          string
	Baud          int
	Channel       int
	Filter        string
	LogFile       string
	StatsInterval time.Duration
	Interactive   bool
	Debug         bool
	Fake          bool
}

// fileConfig mirrors the YAML layout. Pointer fields distinguish "absent"
// from zero values.
type fileConfig struct {
	Port          *string        `yaml:"port"`
	Baud          *int           `yaml:"baud"`
	Channel       *int           `yaml:"channel"`
	Filter        *string        `yaml:"filter"`
	LogFile       *string        `yaml:"log_file"`
	StatsInterval *time.Duration `yaml:"stats_interval"`
}

// Load merges the YAML config file, if one was given, under the flags.
// Call after flag.Parse.
func (c *Config) Load() error {
	if c.ConfigFile == "" {
		return c.validate()
	}

	data, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", c.ConfigFile, err)
	}

	set := flagsSet()
	if fc.Port != nil && !set["port"] {
		c.Port = *fc.Port
	}
	if fc.Baud != nil && !set["baud"] {
		c.Baud = *fc.Baud
	}
	if fc.Channel != nil && !set["channel"] {
		c.Channel = *fc.Channel
	}
	if fc.Filter != nil && !set["filter"] {
		c.Filter = *fc.Filter
	}
	if fc.LogFile != nil && !set["log"] {
		c.LogFile = *fc.LogFile
	}
	if fc.StatsInterval != nil && !set["stats"] {
		c.StatsInterval = *fc.StatsInterval
	}

	return c.validate()
}

func (c *Config) validate() error {
	if c.Channel < 1 || c.Channel > 14 {
		return fmt.Errorf("channel %d out of range 1-14", c.Channel)
	}
	return nil
}

// flagsSet returns the names of flags explicitly set on the command line.
func flagsSet() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}
