package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML layout. Pointer fields distinguish "absent"
// from zero values so file values only fill in flags the user did not set.
type fileConfig struct {
	Port       *string        `yaml:"port"`
	Baud       *int           `yaml:"baud"`
	ChunkSize  *int           `yaml:"chunk_size"`
	CmdTimeout *time.Duration `yaml:"timeout"`
	LogFile    *string        `yaml:"log_file"`
}

// loadConfig merges the YAML config file, if one was given, under the
// flags. Call after flag.Parse.
func loadConfig(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	if fc.Port != nil && !set["port"] {
		port = *fc.Port
	}
	if fc.Baud != nil && !set["baud"] {
		baud = *fc.Baud
	}
	if fc.ChunkSize != nil && !set["chunk"] {
		chunkSize = *fc.ChunkSize
	}
	if fc.CmdTimeout != nil && !set["timeout"] {
		cmdTimeout = *fc.CmdTimeout
	}
	if fc.LogFile != nil && !set["log"] {
		logFile = *fc.LogFile
	}
	return nil
}
