// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and discovers per-project configuration for the
// indexer, stored as YAML under a ".pysymbols" directory at the project root.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	apperrors "github.com/kraklabs/pysymbols/internal/errors"
)

// ConfigDirName is the per-project directory holding config and, by
// default, the cache database.
const ConfigDirName = ".pysymbols"

// ConfigFileName is the config file within ConfigDirName.
const ConfigFileName = "project.yaml"

// Config is one project's persisted settings.
type Config struct {
	ProjectRoot      string `yaml:"-"`
	CacheDir         string `yaml:"cache_dir,omitempty"`
	OpenAIAPIKey     string `yaml:"openai_api_key,omitempty"`
	OpenAIModel      string `yaml:"openai_model,omitempty"`
	SemanticFallback bool   `yaml:"semantic_fallback"`
	MetricsAddr      string `yaml:"metrics_addr,omitempty"`
	LogDir           string `yaml:"log_dir,omitempty"`
}

// Default returns a Config with every field set to its baseline value for a
// freshly initialized project rooted at projectRoot.
func Default(projectRoot string) Config {
	return Config{
		ProjectRoot:      projectRoot,
		SemanticFallback: false,
	}
}

// ConfigPath returns the path to the config file under projectRoot.
func ConfigPath(projectRoot string) string {
	return filepath.Join(projectRoot, ConfigDirName, ConfigFileName)
}

// Discover walks upward from startDir looking for a ".pysymbols" directory,
// returning the directory that contains it (the project root). It returns
// an empty string with no error if none is found by the filesystem root.
func Discover(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", apperrors.NewInternalError(
			"Cannot resolve starting directory",
			err.Error(),
			"Pass an absolute path explicitly",
			err,
		)
	}

	for {
		candidate := filepath.Join(dir, ConfigDirName)
		if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads the config file for projectRoot, applying environment overrides
// on top of whatever the file holds.
func Load(projectRoot string) (*Config, error) {
	path := ConfigPath(projectRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default(projectRoot)
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, apperrors.NewConfigError(
			"Cannot read configuration file",
			"Failed to read "+path,
			"Check file permissions or run 'pysymbols init' to create one",
			err,
		)
	}

	cfg := Default(projectRoot)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.NewConfigError(
			"Cannot parse configuration file",
			"Invalid YAML in "+path,
			"Check the file for syntax errors",
			err,
		)
	}
	cfg.ProjectRoot = projectRoot

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// Save writes cfg to its project's config file, creating the .pysymbols
// directory if necessary.
func Save(cfg *Config) error {
	dir := filepath.Join(cfg.ProjectRoot, ConfigDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewPermissionError(
			"Cannot create configuration directory",
			"Failed to create "+dir,
			"Check directory permissions",
			err,
		)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return apperrors.NewInternalError(
			"Cannot serialize configuration",
			err.Error(),
			"",
			err,
		)
	}

	path := ConfigPath(cfg.ProjectRoot)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.NewPermissionError(
			"Cannot write configuration file",
			"Failed to write "+path,
			"Check directory permissions",
			err,
		)
	}
	return nil
}

// CacheDirFor resolves the effective cache directory: the configured
// override, or ".pysymbols/cache" under the project root.
func (c *Config) CacheDirFor() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	return filepath.Join(c.ProjectRoot, ConfigDirName, "cache")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PYSYMBOLS_OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("PYSYMBOLS_OPENAI_MODEL"); v != "" {
		cfg.OpenAIModel = v
	}
	if v := os.Getenv("PYSYMBOLS_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
}
