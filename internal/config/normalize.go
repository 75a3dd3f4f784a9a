package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeTiers()
	c.normalizeMatching()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("CARDSCAN_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = filepath.Join(c.Paths.DataDir, defaultStoreFile)
	}
	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("CARDSCAN_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeTiers() {
	if len(c.Tiers.FrontSubgrades) == 0 {
		c.Tiers.FrontSubgrades = DefaultFrontSubgrades()
	}
	if len(c.Tiers.BackSubgrades) == 0 {
		c.Tiers.BackSubgrades = DefaultBackSubgrades()
	}
	sortSubgrades(c.Tiers.FrontSubgrades)
	sortSubgrades(c.Tiers.BackSubgrades)
}

func sortSubgrades(buckets []Subgrade) {
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].MaxWorst < buckets[j].MaxWorst
	})
}

func (c *Config) normalizeMatching() {
	if c.Matching.ShortlistSize <= 0 {
		c.Matching.ShortlistSize = defaultShortlistSize
	}
	if c.Matching.CandidateLimit <= 0 {
		c.Matching.CandidateLimit = defaultCandidateLimit
	}
}
