package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Geometry contains the boundary quad acceptance thresholds.
type Geometry struct {
	// IdentityMinArea is the minimum normalized area for identity and
	// centering quads. Default: 0.2
	IdentityMinArea float64 `toml:"identity_min_area"`
	// PolygonMinArea is the lower bar used for detector confidence polygons.
	// Default: 0.001
	PolygonMinArea float64 `toml:"polygon_min_area"`
	AspectMin      float64 `toml:"aspect_min"`
	AspectMax      float64 `toml:"aspect_max"`
	// SoftAspectLow and SoftAspectHigh bound the comfortable aspect band;
	// accepted boxes outside it are soft warnings.
	SoftAspectLow  float64 `toml:"soft_aspect_low"`
	SoftAspectHigh float64 `toml:"soft_aspect_high"`
}

// Centering contains edge detection and confidence tuning for the centering analyzer.
type Centering struct {
	WorkingMaxSide     int     `toml:"working_max_side"`
	OuterThresholdK    float64 `toml:"outer_threshold_k"`
	OuterMinFraction   float64 `toml:"outer_min_fraction"`
	InnerThresholdK    float64 `toml:"inner_threshold_k"`
	InnerMinFraction   float64 `toml:"inner_min_fraction"`
	InnerShrink        float64 `toml:"inner_shrink"`
	NoiseFloor         float64 `toml:"noise_floor"`
	FullFrameCoverage  float64 `toml:"full_frame_coverage"`
	EdgeMarginFraction float64 `toml:"edge_margin_fraction"`
	EdgeSpanTolerance  float64 `toml:"edge_span_tolerance"`
	MinBoxPixels       int     `toml:"min_box_px"`
	SmallImagePixels   int     `toml:"small_image_px"`
	SmallAreaFraction  float64 `toml:"small_area_fraction"`
}

// Subgrade maps a worst-axis centering percentage to a 10-point subgrade.
type Subgrade struct {
	MaxWorst float64 `toml:"max_worst"`
	Grade    float64 `toml:"grade"`
}

// Tiers contains the condition tier and subgrade cutoffs per face.
type Tiers struct {
	FrontPristine  float64    `toml:"front_pristine"`
	FrontGemMint   float64    `toml:"front_gem_mint"`
	BackPristine   float64    `toml:"back_pristine"`
	BackGemMint    float64    `toml:"back_gem_mint"`
	FrontSubgrades []Subgrade `toml:"front_subgrades"`
	BackSubgrades  []Subgrade `toml:"back_subgrades"`
	FloorSubgrade  float64    `toml:"floor_subgrade"`
}

// Matching contains fingerprint decision thresholds.
type Matching struct {
	SameThreshold      float64 `toml:"same_threshold"`
	DifferentThreshold float64 `toml:"different_threshold"`
	PHashWeight        float64 `toml:"phash_weight"`
	DHashWeight        float64 `toml:"dhash_weight"`
	ShortlistSize      int     `toml:"shortlist_size"`
	CandidateLimit     int     `toml:"candidate_limit"`
}

// Warp contains the normalized output size used before hashing.
type Warp struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Store contains configuration for the scan database.
type Store struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <data_dir>/cardscan.db
}

// Config encapsulates all configuration values for cardscan.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Logging: log format and level
//   - Geometry: quad area and aspect acceptance
//   - Centering: edge detection and confidence penalties
//   - Tiers: condition tier and centering subgrade cutoffs
//   - Matching: fingerprint decision thresholds and shortlist size
//   - Warp: normalized face size fed to the hash engine
//   - Store: SQLite scan and identity binding database
type Config struct {
	Paths     Paths     `toml:"paths"`
	Logging   Logging   `toml:"logging"`
	Geometry  Geometry  `toml:"geometry"`
	Centering Centering `toml:"centering"`
	Tiers     Tiers     `toml:"tiers"`
	Matching  Matching  `toml:"matching"`
	Warp      Warp      `toml:"warp"`
	Store     Store     `toml:"store"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cardscan/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cardscan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, log, lock and store directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.DataDir) != "" {
		dirs = append(dirs, c.LockDir())
	}
	if c.Store.Enabled && strings.TrimSpace(c.Store.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.Store.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockDir returns the directory holding per-scan analysis locks.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.DataDir, "locks")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
