package config

import (
	"errors"
	"fmt"
	"math"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGeometry(); err != nil {
		return err
	}
	if err := c.validateCentering(); err != nil {
		return err
	}
	if err := c.validateTiers(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateWarp(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGeometry() error {
	g := c.Geometry
	if err := ensureFractions(map[string]float64{
		"geometry.identity_min_area": g.IdentityMinArea,
		"geometry.polygon_min_area":  g.PolygonMinArea,
		"geometry.aspect_min":        g.AspectMin,
		"geometry.aspect_max":        g.AspectMax,
		"geometry.soft_aspect_low":   g.SoftAspectLow,
		"geometry.soft_aspect_high":  g.SoftAspectHigh,
	}); err != nil {
		return err
	}
	if g.AspectMin >= g.AspectMax {
		return errors.New("geometry.aspect_min must be less than geometry.aspect_max")
	}
	if g.SoftAspectLow < g.AspectMin || g.SoftAspectHigh > g.AspectMax || g.SoftAspectLow > g.SoftAspectHigh {
		return errors.New("geometry soft aspect band must sit inside [aspect_min, aspect_max]")
	}
	return nil
}

func (c *Config) validateCentering() error {
	cc := c.Centering
	if cc.WorkingMaxSide < 64 {
		return errors.New("centering.working_max_side must be at least 64")
	}
	if cc.MinBoxPixels <= 0 {
		return errors.New("centering.min_box_px must be positive")
	}
	if cc.SmallImagePixels < 0 {
		return errors.New("centering.small_image_px must be >= 0")
	}
	if cc.InnerShrink <= 0 || cc.InnerShrink >= 0.5 {
		return errors.New("centering.inner_shrink must be between 0 and 0.5")
	}
	if math.IsNaN(cc.OuterThresholdK) || math.IsNaN(cc.InnerThresholdK) {
		return errors.New("centering threshold multipliers must be numbers")
	}
	return ensureFractions(map[string]float64{
		"centering.outer_min_fraction":   cc.OuterMinFraction,
		"centering.inner_min_fraction":   cc.InnerMinFraction,
		"centering.noise_floor":          cc.NoiseFloor,
		"centering.full_frame_coverage":  cc.FullFrameCoverage,
		"centering.edge_margin_fraction": cc.EdgeMarginFraction,
		"centering.edge_span_tolerance":  cc.EdgeSpanTolerance,
		"centering.small_area_fraction":  cc.SmallAreaFraction,
	})
}

func (c *Config) validateTiers() error {
	t := c.Tiers
	if t.FrontPristine <= 0 || t.FrontGemMint < t.FrontPristine || t.FrontGemMint > 100 {
		return errors.New("tiers.front_pristine must be positive and not exceed tiers.front_gem_mint (<= 100)")
	}
	if t.BackPristine <= 0 || t.BackGemMint < t.BackPristine || t.BackGemMint > 100 {
		return errors.New("tiers.back_pristine must be positive and not exceed tiers.back_gem_mint (<= 100)")
	}
	for name, buckets := range map[string][]Subgrade{
		"tiers.front_subgrades": t.FrontSubgrades,
		"tiers.back_subgrades":  t.BackSubgrades,
	} {
		for i, bucket := range buckets {
			if bucket.MaxWorst < 50 || bucket.MaxWorst > 100 {
				return fmt.Errorf("%s[%d].max_worst must be between 50 and 100", name, i)
			}
			if bucket.Grade <= 0 || bucket.Grade > 10 {
				return fmt.Errorf("%s[%d].grade must be between 0 and 10", name, i)
			}
		}
	}
	return nil
}

func (c *Config) validateMatching() error {
	m := c.Matching
	if m.SameThreshold <= 0 || m.SameThreshold > 1 {
		return errors.New("matching.same_threshold must be between 0 and 1")
	}
	if m.DifferentThreshold < 0 || m.DifferentThreshold >= m.SameThreshold {
		return errors.New("matching.different_threshold must be >= 0 and below matching.same_threshold")
	}
	if m.PHashWeight < 0 || m.DHashWeight < 0 || m.PHashWeight+m.DHashWeight <= 0 {
		return errors.New("matching.phash_weight and matching.dhash_weight must be non-negative with a positive sum")
	}
	return nil
}

func (c *Config) validateWarp() error {
	if c.Warp.Width < 32 || c.Warp.Height < 32 {
		return errors.New("warp.width and warp.height must be at least 32")
	}
	return nil
}

func ensureFractions(values map[string]float64) error {
	for key, value := range values {
		if math.IsNaN(value) || value < 0 || value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", key)
		}
	}
	return nil
}
