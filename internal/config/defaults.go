package config

const (
	defaultDataDir   = "~/.local/share/cardscan"
	defaultLogFormat = "console"
	defaultLogLevel  = "info"
	defaultStoreFile = "cardscan.db"

	defaultIdentityMinArea = 0.2
	defaultPolygonMinArea  = 0.001
	defaultAspectMin       = 0.4
	defaultAspectMax       = 0.9
	defaultSoftAspectLow   = 0.55
	defaultSoftAspectHigh  = 0.85

	defaultWorkingMaxSide     = 900
	defaultOuterThresholdK    = 0.6
	defaultOuterMinFraction   = 0.02
	defaultInnerThresholdK    = 0.25
	defaultInnerMinFraction   = 0.05
	defaultInnerShrink        = 0.08
	defaultNoiseFloor         = 0.0
	defaultFullFrameCoverage  = 0.98
	defaultEdgeMarginFraction = 0.01
	defaultEdgeSpanTolerance  = 0.85
	defaultMinBoxPixels       = 10
	defaultSmallImagePixels   = 400
	defaultSmallAreaFraction  = 0.35

	defaultFrontPristine = 51.0
	defaultFrontGemMint  = 55.0
	defaultBackPristine  = 52.0
	defaultBackGemMint   = 65.0
	defaultFloorSubgrade = 3.0

	defaultSameThreshold      = 0.85
	defaultDifferentThreshold = 0.50
	defaultPHashWeight        = 0.55
	defaultDHashWeight        = 0.45
	defaultShortlistSize      = 20
	defaultCandidateLimit     = 500

	defaultWarpWidth  = 500
	defaultWarpHeight = 700
)

// DefaultFrontSubgrades approximates published centering guidance for the
// front face (worst axis percentage -> subgrade).
func DefaultFrontSubgrades() []Subgrade {
	return []Subgrade{
		{MaxWorst: 51, Grade: 10},
		{MaxWorst: 55, Grade: 9.5},
		{MaxWorst: 60, Grade: 9},
		{MaxWorst: 65, Grade: 8.5},
		{MaxWorst: 70, Grade: 8},
		{MaxWorst: 75, Grade: 7},
		{MaxWorst: 80, Grade: 6},
		{MaxWorst: 85, Grade: 5},
	}
}

// DefaultBackSubgrades is the back-face counterpart of DefaultFrontSubgrades.
func DefaultBackSubgrades() []Subgrade {
	return []Subgrade{
		{MaxWorst: 52, Grade: 10},
		{MaxWorst: 60, Grade: 9.5},
		{MaxWorst: 70, Grade: 9},
		{MaxWorst: 75, Grade: 8.5},
		{MaxWorst: 80, Grade: 8},
		{MaxWorst: 85, Grade: 7},
		{MaxWorst: 90, Grade: 6},
		{MaxWorst: 95, Grade: 5},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Geometry: Geometry{
			IdentityMinArea: defaultIdentityMinArea,
			PolygonMinArea:  defaultPolygonMinArea,
			AspectMin:       defaultAspectMin,
			AspectMax:       defaultAspectMax,
			SoftAspectLow:   defaultSoftAspectLow,
			SoftAspectHigh:  defaultSoftAspectHigh,
		},
		Centering: Centering{
			WorkingMaxSide:     defaultWorkingMaxSide,
			OuterThresholdK:    defaultOuterThresholdK,
			OuterMinFraction:   defaultOuterMinFraction,
			InnerThresholdK:    defaultInnerThresholdK,
			InnerMinFraction:   defaultInnerMinFraction,
			InnerShrink:        defaultInnerShrink,
			NoiseFloor:         defaultNoiseFloor,
			FullFrameCoverage:  defaultFullFrameCoverage,
			EdgeMarginFraction: defaultEdgeMarginFraction,
			EdgeSpanTolerance:  defaultEdgeSpanTolerance,
			MinBoxPixels:       defaultMinBoxPixels,
			SmallImagePixels:   defaultSmallImagePixels,
			SmallAreaFraction:  defaultSmallAreaFraction,
		},
		Tiers: Tiers{
			FrontPristine:  defaultFrontPristine,
			FrontGemMint:   defaultFrontGemMint,
			BackPristine:   defaultBackPristine,
			BackGemMint:    defaultBackGemMint,
			FrontSubgrades: DefaultFrontSubgrades(),
			BackSubgrades:  DefaultBackSubgrades(),
			FloorSubgrade:  defaultFloorSubgrade,
		},
		Matching: Matching{
			SameThreshold:      defaultSameThreshold,
			DifferentThreshold: defaultDifferentThreshold,
			PHashWeight:        defaultPHashWeight,
			DHashWeight:        defaultDHashWeight,
			ShortlistSize:      defaultShortlistSize,
			CandidateLimit:     defaultCandidateLimit,
		},
		Warp: Warp{
			Width:  defaultWarpWidth,
			Height: defaultWarpHeight,
		},
		Store: Store{
			Enabled: true,
		},
	}
}
