package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cardscan/internal/centering"
	"cardscan/internal/quad"
)

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// tierLabel renders a tier token for humans: "gem_mint" becomes "Gem Mint".
func tierLabel(tier centering.Tier, colorize bool) string {
	if tier == "" {
		return "-"
	}
	label := cases.Title(language.English).String(strings.ReplaceAll(string(tier), "_", " "))
	if !colorize {
		return label
	}
	switch tier {
	case centering.TierPristine:
		return ansiGreen + label + ansiReset
	case centering.TierGemMint:
		return ansiYellow + label + ansiReset
	default:
		return ansiRed + label + ansiReset
	}
}

func formatPercent(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *value)
}

func formatRatio(value *float64) string {
	if value == nil {
		return "-"
	}
	near := *value * 100
	return fmt.Sprintf("%.0f/%.0f", near, 100-near)
}

func formatScore(value float64) string {
	return fmt.Sprintf("%.3f", value)
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// parseQuadFlag parses a boundary given as flat "x1,y1,...,x4,y4" pairs or a
// JSON point array. An empty value means no quad. Point count and geometry
// are left to the validator so a bad quad falls back to detection.
func parseQuadFlag(name, value string, space quad.Space) (*quad.Raw, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	raw, err := quad.ParseRaw(value, space, quad.ProvenanceUser)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &raw, nil
}

// parseBBoxFlag parses an "x,y,w,h" bounding box from an upstream detector.
// The resulting quad is aspect-checked softly.
func parseBBoxFlag(name, value string, space quad.Space) (*quad.Raw, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	fields := strings.Split(value, ",")
	if len(fields) != 4 {
		return nil, fmt.Errorf("--%s: expected x,y,w,h, got %d values", name, len(fields))
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		v[i] = n
	}
	raw := quad.FromRect(v[0], v[1], v[2], v[3], quad.ProvenanceBBoxSeed).Raw()
	raw.Space = space
	return raw, nil
}

// boundaryFlags are the per-face boundary hints shared by analyze and hash.
type boundaryFlags struct {
	quad  string
	bbox  string
	space string
}

func (b *boundaryFlags) register(cmd *cobra.Command, prefix string) {
	quadName, bboxName := prefix+"quad", prefix+"bbox"
	cmd.Flags().StringVar(&b.quad, quadName, "", "Boundary as x1,y1,...,x4,y4 or a JSON point array, clockwise from top-left")
	cmd.Flags().StringVar(&b.bbox, bboxName, "", "Detector bounding box as x,y,w,h")
	cmd.MarkFlagsMutuallyExclusive(quadName, bboxName)
}

func (b *boundaryFlags) resolve(prefix string, space quad.Space) (*quad.Raw, error) {
	if b.bbox != "" {
		return parseBBoxFlag(prefix+"bbox", b.bbox, space)
	}
	return parseQuadFlag(prefix+"quad", b.quad, space)
}

func parseSpaceFlag(value string) (quad.Space, error) {
	space, err := quad.ParseSpace(value)
	if err != nil {
		return "", fmt.Errorf("--quad-space: %w", err)
	}
	return space, nil
}
