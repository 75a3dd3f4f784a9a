package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cardscan/internal/preflight"
	"cardscan/internal/scan"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var (
		front     boundaryFlags
		back      boundaryFlags
		quadSpace string
		owner     string
		scanID    string
		wait      time.Duration
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze FRONT [BACK]",
		Short: "Measure centering, fingerprint and identify a card",
		Long: "Analyze one or two face photographs of a card. Use an empty string for FRONT\n" +
			"to analyze only the back. Boundary quads and bounding boxes are normalized\n" +
			"unless --quad-space=pixel is given.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if res := preflight.CheckDirectoryAccess("Lock directory", cfg.LockDir()); !res.Passed {
				return fmt.Errorf("%s: %s", res.Name, res.Detail)
			}

			req := scan.Request{ScanID: scanID, Owner: owner, FrontPath: args[0]}
			if len(args) > 1 {
				req.BackPath = args[1]
			}
			space, err := parseSpaceFlag(quadSpace)
			if err != nil {
				return err
			}
			if req.FrontQuad, err = front.resolve("front-", space); err != nil {
				return err
			}
			if req.BackQuad, err = back.resolve("back-", space); err != nil {
				return err
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			report, err := scan.NewService(cfg, st, logger, scan.WithLockWait(wait)).Process(cmd.Context(), req)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			renderReport(out, report, shouldColorize(out))
			return nil
		},
	}

	front.register(cmd, "front-")
	back.register(cmd, "back-")
	cmd.Flags().StringVar(&quadSpace, "quad-space", "normalized", "Coordinate space of boundary flags: normalized or pixel")
	cmd.Flags().DurationVar(&wait, "wait", 0, "Wait up to this long for a scan locked by another run")
	cmd.Flags().StringVar(&owner, "owner", "", "Collection owner used to scope candidate matching")
	cmd.Flags().StringVar(&scanID, "scan-id", "", "Reanalyze an existing scan id instead of creating a new scan")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the full report as JSON")
	return cmd
}

func renderReport(out io.Writer, r *scan.Report, colorize bool) {
	fmt.Fprintf(out, "Scan %s  status=%s  owner=%s\n", r.ScanID, r.Status, valueOrDash(r.Owner))

	headers := []string{"Face", "Tier", "Subgrade", "Worst", "L/R", "T/B", "Confidence", "Hashes", "Issue"}
	rows := make([][]string, 0, len(r.Faces))
	for _, f := range r.Faces {
		row := []string{string(f.Face), "-", "-", "-", "-", "-", "-", "-", faceIssue(f)}
		if m := f.Measurement(); m != nil {
			row[1] = tierLabel(m.TagTier, colorize)
			row[2] = fmt.Sprintf("%.1f", m.Subgrade)
			row[3] = formatPercent(m.FaceWorst)
			row[4] = formatRatio(m.LRRatio)
			row[5] = formatRatio(m.TBRatio)
			row[6] = fmt.Sprintf("%.2f", m.Confidence)
		}
		if f.Hashes != nil {
			row[7] = f.Hashes.String()
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(out, renderTable(headers, rows, 2, 3, 6))

	overall := tierLabel(r.OverallTier, colorize)
	if r.OverallSubgrade != nil {
		overall += fmt.Sprintf(" (subgrade %.1f)", *r.OverallSubgrade)
	}
	fmt.Fprintf(out, "Overall: %s\n", overall)

	if r.Binding != nil {
		line := fmt.Sprintf("Identity: %s", r.Binding.Outcome)
		if r.Match != nil && r.Match.Reason == "" {
			line += fmt.Sprintf(" (%s, score %s)", r.Match.Decision, formatScore(r.Match.Score))
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Item: %s  seen before: %s  saved: %s\n",
		valueOrDash(r.ItemID), yesNo(r.Binding != nil && r.Binding.SeenBefore), yesNo(r.Persisted))
}

func faceIssue(f scan.FaceReport) string {
	var issues []string
	if f.Centering != nil && f.Centering.Failure != "" {
		issues = append(issues, string(f.Centering.Failure))
	}
	if f.Failure != "" {
		issues = append(issues, f.Failure)
	}
	if len(issues) == 0 {
		if m := f.Measurement(); m != nil && len(m.Flags) > 0 {
			return strings.Join(m.Flags, ",")
		}
		return "-"
	}
	return strings.Join(issues, ",")
}
