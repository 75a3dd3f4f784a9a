package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cardscan/internal/centering"
	"cardscan/internal/scan"
	"cardscan/internal/store"
)

func newScansCommand(ctx *commandContext) *cobra.Command {
	scansCmd := &cobra.Command{
		Use:   "scans",
		Short: "Inspect stored scans",
	}
	scansCmd.AddCommand(newScansListCommand(ctx))
	scansCmd.AddCommand(newScansShowCommand(ctx))
	scansCmd.AddCommand(newScansRescoreCommand(ctx))
	return scansCmd
}

type scanSummary struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	CreatedAt      time.Time `json:"created_at"`
	Status         string    `json:"status"`
	OverallTier    string    `json:"overall_tier,omitempty"`
	FingerprintKey string    `json:"fingerprint_key,omitempty"`
	ItemID         string    `json:"item_id,omitempty"`
}

func summarizeScan(s *store.Scan) scanSummary {
	return scanSummary{
		ID:             s.ID,
		Owner:          s.Owner,
		CreatedAt:      s.CreatedAt,
		Status:         string(s.Status),
		OverallTier:    s.OverallTier,
		FingerprintKey: s.FingerprintKey,
		ItemID:         s.ItemID,
	}
}

func newScansListCommand(ctx *commandContext) *cobra.Command {
	var (
		owner   string
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				scans, err := st.ListScans(cmd.Context(), owner, limit)
				if err != nil {
					return err
				}
				if jsonOut {
					summaries := make([]scanSummary, 0, len(scans))
					for _, s := range scans {
						summaries = append(summaries, summarizeScan(s))
					}
					return writeJSON(cmd, summaries)
				}
				out := cmd.OutOrStdout()
				if len(scans) == 0 {
					fmt.Fprintln(out, "No scans recorded")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(scans))
				for _, s := range scans {
					rows = append(rows, []string{
						s.ID,
						valueOrDash(s.Owner),
						s.CreatedAt.Local().Format("2006-01-02 15:04"),
						string(s.Status),
						tierLabel(centering.Tier(s.OverallTier), colorize),
						valueOrDash(s.ItemID),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Owner", "Created", "Status", "Tier", "Item"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Only list scans for this owner")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of scans (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newScansShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show SCAN_ID",
		Short: "Show the stored analysis of one scan as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				s, err := st.GetScan(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				payload := struct {
					scanSummary
					Analysis json.RawMessage `json:"analysis,omitempty"`
				}{scanSummary: summarizeScan(s)}
				if s.AnalysisJSON != "" {
					payload.Analysis = json.RawMessage(s.AnalysisJSON)
				}
				return writeJSON(cmd, payload)
			})
		},
	}
}

func newScansRescoreCommand(ctx *commandContext) *cobra.Command {
	var (
		save    bool
		wait    time.Duration
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "rescore SCAN_ID",
		Short: "Re-score a stored scan's centering under the current thresholds",
		Long: "Recompute tiers, subgrades and confidence from the boxes recorded for a scan.\n" +
			"Photos are not reread and identity is unchanged. Use --save to replace the stored analysis.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				svc := scan.NewService(cfg, st, logger, scan.WithLockWait(wait))
				report, err := svc.Rescore(cmd.Context(), args[0], save)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				renderReport(out, report, shouldColorize(out))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Replace the stored analysis with the rescored one")
	cmd.Flags().DurationVar(&wait, "wait", 0, "Wait up to this long for a scan locked by another run")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the rescored report as JSON")
	return cmd
}
