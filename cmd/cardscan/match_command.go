package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cardscan/internal/fingerprint"
	"cardscan/internal/imagehash"
	"cardscan/internal/scan"
	"cardscan/internal/store"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var (
		front   string
		back    string
		key     string
		owner   string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match a fingerprint against stored scans without recording anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			fp, err := fingerprintFromFlags(front, back, key)
			if err != nil {
				return err
			}

			return ctx.withStore(func(st *store.Store) error {
				result, err := scan.NewService(cfg, st, logger).Identify(cmd.Context(), owner, "", fp)
				if err != nil {
					return err
				}

				if jsonOut {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Key:        %s\n", result.Key)
				fmt.Fprintf(out, "Decision:   %s\n", result.Match.Decision)
				fmt.Fprintf(out, "Score:      %s\n", formatScore(result.Match.Score))
				fmt.Fprintf(out, "Reason:     %s\n", valueOrDash(string(result.Match.Reason)))
				fmt.Fprintf(out, "Best scan:  %s\n", valueOrDash(result.Match.BestCandidateID))
				fmt.Fprintf(out, "Outcome:    %s\n", result.Binding.Outcome)
				fmt.Fprintf(out, "Item:       %s\n", valueOrDash(result.Binding.ItemID))
				fmt.Fprintf(out, "Exact key:  %s\n", yesNo(result.Exact))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&front, "front", "", "Front hashes as phash.dhash")
	cmd.Flags().StringVar(&back, "back", "", "Back hashes as phash.dhash")
	cmd.Flags().StringVar(&key, "key", "", "Fingerprint key (alternative to --front/--back)")
	cmd.Flags().StringVar(&owner, "owner", "", "Collection owner whose scans are candidates")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func fingerprintFromFlags(front, back, key string) (fingerprint.Fingerprint, error) {
	front, back, key = strings.TrimSpace(front), strings.TrimSpace(back), strings.TrimSpace(key)
	if key != "" {
		if front != "" || back != "" {
			return fingerprint.Fingerprint{}, errors.New("use either --key or --front/--back, not both")
		}
		return fingerprint.ParseKey(key)
	}
	if front == "" && back == "" {
		return fingerprint.Fingerprint{}, errors.New("provide --front, --back or --key")
	}
	var fp fingerprint.Fingerprint
	if front != "" {
		pair, err := imagehash.ParsePair(front)
		if err != nil {
			return fp, fmt.Errorf("--front: %w", err)
		}
		fp.Front = &pair
	}
	if back != "" {
		pair, err := imagehash.ParsePair(back)
		if err != nil {
			return fp, fmt.Errorf("--back: %w", err)
		}
		fp.Back = &pair
	}
	return fp, nil
}
