package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardscan/internal/centering"
	"cardscan/internal/fingerprint"
	"cardscan/internal/scan"
)

func newHashCommand(ctx *commandContext) *cobra.Command {
	var (
		boundary  boundaryFlags
		quadSpace string
		back      bool
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "hash IMAGE",
		Short: "Compute the perceptual hashes of one face photograph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			space, err := parseSpaceFlag(quadSpace)
			if err != nil {
				return err
			}
			q, err := boundary.resolve("", space)
			if err != nil {
				return err
			}
			face := centering.FaceFront
			if back {
				face = centering.FaceBack
			}

			report := scan.NewService(cfg, nil, logger).AnalyzeFace(face, args[0], q)
			if jsonOut {
				return writeJSON(cmd, report)
			}
			if report.Hashes == nil {
				return fmt.Errorf("hash %s: %s", args[0], faceIssue(report))
			}
			fp := fingerprint.Fingerprint{Front: report.Hashes}
			if back {
				fp = fingerprint.Fingerprint{Back: report.Hashes}
			}
			key, _ := fingerprint.Key(fp)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pHash: %s\n", report.Hashes.PHash)
			fmt.Fprintf(out, "dHash: %s\n", report.Hashes.DHash)
			fmt.Fprintf(out, "Pair:  %s\n", report.Hashes)
			fmt.Fprintf(out, "Key:   %s\n", key)
			if report.Boundary != nil {
				fmt.Fprintf(out, "Boundary (%s): %s\n", report.Boundary.Provenance, report.Boundary)
			}
			return nil
		},
	}

	boundary.register(cmd, "")
	cmd.Flags().StringVar(&quadSpace, "quad-space", "normalized", "Coordinate space of --quad and --bbox: normalized or pixel")
	cmd.Flags().BoolVar(&back, "back", false, "Treat the image as the card back")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the face report as JSON")
	return cmd
}
