package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cardscan/internal/store"
)

func newBindingsCommand(ctx *commandContext) *cobra.Command {
	bindingsCmd := &cobra.Command{
		Use:   "bindings",
		Short: "Manage fingerprint to physical item bindings",
	}
	bindingsCmd.AddCommand(newBindingsListCommand(ctx))
	bindingsCmd.AddCommand(newBindingsRemoveCommand(ctx))
	bindingsCmd.AddCommand(newBindingsClearCommand(ctx))
	return bindingsCmd
}

func newBindingsListCommand(ctx *commandContext) *cobra.Command {
	var (
		itemID  string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List identity bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				bindings, err := st.ListBindings(cmd.Context(), itemID)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, bindings)
				}
				out := cmd.OutOrStdout()
				if len(bindings) == 0 {
					fmt.Fprintln(out, "No bindings recorded")
					return nil
				}
				rows := make([][]string, 0, len(bindings))
				for _, b := range bindings {
					rows = append(rows, []string{b.ItemID, b.Key, b.CreatedAt.Local().Format("2006-01-02 15:04")})
				}
				fmt.Fprintln(out, renderTable([]string{"Item", "Fingerprint key", "Bound"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&itemID, "item", "", "Only list bindings for this item id")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newBindingsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove KEY...",
		Short: "Remove bindings so the next scan of those fingerprints is matched afresh",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				out := cmd.OutOrStdout()
				var missing int
				for _, key := range args {
					err := st.RemoveBinding(cmd.Context(), key)
					switch {
					case errors.Is(err, store.ErrNotFound):
						missing++
						fmt.Fprintf(out, "Binding %s not found\n", key)
					case err != nil:
						return err
					default:
						fmt.Fprintf(out, "Removed binding %s\n", key)
					}
				}
				if missing == len(args) {
					return fmt.Errorf("no bindings removed")
				}
				return nil
			})
		},
	}
}

func newBindingsClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every identity binding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to clear all bindings without --yes")
			}
			return ctx.withStore(func(st *store.Store) error {
				n, err := st.ClearBindings(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d binding(s)\n", n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm removal of all bindings")
	return cmd
}
