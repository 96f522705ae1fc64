package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/todosoa"
	"github.com/aretw0/todosoa/internal/presentation/tui"
	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create an item",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), nil, func(ctx context.Context, app *todosoa.App) error {
			return app.Add(ctx, strings.Join(args, " "))
		})
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [all|active|completed]",
	Short: "List items",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route := domain.RouteAll
		if len(args) == 1 {
			route = domain.Route(args[0])
			if !route.Valid() {
				return fmt.Errorf("unknown route %q", args[0])
			}
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		return withApp(cmd.Context(), nil, func(ctx context.Context, app *todosoa.App) error {
			if err := app.Show(ctx, route); err != nil {
				return err
			}
			snap := app.View().Snapshot()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.SnapshotPrinter(os.Stdout)(snap))
			return nil
		})
	},
}

func completionCmd(use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id|active|completed>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), nil, func(ctx context.Context, app *todosoa.App) error {
				return app.SetCompleted(ctx, args[0], completed)
			})
		},
	}
}

var rmCmd = &cobra.Command{
	Use:   "rm <id|active|completed>",
	Short: "Delete an item or every item of a pseudo-collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), nil, func(ctx context.Context, app *todosoa.App) error {
			return app.Remove(ctx, args[0])
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id> [title]",
	Short: "Rename an item; an empty title deletes it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), nil, func(ctx context.Context, app *todosoa.App) error {
			return app.Rename(ctx, args[0], strings.Join(args[1:], " "))
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every completed item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), nil, func(ctx context.Context, app *todosoa.App) error {
			return app.ClearCompleted(ctx)
		})
	},
}

var toggleAllCmd = &cobra.Command{
	Use:   "toggle-all",
	Short: "Complete every item, or reopen them all when all are completed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), nil, func(ctx context.Context, app *todosoa.App) error {
			counts, err := app.Count(ctx)
			if err != nil {
				return err
			}
			return app.ToggleAll(ctx, counts.Total == 0 || counts.Completed < counts.Total)
		})
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print item counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), nil, func(ctx context.Context, app *todosoa.App) error {
			counts, err := app.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active: %d\ncompleted: %d\ntotal: %d\n", counts.Active, counts.Completed, counts.Total)
			return nil
		})
	},
}

func init() {
	lsCmd.Flags().Bool("json", false, "Print the view snapshot as JSON")

	rootCmd.AddCommand(
		addCmd,
		lsCmd,
		completionCmd("check", "Mark items completed", true),
		completionCmd("uncheck", "Mark items active", false),
		rmCmd,
		editCmd,
		clearCmd,
		toggleAllCmd,
		countCmd,
	)
}
