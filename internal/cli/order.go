package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ganot/verdant/internal/domain/project"
)

// NewOrderCommand creates the order command group.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Inspect and maintain the project ordering",
	}
	cmd.AddCommand(newOrderInitCommand(rootOpts))
	cmd.AddCommand(newOrderCompactCommand(rootOpts))
	cmd.AddCommand(newOrderShowCommand(rootOpts))
	return cmd
}

type initResult struct {
	Migrated bool `json:"migrated"`
	Count    int  `json:"count"`
}

func newOrderInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Build the ordering from the legacy project set if it is missing",
		Long: `Build the ordering from the legacy project set if it does not exist yet.

Projects are ranked newest first by creation time. Running init on a store
that already has an ordering changes nothing.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, logger, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			ordering := project.NewOrdering(store, logger)
			migrated, err := ordering.EnsureInitialized(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "initializing ordering", err)
			}
			ids, err := ordering.IDs(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "reading ordering", err)
			}

			text := fmt.Sprintf("ordering already present (%d projects)", len(ids))
			if migrated {
				text = fmt.Sprintf("ordering initialized (%d projects)", len(ids))
			}
			return rootOpts.formatter(cmd).Success(initResult{Migrated: migrated, Count: len(ids)}, text)
		},
	}
}

type compactResult struct {
	Count int `json:"count"`
}

func newOrderCompactCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "compact",
		Short:        "Renumber ranks densely from 0, keeping the current order",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, logger, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := project.NewOrdering(store, logger).Compact(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "compacting ordering", err)
			}
			return rootOpts.formatter(cmd).Success(compactResult{Count: n}, fmt.Sprintf("compacted %d ranks", n))
		},
	}
}

type rankedProject struct {
	Rank  float64 `json:"rank"`
	ID    string  `json:"id"`
	Slug  string  `json:"slug,omitempty"`
	Title string  `json:"title,omitempty"`
}

func newOrderShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "show",
		Short:        "Print the ordering with ranks",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, logger, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := project.NewService(store, logger)
			ranked, err := svc.Ordering().Ranked(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "reading ordering", err)
			}

			out := make([]rankedProject, 0, len(ranked))
			var b strings.Builder
			for _, z := range ranked {
				row := rankedProject{Rank: z.Score, ID: z.Member}
				p, err := svc.Get(cmd.Context(), z.Member)
				if err != nil {
					return WrapExitError(ExitFailure, "reading project", err)
				}
				if p != nil {
					row.Slug = p.Slug
					row.Title = p.Title
				} else {
					rootOpts.formatter(cmd).VerboseLog("ranked id %s has no record", z.Member)
				}
				out = append(out, row)
				fmt.Fprintf(&b, "%g\t%s\t%s\t%s\n", row.Rank, row.ID, row.Slug, row.Title)
			}
			if len(out) == 0 {
				b.WriteString("no ranked projects\n")
			}
			return rootOpts.formatter(cmd).Success(out, strings.TrimSuffix(b.String(), "\n"))
		},
	}
}
