package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/preflight/internal/explore"
	"github.com/crimson-sun/preflight/internal/model"
	"github.com/crimson-sun/preflight/internal/output"
)

func (a *app) newExploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Sample records of a service to learn its data structures",
		Long: `Fetch the first records of each endpoint of a resource and list the field
names, types and example values found. Endpoint failures are reported inline;
exploring never fails the process.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "forms [form-id...]",
			Short: "Explore Jotform forms (default: the signup and setup forms)",
			RunE: func(cmd *cobra.Command, args []string) error {
				ids := args
				if len(ids) == 0 {
					ids = []string{a.cfg.FormService.SignupFormID, a.cfg.FormService.SetupFormID}
				}
				return a.explore(cmd.Context(), model.FormService, ids...)
			},
		},
		&cobra.Command{
			Use:   "campaign [campaign-id]",
			Short: "Explore a Givebutter campaign with its members, teams and contacts",
			Args:  maxArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.explore(cmd.Context(), model.CampaignService, args...)
			},
		},
		&cobra.Command{
			Use:   "datastore [table]",
			Short: "Explore the rows of a Supabase table",
			Args:  maxArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.explore(cmd.Context(), model.DataStore, args...)
			},
		},
	)
	return cmd
}

// explore runs one exploration per resource id. No ids explores the
// configured default resource.
func (a *app) explore(ctx context.Context, service model.Service, ids ...string) (err error) {
	if len(ids) == 0 {
		ids = []string{""}
	}

	out, err := a.newOutput()
	if err != nil {
		return err
	}
	defer closeOutput(out, &err)

	resolver, conns := a.resolver(), a.connectors()
	for _, id := range ids {
		stop := a.spin("Exploring " + service.DisplayName() + "...")
		ex := explore.New(resolver, conns, stopBeforeWrite{out, stop}, a.logger)
		_, err = ex.Explore(ctx, service, id, a.cfg.Output.SampleLimit)
		stop()
		if err != nil {
			return err
		}
	}

	a.hint(
		"Exploration complete!",
		"Review the output above to understand field names and data structures.",
	)
	return nil
}

// stopBeforeWrite stops the spinner before the report reaches the terminal.
type stopBeforeWrite struct {
	output.Output
	stop func()
}

func (s stopBeforeWrite) WriteExploration(ctx context.Context, exp model.Exploration) error {
	s.stop()
	return s.Output.WriteExploration(ctx, exp)
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
