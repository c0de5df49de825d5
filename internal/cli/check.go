package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/preflight/internal/harness"
	"github.com/crimson-sun/preflight/internal/model"
	"github.com/crimson-sun/preflight/internal/probe"
)

func (a *app) newCheckCmd() *cobra.Command {
	var valid []string
	for _, s := range model.Services() {
		valid = append(valid, string(s))
	}

	return &cobra.Command{
		Use:   "check [service...]",
		Short: "Check connectivity and credentials of each service",
		Long: `Probe each service with one minimal authenticated request and report the
outcome. With no arguments every service is checked, data store first.
Exits 1 when any check fails.`,
		ValidArgs: valid,
		Args: func(_ *cobra.Command, args []string) error {
			for _, arg := range args {
				if _, err := model.ParseService(arg); err != nil {
					return usageError{err}
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			services := model.Services()
			if len(args) > 0 {
				services = make([]model.Service, len(args))
				for i, arg := range args {
					services[i] = model.Service(arg)
				}
			}

			out, err := a.newOutput()
			if err != nil {
				return err
			}
			defer closeOutput(out, &err)

			h := harness.New(probe.New(a.resolver(), a.connectors(), a.logger), a.logger)
			stop := a.spin("Testing service connections...")
			report := h.Run(cmd.Context(), services)
			stop()

			if err := out.WriteReport(cmd.Context(), report); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !report.OK() {
				a.hint("Check your .env file and API credentials.")
				return ErrChecksFailed
			}
			a.hint("You're ready to start syncing data.")
			return nil
		},
	}
}
