package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NicolasHaas/medscribe/pkg/audit"
)

func newAuditCmd(opts *options) *cobra.Command {
	var patient int64
	var limit int
	var verify bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the local activity log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				if c.auditLog == nil {
					return errors.New("the local activity log is not available")
				}
				if verify {
					err := c.auditLog.Verify(ctx)
					switch {
					case err == nil:
						_, _ = fmt.Fprintln(c.out, okStyle.Render("Activity log verified: no entries altered."))
						return nil
					case errors.Is(err, audit.ErrTampered):
						return fmt.Errorf("activity log has been altered: %w", err)
					default:
						return fmt.Errorf("verify activity log: %w", err)
					}
				}
				entries, err := c.auditLog.List(ctx, audit.Filter{PatientID: patient, Limit: limit})
				if err != nil {
					return err
				}
				renderAudit(c.out, entries, c.settings.Clock())
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&patient, "patient", 0, "only show entries for this patient")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries (default 100)")
	cmd.Flags().BoolVar(&verify, "verify", false, "check the hash chain instead of listing")
	return cmd
}
