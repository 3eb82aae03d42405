package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NicolasHaas/medscribe/pkg/client"
	"github.com/NicolasHaas/medscribe/pkg/model"
	"github.com/NicolasHaas/medscribe/pkg/view"
)

func newPatientsCmd(opts *options) *cobra.Command {
	patients := &cobra.Command{Use: "patients", Short: "List, search and register patients"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your patients and those shared with you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				return c.listPatients(ctx, "")
			})
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find patients by name or phone",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				return c.listPatients(ctx, strings.Join(args, " "))
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <patient-id>",
		Short: "Show a patient record header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := patientID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				var res objectResult[model.PatientDetail]
				if err := c.engine.LoadPatient(ctx, id, &res); err != nil {
					return outcome(err, res.msg)
				}
				renderPatient(c.out, view.Header(res.item))
				return nil
			})
		},
	}

	var name, phone, membership string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a patient under your name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				req := model.RegisterPatientRequest{
					Name:            name,
					PhoneNumber:     phone,
					MembershipPrice: client.ParseFloat(membership),
				}
				var form formResult
				err := c.engine.Submitter().RegisterPatient(ctx, &form, req, func(ctx context.Context) error {
					return c.listPatients(ctx, "")
				})
				if err != nil {
					return outcome(err, form.msg)
				}
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "patient name")
	addCmd.Flags().StringVar(&phone, "phone", "", "phone number")
	addCmd.Flags().StringVar(&membership, "membership", "", "membership price (optional)")

	patients.AddCommand(listCmd, searchCmd, showCmd, addCmd)
	return patients
}

// listPatients prints the patient list, filtered when query is not blank.
func (c *cli) listPatients(ctx context.Context, query string) error {
	rec, err := c.engine.Guard()
	if err != nil {
		return err
	}
	var res listResult[model.Patient]
	if err := c.engine.SearchPatients(ctx, query, &res); err != nil {
		return outcome(err, res.msg)
	}
	empty := view.EmptyPatientsText(rec.Role)
	if q := strings.TrimSpace(query); q != "" {
		empty = view.EmptySearchText(q)
	}
	renderPatients(c.out, view.PatientRows(res.items, rec.UserID), empty)
	return nil
}

func patientID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid patient id %q", arg)
	}
	return id, nil
}
