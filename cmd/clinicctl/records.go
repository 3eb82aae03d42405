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

func newNotesCmd(opts *options) *cobra.Command {
	notes := &cobra.Command{Use: "notes", Short: "Read and write consultation notes"}

	listCmd := &cobra.Command{
		Use:   "list <patient-id>",
		Short: "Show a patient's notes, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := patientID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				return c.showNotes(ctx, id)
			})
		},
	}

	var text, complaint, subjective, objective, assessment, plan string
	addCmd := &cobra.Command{
		Use:   "add <patient-id>",
		Short: "Record a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := patientID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				req := model.NoteRequest{
					PatientID:      id,
					RawNotes:       strings.TrimSpace(text),
					ChiefComplaint: client.OptionalText(complaint),
					Subjective:     client.OptionalText(subjective),
					Objective:      client.OptionalText(objective),
					Assessment:     client.OptionalText(assessment),
					Plan:           client.OptionalText(plan),
				}
				return c.addNote(ctx, req)
			})
		},
	}
	addCmd.Flags().StringVar(&text, "text", "", "free-text notes")
	addCmd.Flags().StringVar(&complaint, "complaint", "", "chief complaint")
	addCmd.Flags().StringVar(&subjective, "subjective", "", "SOAP subjective")
	addCmd.Flags().StringVar(&objective, "objective", "", "SOAP objective")
	addCmd.Flags().StringVar(&assessment, "assessment", "", "SOAP assessment")
	addCmd.Flags().StringVar(&plan, "plan", "", "SOAP plan")

	notes.AddCommand(listCmd, addCmd)
	return notes
}

func (c *cli) showNotes(ctx context.Context, patientID int64) error {
	var res listResult[model.Note]
	if err := c.engine.LoadNotes(ctx, patientID, &res); err != nil {
		return outcome(err, res.msg)
	}
	canWrite := false
	if len(res.items) == 0 {
		var hdr objectResult[model.PatientDetail]
		if c.engine.LoadPatient(ctx, patientID, &hdr) == nil {
			canWrite = view.Header(hdr.item).CanWrite
		}
	}
	renderNotes(c.out, view.NoteCards(res.items, c.settings.Clock()), canWrite)
	return nil
}

func (c *cli) addNote(ctx context.Context, req model.NoteRequest) error {
	var form formResult
	err := c.engine.Submitter().AddNote(ctx, &form, req, func(ctx context.Context) error {
		_, _ = fmt.Fprintln(c.out, okStyle.Render("Note saved."))
		return nil
	})
	return outcome(err, form.msg)
}

func newVitalsCmd(opts *options) *cobra.Command {
	vitals := &cobra.Command{Use: "vitals", Short: "Read and log vital signs"}

	listCmd := &cobra.Command{
		Use:   "list <patient-id>",
		Short: "Show a patient's vitals, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := patientID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				var res listResult[model.Vitals]
				if err := c.engine.LoadVitals(ctx, id, &res); err != nil {
					return outcome(err, res.msg)
				}
				renderVitals(c.out, view.VitalsRows(res.items, c.settings.Clock()))
				return nil
			})
		},
	}

	var systolic, diastolic, heartRate, temperature, spo2 string
	addCmd := &cobra.Command{
		Use:   "add <patient-id>",
		Short: "Log a set of measurements; omitted values are left blank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := patientID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				req := model.VitalsRequest{
					PatientID:   id,
					SystolicBP:  client.ParseInt(systolic),
					DiastolicBP: client.ParseInt(diastolic),
					HeartRate:   client.ParseInt(heartRate),
					Temperature: client.ParseFloat(temperature),
					SpO2:        client.ParseInt(spo2),
				}
				var form formResult
				err := c.engine.Submitter().LogVitals(ctx, &form, req, func(ctx context.Context) error {
					_, _ = fmt.Fprintln(c.out, okStyle.Render("Vitals logged."))
					return nil
				})
				return outcome(err, form.msg)
			})
		},
	}
	addCmd.Flags().StringVar(&systolic, "systolic", "", "systolic blood pressure")
	addCmd.Flags().StringVar(&diastolic, "diastolic", "", "diastolic blood pressure")
	addCmd.Flags().StringVar(&heartRate, "heart-rate", "", "heart rate (bpm)")
	addCmd.Flags().StringVar(&temperature, "temperature", "", "temperature")
	addCmd.Flags().StringVar(&spo2, "spo2", "", "oxygen saturation (%)")

	vitals.AddCommand(listCmd, addCmd)
	return vitals
}

func newShareCmd(opts *options) *cobra.Command {
	share := &cobra.Command{Use: "share", Short: "Manage who can see a patient record"}

	listCmd := &cobra.Command{
		Use:   "list <patient-id>",
		Short: "Show who a record is shared with",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := patientID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				return c.showShares(ctx, id)
			})
		},
	}

	var permission string
	addCmd := &cobra.Command{
		Use:   "add <patient-id> <email>",
		Short: "Grant another user access",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := patientID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				req := model.ShareRequest{
					UserEmail:  args[1],
					Permission: model.AccessLevel(strings.ToUpper(strings.TrimSpace(permission))),
				}
				var form formResult
				err := c.engine.Submitter().Share(ctx, &form, id, req, func(ctx context.Context) error {
					return c.showShares(ctx, id)
				})
				return outcome(err, form.msg)
			})
		},
	}
	addCmd.Flags().StringVar(&permission, "permission", string(model.AccessView), "VIEW or EDIT")

	revokeCmd := &cobra.Command{
		Use:   "revoke <patient-id> <user-id>",
		Short: "Remove a user's access",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := patientID(args[0])
			if err != nil {
				return err
			}
			userID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[1])
			}
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				var form formResult
				err := c.engine.Submitter().Revoke(ctx, &form, id, userID, func(ctx context.Context) error {
					return c.showShares(ctx, id)
				})
				return outcome(err, form.msg)
			})
		},
	}

	share.AddCommand(listCmd, addCmd, revokeCmd)
	return share
}

func (c *cli) showShares(ctx context.Context, patientID int64) error {
	rec, err := c.engine.Guard()
	if err != nil {
		return err
	}
	var res listResult[model.SharedAccess]
	if err := c.engine.LoadShares(ctx, patientID, &res); err != nil {
		return outcome(err, res.msg)
	}
	renderShares(c.out, view.Shares(res.items, rec.UserID))
	return nil
}

func newReportCmd(opts *options) *cobra.Command {
	var period, start, end, dir string

	periods := make([]string, 0, len(model.ReportPeriods))
	for _, p := range model.ReportPeriods {
		periods = append(periods, string(p))
	}

	cmd := &cobra.Command{
		Use:   "report <patient-id>",
		Short: "Download a patient report as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := patientID(args[0])
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				req := model.ReportRequest{
					PatientID: id,
					Period:    model.ReportPeriod(period),
					Start:     strings.TrimSpace(start),
					End:       strings.TrimSpace(end),
				}
				if dir == "" {
					dir = client.DefaultReportDir()
				}
				var form formResult
				path, err := c.engine.Submitter().DownloadReport(ctx, &form, req, dir)
				if err != nil {
					return outcome(err, form.msg)
				}
				_, _ = fmt.Fprintf(c.out, "%s %s\n", okStyle.Render("Report saved:"), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&period, "period", string(model.Period3Months), "report period: "+strings.Join(periods, "|"))
	cmd.Flags().StringVar(&start, "start", "", "custom range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "custom range end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default: Downloads)")
	return cmd
}
