package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/NicolasHaas/medscribe/pkg/api"
	"github.com/NicolasHaas/medscribe/pkg/audio"
	"github.com/NicolasHaas/medscribe/pkg/model"
	"github.com/NicolasHaas/medscribe/pkg/recorder"
)

func newDictateCmd(opts *options) *cobra.Command {
	var patient int64
	var save bool

	cmd := &cobra.Command{
		Use:   "dictate",
		Short: "Record from the microphone until Enter and transcribe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if save && patient <= 0 {
				return errors.New("--save needs --patient")
			}
			audio.PreInitAudio()
			return run(cmd, opts, func(ctx context.Context, c *cli) error {
				if _, err := c.engine.Guard(); err != nil {
					return err
				}
				text, err := c.dictate(ctx, cmd)
				if err != nil {
					return err
				}
				if !save {
					_, _ = fmt.Fprintln(c.out, text)
					return nil
				}
				return c.addNote(ctx, model.NoteRequest{PatientID: patient, RawNotes: text})
			})
		},
	}
	cmd.Flags().Int64Var(&patient, "patient", 0, "patient id the note belongs to")
	cmd.Flags().BoolVar(&save, "save", false, "save the transcript as a note instead of printing it")
	return cmd
}

// dictate records until Enter. An interrupt discards the recording without
// uploading it.
func (c *cli) dictate(ctx context.Context, cmd *cobra.Command) (string, error) {
	stderr := cmd.ErrOrStderr()
	rec := c.engine.NewRecorder()
	rec.OnStatus = func(text string) {
		if text != recorder.StatusRecording {
			_, _ = fmt.Fprintln(stderr, mutedStyle.Render(text))
		}
	}
	rec.OnCaptureError = func(err error) {
		_, _ = fmt.Fprintln(stderr, errorStyle.Render(recorder.Message(err)))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := rec.Start(ctx); err != nil {
		return "", errors.New(recorder.Message(err))
	}
	_, _ = fmt.Fprintln(stderr, titleStyle.Render("Recording... press Enter to stop"))

	enter := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(c.in).ReadString('\n')
		close(enter)
	}()

	select {
	case <-enter:
	case <-ctx.Done():
		_, _ = rec.Stop(ctx)
		return "", errors.New("recording cancelled")
	}

	text, err := rec.Stop(ctx)
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return "", err
	case err != nil:
		return "", errors.New(recorder.Message(err))
	}
	return text, nil
}
