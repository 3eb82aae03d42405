package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/NicolasHaas/medscribe/pkg/client"
	"github.com/NicolasHaas/medscribe/pkg/logging"
	"github.com/NicolasHaas/medscribe/ui"
)

func main() {
	// The saved log level applies unless MEDSCRIBE_LOG_LEVEL (debug, info,
	// warn, error) is set; MEDSCRIBE_LOG_FORMAT picks text or json.
	if err := logging.Setup(logging.FromEnvOr(client.LoadSettings().LogLevel)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app, err := ui.NewApp()
	if err != nil {
		slog.Error("start", "err", err)
		os.Exit(1)
	}
	app.Run()
}
