package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/composables/pkg/hub"
	"github.com/vango-dev/composables/pkg/storage"
)

func watchCmd(g *globals) *cobra.Command {
	var (
		url string
		id  string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print changes relayed by the hub",
		Long: `Connect to the hub as a window and print every change other
windows make until interrupted.

Examples:
  composables watch
  composables watch --url=ws://hub.internal:7300/ws`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = g.cfg.HubURL()
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			win := storage.NewWindow(nil, nil, nil)
			client, err := hub.Dial(ctx, hub.ClientOptions{
				URL:    url,
				Window: win,
				ID:     id,
				Logger: g.logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			defer storage.Listen(win.Events, func(ev storage.ChangeEvent) {
				printChange(out, ev)
			})()

			success(out, "watching %s as %s", url, client.ID())
			return client.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Hub websocket URL (default from config)")
	cmd.Flags().StringVar(&id, "id", "", "Window id (default: random)")

	return cmd
}

func printChange(w io.Writer, ev storage.ChangeEvent) {
	if ev.AllKeys {
		warn(w, "%s: cleared", ev.Area)
		return
	}
	fmt.Fprintf(w, "%s %s: %s -> %s\n", paint(colorDim, ev.Area), ev.Key, ev.OldValue, ev.NewValue)
}
