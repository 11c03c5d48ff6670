package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"insights-dashboard/internal/dashboard"
	"insights-dashboard/internal/metrics"
	"insights-dashboard/internal/notify"
	"insights-dashboard/internal/render"
	"insights-dashboard/internal/server"
	"insights-dashboard/internal/stream"
	"insights-dashboard/internal/tui"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live web dashboard",
		Long: `Serve the dashboard over HTTP. Browsers receive updates over
server-sent events as soon as the insight collection changes.

Endpoints:
  /                                         dashboard page
  /events                                   live updates
  /api/insights/recent?limit=N              latest insights as JSON
  /api/insights/:id/recommendations/:i/context  assistant context
  /health, /metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			seed, _ := cmd.Flags().GetString("seed")
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				app.Config.Server.Addr = addr
			}
			return app.serve(ctx, seed)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	cmd.Flags().String("seed", "", "JSON file of documents to write before subscribing")
	return cmd
}

func (a *App) serve(ctx context.Context, seed string) error {
	sub, cleanup, err := a.startFeed(ctx, seed)
	if err != nil {
		return err
	}
	defer cleanup()

	html, err := render.NewHTML(a.htmlLang())
	if err != nil {
		return err
	}

	hub := stream.NewHub()
	defer hub.Stop()
	hub.RegisterConsumer(stream.ConsumerFunc(metrics.RecordState))

	model := dashboard.NewModel(a.Config.Feed.Limit, a.Logger)
	srv := server.New(server.Config{
		Addr:            a.Config.Server.Addr,
		ReadTimeout:     a.Config.Server.ReadTimeout,
		ShutdownTimeout: a.Config.Server.ShutdownTimeout,
		Heartbeat:       a.Config.Server.Heartbeat,
		Limit:           a.Config.Feed.Limit,
	}, hub, a.renderer(), html, a.Logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return stream.Drive(gctx, sub.Events(), model, hub)
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the live dashboard in the terminal",
		Long: `Show the live dashboard in the terminal.

Keys:
  ↑/↓, pgup/pgdown  scroll
  n / p             select the next or previous recommendation
  a                 copy its context and open the assistant
  y / n             confirm or cancel a dialog
  q                 quit`,
		Annotations: map[string]string{quietConsole: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			seed, _ := cmd.Flags().GetString("seed")
			return app.watch(ctx, seed)
		},
	}
	cmd.Flags().String("seed", "", "JSON file of documents to write before subscribing")
	return cmd
}

func (a *App) watch(ctx context.Context, seed string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, cleanup, err := a.startFeed(ctx, seed)
	if err != nil {
		return err
	}
	defer cleanup()

	hub := stream.NewHub()
	defer hub.Stop()
	hub.RegisterConsumer(stream.ConsumerFunc(metrics.RecordState))
	_, states := hub.Subscribe("terminal")

	popups := notify.NewPopups(a.Logger)
	model := dashboard.NewModel(a.Config.Feed.Limit, a.Logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return stream.Drive(gctx, sub.Events(), model, hub)
	})
	g.Go(func() error {
		defer cancel()
		return tui.Run(gctx, tui.Options{
			States:    states,
			Renderer:  a.renderer(),
			Popups:    popups,
			Assistant: notify.NewAssistant(popups, a.Config.Assistant.ChatURL, a.Logger),
			Color:     a.Config.UI.ColorEnabled,
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
