package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scrypster/coref/internal/notify"
	"github.com/scrypster/coref/internal/server"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var (
		host  string
		port  int
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolver over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			srv := server.New(a.resolver, server.Options{
				Config:    a.cfg.Server,
				Logger:    a.log.Logger,
				Requests:  a.metrics,
				Gatherer:  a.registry,
				Gazetteer: a.gazetteer.Breaker(),
			})
			addr, err := srv.Start(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "coref listening on http://%s\n", addr)

			if watch {
				w := notify.NewFileWriter(a.resolver, a.log.Logger)
				w.OnEvent = func(e notify.Event) {
					if e.Err == nil {
						srv.Hub().Broadcast(server.Event{
							Type:       server.EventResolved,
							DocumentID: e.Result.DocumentID,
							Chains:     len(e.Result.Chains),
							Mentions:   e.Result.MentionCount,
						})
					}
				}
				dw := notify.NewDirWatcher(a.cfg.Watch, w, a.log.Logger)
				if err := dw.Start(ctx); err != nil {
					return err
				}
				defer dw.Stop()
			}

			<-ctx.Done()
			a.log.Info("shutting down")
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "also resolve documents dropped into the watch directory")
	return cmd
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Resolve documents as they appear in a directory",
		Long: `Watch resolves every *.json and *.yaml document written to DIR (default:
the configured watch dir) and writes <file>.coref.json next to it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			watchCfg := a.cfg.Watch
			if len(args) == 1 {
				watchCfg.Dir = args[0]
			}
			w := notify.NewFileWriter(a.resolver, a.log.Logger)
			w.KeepInput = !remove
			dw := notify.NewDirWatcher(watchCfg, w, a.log.Logger)
			if err := dw.Start(ctx); err != nil {
				return err
			}
			defer dw.Stop()

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "delete each input after its output is written")
	return cmd
}
