package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lmsassist/browser"
	"lmsassist/config"
	"lmsassist/dom"
	"lmsassist/fetch"
	"lmsassist/logging"
	"lmsassist/relay"
	"lmsassist/router"
	"lmsassist/server"
	"lmsassist/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		a          app
	)

	root := &cobra.Command{
		Use:          "lmsassist",
		Short:        "Quiz, discussion and lesson automation for LMS pages",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(serveCmd(&a), relayCmd(&a), runCmd(&a))
	return root
}

func (a *app) pool() *browser.Pool {
	b := a.cfg.Browser
	return browser.New(browser.Options{
		Size:            b.PoolSize,
		Headless:        b.Headless,
		ExecPath:        b.ExecPath,
		UserAgent:       b.UserAgent,
		NavigateTimeout: b.NavigateTimeout,
		AcquireTimeout:  b.AcquireTimeout,
	}, a.log.Named("browser"))
}

func (a *app) fetcher(cookie string) *fetch.Client {
	var opts []fetch.Option
	if cookie != "" {
		opts = append(opts, fetch.WithCookie(cookie))
	}
	return fetch.New(a.cfg.Fetch.Timeout, a.cfg.Fetch.UserAgent, opts...)
}

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve requests over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pool := a.pool()
			defer pool.Shutdown()

			svc := service.New(a.fetcher(""), pool, a.log.Named("service"))
			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           server.New(svc, a.cfg.Server.AllowedOrigins, a.log.Named("http")),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("server is running", zap.String("addr", srv.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func relayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Serve requests published on a Redis channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := a.cfg.Redis
			client := relay.NewClient(r.Addr, r.Password, r.DB)
			defer client.Close()

			pool := a.pool()
			defer pool.Shutdown()

			svc := service.New(a.fetcher(""), pool, a.log.Named("service"))
			return relay.New(client, r.Channel, svc, a.log.Named("relay")).Run(ctx)
		},
	}
}

func runCmd(a *app) *cobra.Command {
	var (
		file, url, answer, content, cookie string
		live                               bool
	)

	cmd := &cobra.Command{
		Use:       "run TYPE",
		Short:     "Run one request against a saved page or URL and print the reply",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := router.Envelope{Type: args[0], Answer: answer, Content: content, Page: &dom.Snapshot{URL: url}}
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read page: %w", err)
				}
				e.Page.HTML = string(raw)
			}

			var (
				rep router.Reply
				err error
			)
			if live {
				pool := a.pool()
				defer pool.Shutdown()
				rep, err = service.New(nil, pool, a.log).HandleLive(cmd.Context(), e)
			} else {
				rep, err = service.New(a.fetcher(cookie), nil, a.log).Handle(cmd.Context(), e)
			}
			if err != nil {
				return err
			}

			out := json.NewEncoder(cmd.OutOrStdout())
			out.SetIndent("", "    ")
			return out.Encode(rep)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "saved HTML page")
	cmd.Flags().StringVarP(&url, "url", "u", "", "page URL")
	cmd.Flags().StringVar(&answer, "answer", "", "answer text for SELECT_ANSWER")
	cmd.Flags().StringVar(&content, "content", "", "markup for FILL_EDITOR")
	cmd.Flags().StringVar(&cookie, "cookie", "", "Cookie header sent when fetching --url")
	cmd.Flags().BoolVar(&live, "live", false, "open --url in Chrome and apply the result there")
	cmd.MarkFlagsOneRequired("file", "url")
	return cmd
}

func kindNames() []string {
	names := make([]string, len(router.Kinds))
	for i, k := range router.Kinds {
		names[i] = string(k)
	}
	return names
}
