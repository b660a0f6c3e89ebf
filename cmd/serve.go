package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	"github.com/tanpawarit/autocheck-bot/bot/dialog"
	"github.com/tanpawarit/autocheck-bot/bot/metrics"
	nodex "github.com/tanpawarit/autocheck-bot/bot/nodes"
	"github.com/tanpawarit/autocheck-bot/bot/provider"
	"github.com/tanpawarit/autocheck-bot/bot/query"
	statex "github.com/tanpawarit/autocheck-bot/bot/state"
	"github.com/tanpawarit/autocheck-bot/pkg/httpserver"
	"github.com/tanpawarit/autocheck-bot/pkg/telegram"
)

type metricsConfig struct {
	// Addr of the /metrics and /healthz listener; empty disables it.
	Addr string `envconfig:"ADDR" default:":9090"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cs := &configSet{}
		var (
			botCfg     telegram.Config
			sessionCfg statex.Config
			metricsCfg metricsConfig
		)
		loadInto(cs, "BOT", &botCfg)
		cs.require("BOT_TOKEN", botCfg.Token)
		providerCfgs := cs.providerConfigs()
		loadInto(cs, "SESSION", &sessionCfg)
		loadInto(cs, "METRICS", &metricsCfg)
		if err := cs.err(); err != nil {
			return err
		}

		registry, err := provider.NewRegistry(providerCfgs)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := metrics.New(reg)

		orchestrator, err := query.New(registry, query.WithMetrics(m))
		if err != nil {
			return err
		}
		store, err := statex.NewMemoryStore(statex.WithTTL(sessionCfg.TTL))
		if err != nil {
			return err
		}
		bot, err := telegram.New(botCfg,
			telegram.WithMetrics(m),
			telegram.WithFailureReply(contractx.Reply{Text: nodex.TextQueryFailed, Keyboard: contractx.KeyboardMain}),
		)
		if err != nil {
			return err
		}
		svc, err := dialog.New(store, orchestrator, bot)
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return bot.Run(gctx, svc)
		})

		if metricsCfg.Addr != "" {
			srv := httpserver.New(metricsCfg.Addr, httpserver.OpsRouter(reg))
			g.Go(func() error {
				log.Info().Str("addr", srv.Addr).Msg("ops server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("ops server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		}

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
