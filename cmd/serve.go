package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	orchestratorx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/agents/orchestrator"
	analyticsx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/analytics"
	leadstorex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/leadstore"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
	"github.com/tanpawarit/Inmobilia-Lead-Capture/api"
	configx "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/config"
	qstashx "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/qstash"
)

type deliveryConfig struct {
	LeadWebhookURL string `split_words:"true"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lead capture HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, summarizer, err := newEngine(ctx)
		if err != nil {
			return err
		}

		redisCfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return err
		}
		store, err := statex.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			return fmt.Errorf("session store: %w", err)
		}

		analyticsCfg, err := configx.New[analyticsx.Config]("ANALYTICS")
		if err != nil {
			return err
		}
		events, err := analyticsx.OpenSQLite(analyticsCfg.Path)
		if err != nil {
			return err
		}
		defer events.Close()

		deps := orchestratorx.ServiceDeps{
			Store:      store,
			Recorder:   analyticsx.Tee{events, analyticsx.LogRecorder{}},
			Summarizer: summarizer,
		}
		opts := []api.Option{api.WithReports(events)}

		leads, err := openLeadStore(ctx)
		if err != nil {
			return err
		}
		if leads != nil {
			defer leads.Close()
			deps.Leads = leads
			opts = append(opts, api.WithLeadLister(leads))
		}

		if deps.Delivery, err = newDelivery(); err != nil {
			return err
		}

		svc, err := orchestratorx.NewService(engine, deps)
		if err != nil {
			return err
		}

		httpCfg, err := configx.New[api.Config]("HTTP")
		if err != nil {
			return err
		}
		srv, err := api.New(*httpCfg, svc, opts...)
		if err != nil {
			return err
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown api")
			}
		}()

		log.Info().Str("analytics", events.Path()).Bool("lead_store", leads != nil).Bool("delivery", deps.Delivery != nil).Msg("starting")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// openLeadStore connects the PostgreSQL lead repository when LEADS_DSN is
// set; otherwise leads live only in the session store.
func openLeadStore(ctx context.Context) (*leadstorex.Store, error) {
	cfg, err := configx.New[leadstorex.Config]("LEADS")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		log.Warn().Msg("LEADS_DSN not set, lead repository disabled")
		return nil, nil
	}

	leads, err := leadstorex.Open(*cfg)
	if err != nil {
		return nil, err
	}
	if err := leads.Ping(ctx); err != nil {
		leads.Close()
		return nil, fmt.Errorf("lead store unreachable: %w", err)
	}
	if err := leads.CreateSchema(ctx); err != nil {
		leads.Close()
		return nil, fmt.Errorf("lead store: %w", err)
	}
	return leads, nil
}

// newDelivery returns the QStash hand-off when both QSTASH_TOKEN and
// LEAD_WEBHOOK_URL are set.
func newDelivery() (orchestratorx.LeadDelivery, error) {
	qcfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil {
		return nil, err
	}
	dcfg, err := configx.New[deliveryConfig]("")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(qcfg.Token) == "" || strings.TrimSpace(dcfg.LeadWebhookURL) == "" {
		log.Warn().Msg("QSTASH_TOKEN or LEAD_WEBHOOK_URL not set, lead delivery disabled")
		return nil, nil
	}

	client, err := qstashx.NewClient(*qcfg)
	if err != nil {
		return nil, fmt.Errorf("qstash: %w", err)
	}
	delivery, err := orchestratorx.NewQStashDelivery(client, dcfg.LeadWebhookURL)
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
