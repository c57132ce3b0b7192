package cmd

import (
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/onflow/drand-fulfiller/engine/fulfillment"
	"github.com/onflow/drand-fulfiller/model/vrf"
	"github.com/onflow/drand-fulfiller/module/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run invocations periodically and serve their results over HTTP",
	Long: `Runs an invocation every --interval until interrupted. Invocations never
overlap. The last result is served at /v1/result, metrics at /metrics.`,
	RunE: serve,
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := readConfig(cmd, true)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	collector := metrics.NewFulfillmentCollector()
	engine, closer, err := buildEngine(ctx, cfg, collector)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Error().Err(err).Msg("could not close checkpoint store")
		}
	}()

	server := metrics.NewServer(log, cfg.HTTPAddr, statusRoutes(engine))
	<-server.Ready()

	engine.Serve(ctx, cfg.Interval, func(result *vrf.ExecutionResult) {
		event := log.Info()
		if !result.CanExec {
			event = log.Debug()
		}
		event.Bool("can_exec", result.CanExec).Str("message", result.Message).Msg("invocation finished")
	})

	<-server.Done()
	return nil
}

// statusRoutes registers the health and result endpoints of the engine.
func statusRoutes(engine *fulfillment.Engine) func(r *mux.Router) {
	return func(r *mux.Router) {
		r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		}).Methods(http.MethodGet)

		r.HandleFunc("/v1/result", func(w http.ResponseWriter, _ *http.Request) {
			report := engine.LastReport()
			if report == nil {
				http.Error(w, "no invocation has finished yet", http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(report); err != nil {
				log.Warn().Err(err).Msg("could not write result")
			}
		}).Methods(http.MethodGet)
	}
}

