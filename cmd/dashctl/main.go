// dashctl is the command-line surface of the lending dashboard client.
// It wires the API client, the search and document controllers, and the
// mail dispatcher to one-shot subcommands.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/creditoya/dashboard-client/internal/config"
	"github.com/creditoya/dashboard-client/pkg/api"
	"github.com/creditoya/dashboard-client/pkg/logging"
)

// root-level flags shared by every subcommand.
var (
	cfgPath    string
	baseURL    string
	authCookie string
)

func main() {
	root := &cobra.Command{
		Use:   "dashctl",
		Short: "CreditoYa lending dashboard client",
	}

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default ./config.yaml)")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "dashboard API base URL (overrides config)")
	root.PersistentFlags().StringVar(&authCookie, "cookie", "", "session cookie value (overrides config)")

	root.AddCommand(loansCmd(), docsCmd(), mailCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies flag overrides and validates.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if authCookie != "" {
		cfg.API.AuthCookie = authCookie
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads config, configures logging and telemetry, and builds the API
// client. The returned client must be closed by the caller.
func setup() (*config.Config, *api.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
	})

	if cfg.Telemetry.Enabled {
		go serveMetrics(cfg.Telemetry.MetricsPort)
	}

	clientCfg := api.DefaultConfig(cfg.API.BaseURL)
	clientCfg.AuthCookie = cfg.API.AuthCookie
	clientCfg.Timeout = cfg.API.Timeout
	clientCfg.MaxRetries = cfg.API.MaxRetries
	clientCfg.InitialBackoff = cfg.API.InitialBackoff
	if cfg.Cache.Enabled && cfg.Redis.Addr != "" {
		clientCfg.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		clientCfg.CacheTTL = cfg.Cache.TTL
	}

	client, err := api.New(clientCfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

func serveMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	_ = http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
