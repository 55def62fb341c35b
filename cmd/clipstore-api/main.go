package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/clipstore/internal/auth"
	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
	"github.com/MarcoPoloResearchLab/clipstore/internal/config"
	"github.com/MarcoPoloResearchLab/clipstore/internal/logging"
	"github.com/MarcoPoloResearchLab/clipstore/internal/metrics"
	"github.com/MarcoPoloResearchLab/clipstore/internal/search"
	"github.com/MarcoPoloResearchLab/clipstore/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const shutdownTimeout = 10 * time.Second

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clipstore-api",
		Short: "Clipstore video catalog and search service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().StringSlice("cors-origins", defaults.GetStringSlice("http.cors_origins"), "Allowed CORS origins")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("auth.token_ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().Int("search-corpus-cap", defaults.GetInt("search.corpus_cap"), "Newest videos scored per search")
	cmd.PersistentFlags().Int("search-result-limit", defaults.GetInt("search.result_limit"), "Maximum search results returned")
	cmd.PersistentFlags().Float64("search-rate-per-second", defaults.GetFloat64("search.rate_per_second"), "Per-client search rate, 0 disables limiting")
	cmd.PersistentFlags().Int("history-limit", defaults.GetInt("catalog.history_limit"), "Watch history entries kept per user")
	cmd.PersistentFlags().StringSlice("categories", defaults.GetStringSlice("catalog.categories"), "Bootstrap category names")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "http.cors_origins", "cors-origins")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "auth.token_ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "search.corpus_cap", "search-corpus-cap")
	bindFlag(cmd, "search.result_limit", "search-result-limit")
	bindFlag(cmd, "search.rate_per_second", "search-rate-per-second")
	bindFlag(cmd, "catalog.history_limit", "history-limit")
	bindFlag(cmd, "catalog.categories", "categories")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store := catalog.NewStore(catalog.Config{
		Clock:        time.Now,
		Categories:   appConfig.Categories,
		HistoryLimit: appConfig.HistoryLimit,
	})

	engine, err := search.NewEngine(search.Config{
		Catalog:     store,
		CorpusCap:   appConfig.SearchCorpusCap,
		ResultLimit: appConfig.SearchResultLimit,
	})
	if err != nil {
		return err
	}

	tokenIssuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        appConfig.TokenIssuer,
		Audience:      appConfig.TokenAudience,
		TokenTTL:      appConfig.TokenTTL,
	})
	if err != nil {
		return err
	}

	sessionValidator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        appConfig.TokenIssuer,
		Audience:      appConfig.TokenAudience,
		CookieName:    appConfig.SessionCookieName,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Catalog:             store,
		Search:              engine,
		Tokens:              tokenIssuer,
		Sessions:            sessionValidator,
		Passwords:           auth.NewPasswordHasher(bcrypt.DefaultCost),
		Realtime:            server.NewRealtimeDispatcher(),
		Metrics:             metrics.New(),
		Logger:              logger,
		Clock:               time.Now,
		CORSOrigins:         appConfig.CORSAllowedOrigins,
		SearchRatePerSecond: appConfig.SearchRatePerSec,
		SearchBurst:         appConfig.SearchBurst,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.Int("categories", len(store.ListCategories())),
		)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
