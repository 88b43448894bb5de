package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hitoshi/articlefeed/internal/apiclient"
	"github.com/hitoshi/articlefeed/internal/config"
	"github.com/hitoshi/articlefeed/internal/database"
	"github.com/hitoshi/articlefeed/internal/devserver"
	"github.com/hitoshi/articlefeed/internal/feed"
	"github.com/hitoshi/articlefeed/internal/handler"
	"github.com/hitoshi/articlefeed/internal/metrics"
	"github.com/hitoshi/articlefeed/internal/middleware"
	"github.com/hitoshi/articlefeed/internal/security"
)

// shutdownTimeout は開発用サーバーの停止を待つ上限。
const shutdownTimeout = 30 * time.Second

// importOutput はimportコマンドのJSON出力。
type importOutput struct {
	Total   int     `json:"total"`
	Created int     `json:"created"`
	Skipped int     `json:"skipped"`
	Failed  int     `json:"failed"`
	IDs     []int64 `json:"ids"`
}

func (a *App) importCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <feed-url>",
		Short: "Publish entries of an RSS/Atom feed as articles",
		Long: `Fetch an RSS or Atom feed and publish each entry as a new article.
Entries whose title or content do not satisfy the article rules are skipped.

Examples:
  articlefeed import https://go.dev/blog/feed.atom --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			importer := feed.NewImporter(a.articles, security.NewContentSanitizer(),
				&http.Client{Timeout: a.cfg.API.Timeout}, a.logger)
			res, err := importer.Import(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			out := importOutput{
				Total:   res.Total,
				Created: res.Created(),
				Skipped: res.Skipped,
				Failed:  res.Failed,
				IDs:     make([]int64, 0, len(res.Articles)),
			}
			for _, art := range res.Articles {
				out.IDs = append(out.IDs, art.ID)
			}
			if a.jsonOut {
				return a.printJSON(out)
			}
			_, err = fmt.Fprintf(a.out, "Imported %d of %d entries (%d skipped, %d failed)\n",
				out.Created, out.Total, out.Skipped, out.Failed)
			return err
		},
	}
	cmd.Flags().Int("limit", 10, "maximum number of entries to import (0 for all)")
	return cmd
}

func (a *App) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the postgres session backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DatabaseURL == "" {
				return fmt.Errorf("required environment variables are not set: %v", []string{"DATABASE_URL"})
			}
			a.logger.Info("running database migrations",
				slog.String("database_url", maskDatabaseURL(a.cfg.DatabaseURL)),
			)
			version, err := database.RunMigrations(a.cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			a.logger.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
			return a.printMessage(fmt.Sprintf("Migrations applied (schema version %d)", version))
		},
	}
}

func (a *App) devserverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory backend for local development",
		Long: `Run an in-memory implementation of the article publishing API.
All data is lost when the server stops. Verification and reset tokens are
written to the log instead of being emailed.

Examples:
  DEVSERVER_SECRET=dev articlefeed devserver --auto-verify
  API_BASE_URL=http://localhost:8080 articlefeed login --email ...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.cfg.DevServer.Addr = addr
			}
			if cmd.Flags().Changed("auto-verify") {
				a.cfg.DevServer.AutoVerify, _ = cmd.Flags().GetBool("auto-verify")
			}
			return a.runDevServer(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (default DEVSERVER_ADDR)")
	cmd.Flags().Bool("auto-verify", false, "treat new accounts as verified")
	return cmd
}

// DevServerHandler は設定から開発用バックエンドのHTTPハンドラーを構築する。
// 返される関数はレートリミッタのクリーンアップを停止する。
func DevServerHandler(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (http.Handler, func(), error) {
	if err := cfg.ValidateDevServer(); err != nil {
		return nil, nil, err
	}
	backend, err := devserver.New(devserver.Config{
		Secret:     cfg.DevServer.Secret,
		AccessTTL:  cfg.DevServer.AccessTTL,
		RefreshTTL: cfg.DevServer.RefreshTTL,
		AutoVerify: cfg.DevServer.AutoVerify,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dev backend: %w", err)
	}

	prefix := cfg.API.Prefix
	if prefix == "" {
		prefix = apiclient.DefaultAPIPrefix
	}
	rl := middleware.NewRateLimiter(middleware.PerMinuteRateLimiterConfig(cfg.DevServer.RateLimit), logger)
	h := handler.NewRouter(&handler.RouterDeps{
		Backend:     backend,
		Prefix:      prefix,
		Logger:      logger,
		RateLimiter: rl,
		Metrics:     metrics.NewCollector(reg),
		Gatherer:    reg,
		CORSOrigin:  cfg.DevServer.CORSOrigin,
	})
	return h, rl.Stop, nil
}

// runDevServer は開発用バックエンドを起動し、ctxがキャンセルされるとグレースフルシャットダウンする。
func (a *App) runDevServer(ctx context.Context) error {
	h, stop, err := DevServerHandler(a.cfg, a.logger, a.registry)
	if err != nil {
		return err
	}
	defer stop()

	server := &http.Server{
		Addr:         a.cfg.DevServer.Addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("dev server starting",
			slog.String("addr", server.Addr),
			slog.Bool("auto_verify", a.cfg.DevServer.AutoVerify),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("dev server listen failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.logger.Info("shutting down dev server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.logger.Info("dev server stopped gracefully")
	return nil
}
