// Package app はCLIのコマンド定義と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/articlefeed/internal/apiclient"
	"github.com/hitoshi/articlefeed/internal/article"
	"github.com/hitoshi/articlefeed/internal/auth"
	"github.com/hitoshi/articlefeed/internal/config"
	"github.com/hitoshi/articlefeed/internal/database"
	"github.com/hitoshi/articlefeed/internal/logger"
	"github.com/hitoshi/articlefeed/internal/metrics"
	"github.com/hitoshi/articlefeed/internal/repository"
	"github.com/hitoshi/articlefeed/internal/security"
	"github.com/hitoshi/articlefeed/internal/session"
)

// Run はCLIのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。コマンドの出力はwに、ログは標準エラーに書き込む。
func Run(w io.Writer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &App{out: w, logOut: os.Stderr}
	defer a.Close()

	root := a.NewRootCommand()
	root.SetArgs(args)
	root.SetOut(w)
	err := root.ExecuteContext(ctx)

	if a.cfg != nil && a.cfg.MetricsTextfile != "" && a.registry != nil {
		if werr := metrics.WriteTextfile(a.cfg.MetricsTextfile, a.registry); werr != nil {
			a.logger.Warn("failed to write metrics textfile", slog.String("error", werr.Error()))
		}
	}
	return err
}

// App は1回のコマンド実行で使う依存関係を保持する。
// クライアント系の依存関係は必要になった時点で1回だけ構築する。
type App struct {
	out    io.Writer
	logOut io.Writer

	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry

	db          *sql.DB
	sessionFile string // ファイル保存時のみ
	store       *session.Store
	client      *apiclient.Client
	auth        *auth.Service
	articles    *article.Service

	jsonOut bool
}

// Init は設定を読み込み、ロガーとメトリクスレジストリを準備する。
func (a *App) Init() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger.SetupWithLevel(a.logOut, level)
	slog.SetDefault(a.logger)
	a.registry = prometheus.NewRegistry()
	return nil
}

// Services はセッションストア、APIクライアント、各サービスを構築し、保存済みセッションを復元する。
func (a *App) Services(ctx context.Context) error {
	if a.client != nil {
		return nil
	}
	if err := a.Init(); err != nil {
		return err
	}

	repo, err := a.openRepository(ctx)
	if err != nil {
		return err
	}
	a.store = session.NewStore(repo, a.logger)

	opts := []apiclient.Option{
		apiclient.WithLogger(a.logger),
		apiclient.WithMetrics(metrics.NewCollector(a.registry)),
	}
	if a.cfg.API.BaseURL != "" || a.cfg.API.Prefix != "" {
		base, prefix := a.cfg.API.BaseURL, a.cfg.API.Prefix
		if base == "" {
			base = apiclient.DefaultBaseURL
		}
		if prefix == "" {
			prefix = apiclient.DefaultAPIPrefix
		}
		opts = append(opts, apiclient.WithBaseURL(base, prefix))
	}
	opts = append(opts, apiclient.WithHTTPClient(&http.Client{Timeout: a.cfg.API.Timeout}))
	if a.cfg.API.UserAgent != "" {
		opts = append(opts, apiclient.WithUserAgent(a.cfg.API.UserAgent))
	}
	if a.cfg.API.RateLimitRPS > 0 {
		opts = append(opts, apiclient.WithRateLimiter(
			rate.NewLimiter(rate.Limit(a.cfg.API.RateLimitRPS), a.cfg.API.RateLimitBurst),
		))
	}
	a.client = apiclient.New(a.store, opts...)

	a.auth = auth.NewService(a.client, a.store, a.logger)
	if err := a.auth.Restore(ctx); err != nil {
		return err
	}
	a.articles = article.NewService(a.client, a.logger, a.cfg.PageSize)

	a.logger.Debug("services initialized",
		slog.String("base_url", a.client.BaseURL()),
		slog.String("session_backend", a.cfg.Session.Backend),
	)
	return nil
}

// openRepository は設定に応じたセッションの永続化先を開く。
func (a *App) openRepository(ctx context.Context) (repository.SessionRepository, error) {
	switch a.cfg.Session.Backend {
	case config.BackendMemory:
		return repository.NewMemorySessionRepo(), nil
	case config.BackendPostgres:
		db, err := database.Connect(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.db = db
		return repository.NewPostgresSessionRepo(db, a.cfg.Session.Namespace), nil
	default:
		var sealer repository.Sealer
		if a.cfg.Session.Passphrase != "" {
			s, err := security.NewSealer(a.cfg.Session.Passphrase)
			if err != nil {
				return nil, fmt.Errorf("failed to create session sealer: %w", err)
			}
			sealer = s
		}
		repo := repository.NewFileSessionRepo(a.cfg.Session.File, sealer)
		a.sessionFile = repo.Path()
		return repo, nil
	}
}

// Close は開いたリソースを解放する。
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
