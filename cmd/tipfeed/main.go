package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/glabrego/tipfeed-cli/internal/api"
	"github.com/glabrego/tipfeed-cli/internal/app"
	"github.com/glabrego/tipfeed-cli/internal/balance"
	"github.com/glabrego/tipfeed-cli/internal/config"
	"github.com/glabrego/tipfeed-cli/internal/engage"
	"github.com/glabrego/tipfeed-cli/internal/feed"
	"github.com/glabrego/tipfeed-cli/internal/metrics"
	"github.com/glabrego/tipfeed-cli/internal/model"
	"github.com/glabrego/tipfeed-cli/internal/session"
	"github.com/glabrego/tipfeed-cli/internal/storage"
	"github.com/glabrego/tipfeed-cli/internal/tui"
	"github.com/glabrego/tipfeed-cli/internal/tui/actions"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("log setup error: %v", err)
	}
	defer closeLog()

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := repo.Init(ctx); err != nil {
		log.Fatalf("storage schema error: %v", err)
	}
	if err := repo.CheckWritable(ctx); err != nil {
		log.Fatalf("storage write check failed (%v). Verify TIPFEED_DB_PATH is writable: %s", err, cfg.DBPath)
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.Token, nil,
		api.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		api.WithLogger(logger),
	)
	service := app.NewService(client, repo)
	sess := session.New(cfg.Token, client)
	group := feed.NewGroup()

	var program *tea.Program
	var animator *balance.Animator
	animator = balance.New(sess,
		balance.WithLogger(logger),
		balance.WithRefreshTimeout(cfg.RequestTimeout),
		balance.WithOnChange(func(v int64) {
			if program == nil {
				return
			}
			_, animating := animator.Active()
			program.Send(actions.BalanceMsg{Value: v, Animating: animating})
		}),
	)
	unsubscribe := sess.Subscribe(func(account model.Account) {
		animator.SetServerBalance(account.Balance)
	})
	defer unsubscribe()

	coordinator := engage.New(client, group,
		engage.WithBalance(animator),
		engage.WithJournal(service),
		engage.WithLogger(logger),
		engage.WithTimeout(cfg.RequestTimeout),
	)

	stopMetrics := serveMetrics(cfg.MetricsAddr, logger)
	defer stopMetrics()

	ui := tui.NewModel(tui.Deps{
		Feeds:      service,
		Engager:    coordinator,
		Group:      group,
		Journal:    service,
		Account:    sess,
		WebBaseURL: cfg.WebBaseURL,
		PageSize:   cfg.PageSize,
	})

	prefCtx, prefCancel := context.WithTimeout(context.Background(), 5*time.Second)
	prefs, err := service.LoadUIPreferences(prefCtx)
	prefCancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load UI preferences (%v), using defaults\n", err)
		prefs = app.DefaultUIPreferences
	}
	ui.ApplyPreferences(tui.Preferences{
		Compact:      prefs.Compact,
		RelativeTime: prefs.RelativeTime,
	})

	ui.SetPreferencesSaver(func(p tui.Preferences) error {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer saveCancel()
		return service.SaveUIPreferences(saveCtx, app.UIPreferences{
			Compact:      p.Compact,
			RelativeTime: p.RelativeTime,
		})
	})

	logger.WithFields(logrus.Fields{"api": cfg.APIBaseURL, "db": cfg.DBPath}).Info("starting tipfeed")
	program = tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}

// newLogger writes JSON lines to TIPFEED_LOG_FILE. Without a file logs are
// dropped, since the terminal belongs to the UI.
func newLogger(cfg config.Config) (*logrus.Logger, func(), error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)

	if cfg.LogFile == "" {
		logger.SetOutput(io.Discard)
		return logger, func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(f)
	return logger, func() { _ = f.Close() }, nil
}

func serveMetrics(addr string, logger logrus.FieldLogger) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server stopped")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
