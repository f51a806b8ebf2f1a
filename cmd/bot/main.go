package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gotd/td/tg"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/applygate/applybot/internal/bot"
	"github.com/applygate/applybot/internal/database"
	"github.com/applygate/applybot/internal/health"
	"github.com/applygate/applybot/internal/idempotency"
	"github.com/applygate/applybot/internal/jobs"
	jobhandlers "github.com/applygate/applybot/internal/jobs/handlers"
	"github.com/applygate/applybot/internal/journal"
	"github.com/applygate/applybot/internal/lifecycle"
	"github.com/applygate/applybot/internal/repository"
	"github.com/applygate/applybot/internal/search"
	"github.com/applygate/applybot/internal/sheets"
	"github.com/applygate/applybot/internal/source"
	"github.com/applygate/applybot/internal/state"
	"github.com/applygate/applybot/internal/telegram"
	"github.com/applygate/applybot/internal/user"
	"github.com/applygate/applybot/pkg/config"
	"github.com/applygate/applybot/pkg/graceful"
	"github.com/applygate/applybot/pkg/logger"
	appredis "github.com/applygate/applybot/pkg/redis"

	_ "github.com/lib/pq"
)

const migrationsDir = "migrations"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(*cfg)
	log.Info("starting apply links bot", slog.String("env", cfg.AppEnv))

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Error("failed to initialize sentry", slog.Any("error", err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	config.Watch(v, func(updated config.Config) {
		logger.SetLevel(updated.Logger.Level)
		log.Info("configuration reloaded", slog.String("log_level", updated.Logger.Level))
	})

	redisClient, err := appredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		os.Exit(1)
	}

	if err := database.NewMigrator(db, log).ApplyDir(ctx, migrationsDir); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	sources, err := source.LoadList(cfg.Search.SourcesFile, log)
	if err != nil {
		log.Error("failed to load source list", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("loaded search sources", slog.Int("count", len(sources)))

	loc, err := time.LoadLocation(cfg.Search.DisplayTimezone)
	if err != nil {
		log.Warn("unknown display timezone, falling back to UTC",
			slog.String("timezone", cfg.Search.DisplayTimezone), slog.Any("error", err))
		loc = time.UTC
	}

	sink := journal.NewMulti(log)
	sink.Add("file", journal.NewFileJournal(cfg.Journal.Path, log))

	if creds, credErr := cfg.Sheet.SheetCredentials(); credErr != nil {
		log.Error("failed to decode sheet credentials, sheet sink disabled", slog.Any("error", credErr))
	} else if sheetSink, sheetErr := sheets.NewSink(ctx, creds, cfg.Sheet.SpreadsheetID, cfg.Sheet.Worksheet, log); sheetErr != nil {
		log.Error("failed to initialize sheet sink", slog.Any("error", sheetErr))
	} else {
		if err := sheetSink.Bootstrap(ctx); err != nil {
			log.Warn("sheet bootstrap failed", slog.Any("error", err))
		}
		sink.Add("sheet", sheetSink)
	}

	fsm := state.NewStateMachine(state.NewRedisStorage(redisClient.Client, log), log, redisClient.Client)

	idemManager := idempotency.NewManager(idempotency.NewRedisStore(redisClient.Client, log), log)

	userRepo := repository.NewUserRepository(db, log)
	userService := user.NewService(userRepo, log)

	redisOpts := appredis.Options(cfg.Redis)
	asynqOpt := asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	}
	jobManager := jobs.NewManager(asynqOpt, log)

	b, err := bot.New(*cfg, log, fsm, idemManager, jobManager, userRepo, userService)
	if err != nil {
		log.Error("failed to initialize bot", slog.Any("error", err))
		os.Exit(1)
	}

	messenger := telegram.NewMessenger(b.Telebot(), log)

	mtp, err := telegram.NewMTProto(cfg.Telegram, cfg.Bot.Token, log)
	if err != nil {
		log.Error("failed to configure mtproto client", slog.Any("error", err))
		os.Exit(1)
	}

	shutdown := lifecycle.NewShutdown(log)

	// The search worker lives inside the MTProto session: history reads need
	// an authorized client, so the worker only starts once the session is up.
	var workerMu sync.Mutex
	var searchWorker jobs.Worker
	go func() {
		runErr := mtp.Run(ctx, func(api *tg.Client) error {
			historyClient := telegram.NewHistoryClient(api, cfg.Search.PageSize, log)
			formatter := search.NewFormatter(loc)
			engine := search.NewEngine(
				historyClient,
				messenger,
				formatter,
				cfg.Search.Lookback(),
				cfg.Search.PerSourceCap,
				cfg.Bot.OwnerUsername,
				log,
			)

			handler := jobhandlers.NewApplySearchHandler(engine, sink, sources, loc, log)

			w := jobs.NewWorker(
				asynqOpt,
				map[string]int{jobs.QueueDefault: 6, jobs.QueueLow: 1},
				cfg.Search.QueueConcurrency,
				log,
			)
			w.RegisterHandler(jobs.TaskTypeApplySearch, handler)

			workerMu.Lock()
			searchWorker = w
			workerMu.Unlock()

			return w.Run()
		})
		if runErr != nil && ctx.Err() == nil {
			log.Error("mtproto session terminated", slog.Any("error", runErr))
			stop()
		}
	}()

	checker := health.NewChecker(log)
	checker.AddCheck("redis", redisClient)
	checker.AddCheck("database", health.NewDBChecker(db))
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))

	opsServer := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.Port,
		Handler: logger.Middleware(opsMux(checker)),
	}, cfg.Server.ShutdownTimeout)

	go func() {
		if err := opsServer.ListenAndServe(ctx); err != nil {
			log.Error("ops server stopped with error", slog.Any("error", err))
		}
	}()

	shutdown.Register("telegram bot", func(context.Context) error {
		b.Stop()
		return nil
	})
	shutdown.Register("job worker", func(context.Context) error {
		workerMu.Lock()
		w := searchWorker
		workerMu.Unlock()
		if w != nil {
			w.Shutdown()
		}
		return nil
	})
	shutdown.Register("job manager", func(context.Context) error {
		return jobManager.Close()
	})
	shutdown.Register("redis", func(context.Context) error {
		return redisClient.Close()
	})
	shutdown.Register("database", func(context.Context) error {
		return db.Close()
	})

	go b.Start()
	log.Info("bot is running")

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}
}

func opsMux(checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		results := checker.Check(r.Context())

		status := http.StatusOK
		for _, result := range results {
			if result != "OK" {
				status = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(results)
	})

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
