package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"warfarin-bot/internal/analytics"
	"warfarin-bot/internal/api"
	"warfarin-bot/internal/chart"
	"warfarin-bot/internal/config"
	"warfarin-bot/internal/dialogue"
	"warfarin-bot/internal/dose"
	"warfarin-bot/internal/line"
	"warfarin-bot/internal/records"
	"warfarin-bot/internal/reminder"
	"warfarin-bot/internal/scheduler"
	"warfarin-bot/internal/session"
	"warfarin-bot/internal/storage"
	"warfarin-bot/internal/telegram"
)

const (
	janitorInterval = time.Minute
	imageTTL        = 15 * time.Minute
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalogs, err := dose.LoadCatalogs(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("failed to load catalogs: %v", err)
	}
	eval := dose.NewEvaluator(catalogs, func() time.Time { return time.Now().In(loc) })

	sink, sqliteStore := newSink(cfg)
	if sqliteStore != nil {
		defer func() { _ = sqliteStore.Close() }()
	}

	var rec storage.Recorder
	if cfg.AuditLogPath != "" {
		fr, err := storage.NewFileRecorder(cfg.AuditLogPath)
		if err != nil {
			log.Printf("failed to init audit log: %v", err)
		} else {
			defer func() { _ = fr.Close() }()
			rec = fr
		}
	}

	sessions := session.NewStore(cfg.SessionTTL, nil)
	sessions.StartJanitor(ctx, janitorInterval)

	opts := []dialogue.Option{dialogue.WithLocation(loc)}
	if rec != nil {
		opts = append(opts, dialogue.WithRecorder(rec))
	}
	engine := dialogue.New(sessions, eval, sink, chart.Renderer{}, opts...)

	report := func(context.Context) (string, error) {
		if rec == nil {
			return "", errors.New("audit log disabled")
		}
		events, err := rec.LoadEvents()
		if err != nil {
			return "", err
		}
		return analytics.AnalyzeDailyLogs(events, time.Now().In(loc)).GenerateReportSummary(), nil
	}

	var router reminder.Router

	var bot *telegram.Bot
	if cfg.TelegramEnabled() {
		adminID, _ := telegram.ChatID(cfg.AdminUserID)
		bot, err = telegram.New(cfg.TelegramBotToken, engine, adminID, report)
		if err != nil {
			log.Fatalf("failed to create telegram bot: %v", err)
		}
		router = append(router, reminder.Route{Name: telegram.Channel, Match: telegram.IsUserID, Notifier: bot})
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("✅ Warfarin bot is live"))
	})
	api.NewHandler(sink).RegisterRoutes(r)
	if cfg.LineEnabled() {
		client := line.NewClient(cfg.LineChannelAccessToken, cfg.HTTPTimeout)
		line.NewWebhook(cfg.LineChannelSecret, client, engine, line.NewImageStore(imageTTL), cfg.PublicBaseURL).RegisterRoutes(r)
		// LINE user IDs have no prefix, so it takes whatever Telegram does not.
		router = append(router, reminder.Route{Name: line.Channel, Notifier: client})
	}

	sched := scheduler.New(loc)
	registerJobs(ctx, cfg, sched, sqliteStore, router, report)
	sched.Start()

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		log.Printf("🌐 Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	if bot != nil {
		go bot.Start(ctx)
	}

	<-ctx.Done()
	stop()
	log.Println("Shutting down gracefully...")

	sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	log.Println("Bot stopped")
}

// newSink picks the record backend. The SQLite store is returned separately
// because it also serves as the reminder roster.
func newSink(cfg *config.Config) (records.Sink, *records.SQLiteStore) {
	switch cfg.RecordBackend {
	case config.BackendSQLite:
		st, err := records.NewSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite: %v", err)
		}
		return st, st
	default:
		return records.NewAppsScriptClient(cfg.AppsScriptURL, cfg.HTTPTimeout), nil
	}
}

func registerJobs(ctx context.Context, cfg *config.Config, sched *scheduler.Scheduler, st *records.SQLiteStore, notifier reminder.Notifier, report telegram.ReportFunc) {
	if cfg.RemindersEnabled() {
		var roster records.Roster
		if cfg.RosterBackend == config.RosterSQLite {
			roster = st
		} else {
			sr, err := records.NewSheetsRoster(ctx, cfg.GoogleCredentialsFile, cfg.SpreadsheetID, cfg.SheetName)
			if err != nil {
				log.Printf("❌ Sheets roster unavailable, reminders disabled: %v", err)
			} else {
				roster = sr
			}
		}
		if roster != nil {
			sweeper := reminder.NewSweeper(roster, notifier, cfg.Location())
			if err := sched.Add(cfg.ReminderSchedule, "medication-reminders", func(ctx context.Context) error {
				_, err := sweeper.Run(ctx)
				return err
			}); err != nil {
				log.Printf("❌ %v", err)
			}
		}
	}

	if cfg.AdminUserID != "" {
		if err := sched.Add(cfg.ReportSchedule, "daily-report", func(ctx context.Context) error {
			text, err := report(ctx)
			if err != nil {
				return err
			}
			return notifier.Push(ctx, cfg.AdminUserID, text)
		}); err != nil {
			log.Printf("❌ %v", err)
		}
	}
}
