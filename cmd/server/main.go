package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itacpc/teams/internal/auth"
	"github.com/itacpc/teams/internal/config"
	"github.com/itacpc/teams/internal/database"
	"github.com/itacpc/teams/internal/export"
	"github.com/itacpc/teams/internal/janitor"
	"github.com/itacpc/teams/internal/mail"
	"github.com/itacpc/teams/internal/secret"
	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/team"
	"github.com/itacpc/teams/internal/university"
	"github.com/itacpc/teams/internal/web"
	"github.com/itacpc/teams/internal/web/session"
	"github.com/itacpc/teams/internal/web/view"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	policy, err := team.ParsePolicy(cfg.EmptyTeamPolicy)
	if err != nil {
		return err
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, cfg.DatabaseURL, "up"); err != nil {
			return err
		}
		slog.Info("database migrations applied")
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	mailer, err := mail.New(mail.Options{
		Backend:        cfg.MailBackend,
		From:           cfg.MailFrom,
		FromName:       cfg.MailFromName,
		SMTPHost:       cfg.SMTPHost,
		SMTPPort:       cfg.SMTPPort,
		SMTPUser:       cfg.SMTPUser,
		SMTPPassword:   cfg.SMTPPassword,
		SendgridAPIKey: cfg.SendgridAPIKey,
	}, slog.Default())
	if err != nil {
		return err
	}

	views, err := view.New()
	if err != nil {
		return err
	}

	universityRepo := university.NewRepository(db.Pool())
	studentRepo := student.NewRepository(db.Pool())
	teamRepo := team.NewRepository(db.Pool())

	authService := auth.NewService(studentRepo, universityRepo, mailer, auth.Options{
		BaseURL:       cfg.BaseURL,
		BcryptCost:    cfg.BcryptCost,
		ResetTTL:      cfg.PasswordResetTTL,
		ResetCooldown: cfg.PasswordResetCooldown,
	})
	teamService := team.NewService(teamRepo, studentRepo, universityRepo, team.Options{
		MaxMembers:      cfg.MaxTeamMembers,
		EmptyTeamPolicy: policy,
		NewSecret:       secret.Generator(secret.DefaultLength),
	})
	exporter := export.NewExporter(universityRepo, teamRepo, studentRepo, export.Options{
		GroupID:   cfg.ExportGroupID,
		GroupName: cfg.ExportGroupName,
		Country:   cfg.ExportCountry,
	})

	router := web.NewRouter(web.RouterDeps{
		DBPinger:     db,
		Version:      cfg.Version,
		BaseURL:      cfg.BaseURL,
		Maintenance:  cfg.MaintenanceMode,
		Views:        views,
		Sessions:     session.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookies),
		Auth:         authService,
		Universities: university.NewService(universityRepo),
		Teams:        teamService,
		Students:     student.NewService(studentRepo),
		Exporter:     exporter,
	})

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go janitor.New(studentRepo, cfg.JanitorInterval).Start(janitorCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting ITACPC teams server",
			"port", cfg.Port, "version", cfg.Version,
			"mailBackend", cfg.MailBackend, "maintenance", cfg.MaintenanceMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		return err
	}

	stopJanitor()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
