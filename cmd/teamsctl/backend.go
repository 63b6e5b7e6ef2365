package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/itacpc/teams/internal/auth"
	"github.com/itacpc/teams/internal/database"
	"github.com/itacpc/teams/internal/export"
	"github.com/itacpc/teams/internal/mail"
	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/team"
	"github.com/itacpc/teams/internal/university"
)

// backend is what the commands need from the database.
type backend interface {
	Migrate(ctx context.Context, command string, args ...string) error
	SeedUniversities(ctx context.Context, unis []university.University) (int, error)
	CreateSuperuser(ctx context.Context, in auth.Superuser) (*student.Student, error)
	Export(ctx context.Context, w io.Writer, dataset string) error
	IssueCredentials(ctx context.Context) (int, error)
	Close()
}

// settings is the subset of the server configuration used by teamsctl.
type settings struct {
	DatabaseURL     string `envconfig:"DATABASE_URL" required:"true"`
	BcryptCost      int    `envconfig:"BCRYPT_COST" default:"12"`
	ExportGroupID   string `envconfig:"EXPORT_GROUP_ID" default:"participants"`
	ExportGroupName string `envconfig:"EXPORT_GROUP_NAME" default:"Participants"`
	ExportCountry   string `envconfig:"EXPORT_COUNTRY" default:"ITA"`
}

func loadSettings() (*settings, error) {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", path, err)
		}
	}
	var s settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

type postgresBackend struct {
	settings     *settings
	db           *database.DB
	universities university.Repository
	auth         *auth.Service
	exporter     *export.Exporter
}

func openPostgres(ctx context.Context) (backend, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}

	db, err := database.New(ctx, s.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	universities := university.NewRepository(db.Pool())
	students := student.NewRepository(db.Pool())
	teams := team.NewRepository(db.Pool())

	return &postgresBackend{
		settings:     s,
		db:           db,
		universities: universities,
		// Superusers are created verified, so no email is ever sent.
		auth: auth.NewService(students, universities, mail.NewConsole(slog.Default()), auth.Options{
			BcryptCost: s.BcryptCost,
		}),
		exporter: export.NewExporter(universities, teams, students, export.Options{
			GroupID:   s.ExportGroupID,
			GroupName: s.ExportGroupName,
			Country:   s.ExportCountry,
		}),
	}, nil
}

func (b *postgresBackend) Migrate(ctx context.Context, command string, args ...string) error {
	return database.Migrate(ctx, b.settings.DatabaseURL, command, args...)
}

func (b *postgresBackend) SeedUniversities(ctx context.Context, unis []university.University) (int, error) {
	return university.Seed(ctx, b.universities, unis)
}

func (b *postgresBackend) CreateSuperuser(ctx context.Context, in auth.Superuser) (*student.Student, error) {
	return b.auth.CreateSuperuser(ctx, in)
}

func (b *postgresBackend) Export(ctx context.Context, w io.Writer, dataset string) error {
	return b.exporter.Write(ctx, w, dataset)
}

func (b *postgresBackend) IssueCredentials(ctx context.Context) (int, error) {
	return b.exporter.IssueCredentials(ctx)
}

func (b *postgresBackend) Close() {
	b.db.Close()
}
