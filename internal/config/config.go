package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"VERSION" default:"dev"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`
	BaseURL     string `envconfig:"BASE_URL" default:"https://teams.itacpc.it"`

	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	SecureCookies bool          `envconfig:"SECURE_COOKIES" default:"true"`
	BcryptCost    int           `envconfig:"BCRYPT_COST" default:"12"`

	MaxTeamMembers  int    `envconfig:"MAX_TEAM_MEMBERS" default:"3"`
	EmptyTeamPolicy string `envconfig:"EMPTY_TEAM_POLICY" default:"delete"`

	PasswordResetTTL      time.Duration `envconfig:"PASSWORD_RESET_TTL" default:"24h"`
	PasswordResetCooldown time.Duration `envconfig:"PASSWORD_RESET_COOLDOWN" default:"24h"`

	MailBackend    string `envconfig:"MAIL_BACKEND" default:"console"`
	MailFrom       string `envconfig:"MAIL_FROM" default:"noreply@itacpc.it"`
	MailFromName   string `envconfig:"MAIL_FROM_NAME" default:"ITACPC"`
	SMTPHost       string `envconfig:"SMTP_HOST" default:"smtp.sendgrid.net"`
	SMTPPort       int    `envconfig:"SMTP_PORT" default:"465"`
	SMTPUser       string `envconfig:"SMTP_USER" default:"apikey"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD" default:""`
	SendgridAPIKey string `envconfig:"SENDGRID_API_KEY" default:""`

	MaintenanceMode bool `envconfig:"MAINTENANCE_MODE" default:"false"`

	JanitorInterval time.Duration `envconfig:"JANITOR_INTERVAL" default:"1h"`

	ExportGroupID   string `envconfig:"EXPORT_GROUP_ID" default:"participants"`
	ExportGroupName string `envconfig:"EXPORT_GROUP_NAME" default:"Participants"`
	ExportCountry   string `envconfig:"EXPORT_COUNTRY" default:"ITA"`
}

// Load reads configuration from environment variables into a Config struct.
// When ENV_FILE is set, the named dotenv file is loaded first; variables
// already present in the environment take precedence over the file.
func Load() (*Config, error) {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	switch cfg.MailBackend {
	case "console", "smtp", "sendgrid":
	default:
		return nil, fmt.Errorf("invalid MAIL_BACKEND %q: must be console, smtp or sendgrid", cfg.MailBackend)
	}
	if cfg.MaxTeamMembers < 1 {
		return nil, fmt.Errorf("invalid MAX_TEAM_MEMBERS %d: must be positive", cfg.MaxTeamMembers)
	}

	if cfg.JanitorInterval <= 0 {
		return nil, fmt.Errorf("invalid JANITOR_INTERVAL %s: must be positive", cfg.JanitorInterval)
	}

	return &cfg, nil
}
