package shared

import (
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"prod"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9100"`

	MySQLDSN  string `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/staybook?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	PlacesBase string `env:"PLACES_BASE_URL" envDefault:"https://places.googleapis.com/v1"`
	PlacesKey  string `env:"PLACES_API_KEY"`
	PlacesRPS  int    `env:"PLACES_RPS" envDefault:"5"`

	Workers     int           `env:"INGEST_WORKERS" envDefault:"8"`
	SeedQueries []string      `env:"INGEST_SEED_QUERIES" envSeparator:";" envDefault:"hotels in Bucharest;hotels in Cluj-Napoca;hotels in Brasov"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"15m"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	UploadDir     string        `env:"UPLOAD_DIR" envDefault:"./uploads"`
	ApproverEmail string        `env:"APPROVER_EMAIL" envDefault:"approvals@staybook.local"`
	PublicBaseURL string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	CodeTTL       time.Duration `env:"APPROVAL_CODE_TTL" envDefault:"15m"`

	SMTPAddr string `env:"SMTP_ADDR"`
	SMTPFrom string `env:"SMTP_FROM" envDefault:"no-reply@staybook.local"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASSWORD"`

	Maintenance bool `env:"MAINTENANCE_MODE" envDefault:"false"`
}

func Load() Config {
	var c Config
	if err := env.Parse(&c); err != nil {
		log.Fatal().Err(err).Msg("config parse failed")
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("PLACES_API_KEY is empty")
	}
	if c.SMTPAddr == "" {
		log.Warn().Msg("SMTP_ADDR is empty, mail goes to the log only")
	}
	return c
}
