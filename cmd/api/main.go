package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	server "staybook/internal/adapters/http_server"
	"staybook/internal/adapters/mail"
	"staybook/internal/adapters/observability"
	"staybook/internal/adapters/places"
	redisad "staybook/internal/adapters/redis"
	"staybook/internal/app"
	"staybook/internal/domain"
	"staybook/internal/shared"
	mysqlrepo "staybook/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.Component(observability.NewLogger(cfg.AppEnv), "api")

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	var mailer domain.Mailer = mail.LogMailer{}
	if cfg.SMTPAddr != "" {
		mailer = mail.NewSMTP(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass)
	}

	approval := app.NewApprovalService(repo, repo, mailer, cache,
		cfg.PublicBaseURL, cfg.ApproverEmail, cfg.CodeTTL, cfg.SessionTTL)
	auth := app.NewAuthService(repo, approval, cache, cfg.SessionTTL, cfg.UploadDir)
	hotels := app.NewHotelService(repo, repo, cache, cfg.CacheTTL)
	support := app.NewSupportService(cache, cfg.Maintenance)

	placesClient, err := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize places client")
	}
	placesSvc := app.NewPlacesService(placesClient, cache, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Auth:     auth,
		Hotels:   hotels,
		Places:   placesSvc,
		Approval: approval,
		Support:  support,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
