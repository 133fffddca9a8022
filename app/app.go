package app

import (
	"database/sql"

	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/metrics"
)

type App struct {
	*sql.DB
	*httpx.Credentials
	*metrics.Metrics
	config.Config
}

func New(db *sql.DB, cfg config.Config) App {
	return App{
		DB:          db,
		Credentials: httpx.NewCredentials(db, cfg.BcryptCost, cfg.TokenTTL),
		Metrics:     metrics.New(),
		Config:      cfg,
	}
}
