package ui

import (
	"net/http"

	"github.com/sallytsm/sally"
	"github.com/sallytsm/sally/ui/api"
	"github.com/sallytsm/sally/ui/frontend"
	"github.com/sallytsm/sally/ui/service"
)

// NewHandler returns an http.Handler serving the Sally dashboard and its
// JSON API. The API is mounted under /api/ and the SSR frontend at /.
//
// Usage:
//
//	http.Handle("/", ui.NewHandler(client, nil))
//	http.Handle("/sally/", http.StripPrefix("/sally", ui.NewHandler(client, &ui.Config{BasePath: "/sally"})))
func NewHandler(client *sally.Client, cfg *Config) http.Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.applyDefaults()
	}

	// Validate configuration (panic on invalid config as this is a programmer error)
	if err := cfg.validate(); err != nil {
		panic("ui: invalid configuration: " + err.Error())
	}

	svc := service.New(client)

	apiHandler := api.NewRouter(svc, client, &api.Config{
		PageSize: cfg.PageSize,
		ReadOnly: cfg.ReadOnly,
		Logger:   cfg.Logger,
	})
	front := frontend.NewRouter(svc, client, &frontend.Config{
		BasePath:        cfg.BasePath,
		Title:           cfg.Title,
		ReadOnly:        cfg.ReadOnly,
		PageSize:        cfg.PageSize,
		RefreshInterval: cfg.RefreshInterval,
		Logger:          cfg.Logger,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiHandler))
	mux.Handle("/", front)
	return mux
}
