package main

import (
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/questline/go/internal/api/minigame/v1/minigamev1connect"
	"github.com/mcdev12/questline/go/internal/auth"
	"github.com/mcdev12/questline/go/internal/config"
	"github.com/mcdev12/questline/go/internal/session"
)

func setupServer(cfg *config.Server, services *Services) *http.Server {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{session.ErrorReasonHeader, "Grpc-Status", "Grpc-Message"},
	})

	registerServices(mux, services)
	setupHealthCheck(mux)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: h2c.NewHandler(c.Handler(mux), &http2.Server{}),
	}
}

func registerServices(mux *http.ServeMux, services *Services) {
	interceptors := connect.WithInterceptors(
		auth.NewInterceptor(services.Verifier, minigamev1connect.PublicProcedures),
	)

	sessionServicePath, sessionServiceHandler := minigamev1connect.NewSessionServiceHandler(services.Sessions, interceptors)
	mux.Handle(sessionServicePath, sessionServiceHandler)
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
