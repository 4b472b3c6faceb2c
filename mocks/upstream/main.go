// Command upstream serves fixture country and exchange-rate datasets so the
// catalog can be run and exercised end to end without network access.
//
//	COUNTRIES_URL=http://localhost:9090/countries RATES_URL=http://localhost:9090/rates
package main

import (
	"embed"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed fixtures/*.json
var fixtures embed.FS

func main() {
	addr := os.Getenv("UPSTREAM_ADDR")
	if addr == "" {
		addr = ":9090"
	}
	// FAIL_SOURCE=countries|rates answers that dataset with a 503
	failSource := os.Getenv("FAIL_SOURCE")
	delay, _ := time.ParseDuration(os.Getenv("UPSTREAM_DELAY"))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Get("/countries", serveFixture("countries", "fixtures/countries.json", failSource, delay))
	r.Get("/rates", serveFixture("rates", "fixtures/rates.json", failSource, delay))

	slog.Info("fixture upstream listening", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func serveFixture(name, path, failSource string, delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if failSource == name {
			http.Error(w, `{"error":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		body, err := fixtures.ReadFile(path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)
	}
}
