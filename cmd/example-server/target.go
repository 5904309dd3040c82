package main

import (
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// newTargetHandler responde "viola" para GET/POST/PUT/DELETE/HEAD e registra o
// intervalo desde a requisição anterior.
func newTargetHandler(logger log.FieldLogger) http.Handler {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodHead:
		default:
			w.Header().Set("Allow", "GET, POST, PUT, DELETE, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		now := time.Now()
		mu.Lock()
		var gap time.Duration
		if !last.IsZero() {
			gap = now.Sub(last)
		}
		last = now
		mu.Unlock()

		logger.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"gap":    gap,
		}).Info("request received")

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte("viola\n"))
		}
	})
}
