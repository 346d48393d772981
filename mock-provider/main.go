// mock-provider is a standalone fake Klaviyo events endpoint for manual
// testing. Point KLAVIYO_ENDPOINT at one of its routes to exercise the
// success, slow and failure paths without touching the real API.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

var requestCount atomic.Int64

func main() {
	port := "9090"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}

	// Accepting endpoint — always returns 202 like the real events API
	http.HandleFunc("/api/events/", func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		logRequest(r, count, 202)

		w.WriteHeader(http.StatusAccepted)
	})

	// Slow endpoint — delays 3 seconds to exercise the forward timeout
	http.HandleFunc("/slow/api/events/", func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		time.Sleep(3 * time.Second)
		logRequest(r, count, 202)

		w.WriteHeader(http.StatusAccepted)
	})

	// Rejecting endpoint — always returns 401 with an error body, the
	// shape a bad API key produces
	http.HandleFunc("/reject/api/events/", func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		logRequest(r, count, 401)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"detail": "invalid api key"}},
		})
	})

	// Stats endpoint — shows request count
	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int64{"total_requests": requestCount.Load()})
	})

	log.Printf("Mock provider starting on :%s", port)
	log.Printf("  POST /api/events/         -> 202 Accepted")
	log.Printf("  POST /slow/api/events/    -> 202 Accepted (3s delay)")
	log.Printf("  POST /reject/api/events/  -> 401 Unauthorized")
	log.Printf("  GET  /stats               -> request count")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func logRequest(r *http.Request, count int64, status int) {
	fmt.Printf("[#%d] %s %s -> %d | auth=%s revision=%s\n",
		count,
		r.Method,
		r.URL.Path,
		status,
		truncate(r.Header.Get("Authorization"), 24),
		r.Header.Get("revision"),
	)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
