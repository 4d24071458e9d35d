// Mock places photo API for local development.
//
// Serves deterministic image bytes for any reference so the migration
// pipeline can run end to end without real provider credentials. References
// prefixed with "revoked-" return 403 to exercise the skip path.
package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"
)

// jpegHeader is enough of a JPEG preamble for content sniffing.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func main() {
	http.HandleFunc("/v1/photo", func(w http.ResponseWriter, r *http.Request) {
		// Simulate network latency (50-200ms)
		time.Sleep(time.Duration(50+time.Now().UnixNano()%150) * time.Millisecond)

		ref := r.URL.Query().Get("ref")
		if ref == "" {
			http.Error(w, `{"error":"ref is required"}`, http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("key") == "" {
			http.Error(w, `{"error":"key is required"}`, http.StatusUnauthorized)
			return
		}
		if len(ref) > 8 && ref[:8] == "revoked-" {
			log.Printf("[Photo API] %s - 403 revoked", ref)
			http.Error(w, `{"error":"reference revoked"}`, http.StatusForbidden)
			return
		}

		// Deterministic body per reference so re-downloads are stable
		maxWidth, _ := strconv.Atoi(r.URL.Query().Get("maxwidth"))
		if maxWidth <= 0 {
			maxWidth = 1600
		}

		var body bytes.Buffer
		body.Write(jpegHeader)
		fmt.Fprintf(&body, "mock-photo ref=%s maxwidth=%d ", ref, maxWidth)
		for body.Len() < 4096 {
			body.WriteString(ref)
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body.Bytes()); err != nil {
			log.Printf("[Photo API] Write error: %v", err)
		}

		log.Printf("[Photo API] %s %s - 200 OK (%d bytes)", r.Method, r.URL.Path, body.Len())
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[Photo API] Health write error: %v", err)
		}
	})

	log.Println("Mock Photo API running on :8081")
	server := &http.Server{
		Addr:         ":8081",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
