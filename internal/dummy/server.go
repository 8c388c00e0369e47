package dummy

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"
)

type ServerConfig struct {
	Port int
}

// NewMux returns the target endpoints used for local trials.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()

	// 1. Fast Endpoint (10-50ms)
	mux.HandleFunc("GET /fast", func(w http.ResponseWriter, r *http.Request) {
		sleepBetween(10, 50)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Fast response"))
	})

	// 2. Slow Endpoint (1s-2s) - Good for testing timeouts
	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		sleepBetween(1000, 2000)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Slow response"))
	})

	// 3. Error Endpoint (Random failures)
	mux.HandleFunc("GET /error", func(w http.ResponseWriter, r *http.Request) {
		rnd := rand.Float32()
		if rnd < 0.2 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 Internal Server Error"))
		} else if rnd < 0.4 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("429 Too Many Requests"))
		} else {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		}
	})

	// 4. Fixed status, e.g. /status/503
	mux.HandleFunc("GET /status/{code}", func(w http.ResponseWriter, r *http.Request) {
		code, err := strconv.Atoi(r.PathValue("code"))
		if err != nil || code < 100 || code > 599 {
			http.Error(w, "bad status code", http.StatusBadRequest)
			return
		}
		w.WriteHeader(code)
	})

	// 5. Blocking Endpoint: sleeps between min-block-period-ms and
	// max-block-period-ms (defaults 1000/5000)
	mux.HandleFunc("GET /rest/blocking", func(w http.ResponseWriter, r *http.Request) {
		minMs := intParam(r, "min-block-period-ms", 1000)
		maxMs := intParam(r, "max-block-period-ms", 5000)
		if maxMs < minMs {
			maxMs = minMs
		}
		sleepBetween(minMs, maxMs)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Blocking operation completed\nPath: /rest/blocking\nTime: %s\n", time.Now().Format(time.RFC3339))
	})

	return mux
}

// Start serves NewMux on cfg.Port until ctx is done. A bind failure, such
// as a port already in use, is returned immediately.
func Start(ctx context.Context, cfg ServerConfig) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("dummy server: %w", err)
	}

	fmt.Printf("👻 Dummy Server running on http://localhost:%d\n", ln.Addr().(*net.TCPAddr).Port)
	fmt.Println("   Endpoints: /fast, /slow, /error, /status/{code}, /rest/blocking")

	server := &http.Server{
		Handler:           NewMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dummy server: %w", err)
	}
	return nil
}

func sleepBetween(minMs, maxMs int) {
	d := minMs
	if maxMs > minMs {
		d += rand.Intn(maxMs - minMs)
	}
	time.Sleep(time.Duration(d) * time.Millisecond)
}

func intParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
