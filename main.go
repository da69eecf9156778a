package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"solarquote/batch"
	"solarquote/calc"
	"solarquote/config"
	"solarquote/store"
)

func main() {
	configPath := flag.String("config", "solarquote.yaml", "path to the YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dataPath := flag.String("data", "", "utility rate table path (overrides config)")
	batchPath := flag.String("batch", "", "quote the households in this CSV file and exit")
	outPath := flag.String("out", "", "batch output CSV path (default stdout)")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dataPath != "" {
		cfg.DataPath = *dataPath
	}

	calculator, err := cfg.Calculator()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if *batchPath != "" {
		if err := runBatch(calculator, cfg, *batchPath, *outPath); err != nil {
			log.Fatalf("batch failed: %v", err)
		}
		return
	}

	utilityStore, err := store.New(cfg.DataPath)
	if err != nil {
		log.Fatalf("failed to initialize store: %v", err)
	}
	if seeds := cfg.SeedInputs(); len(seeds) > 0 {
		n, err := utilityStore.Upsert(seeds...)
		if err != nil {
			log.Fatalf("failed to seed utilities: %v", err)
		}
		log.Printf("Seeded %d utilities from %s", n, *configPath)
	}

	srv := &Server{store: utilityStore, calc: calculator}
	handler := loggingMiddleware(withCORS(cfg.Server.CORSOrigin, srv.routes()))

	log.Printf("Starting server on %s (default preset %s)", cfg.Server.Addr, calculator.DefaultPreset())
	if err := http.ListenAndServe(cfg.Server.Addr, handler); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func runBatch(calculator *calc.Calculator, cfg *config.Config, inPath, outPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	log.Printf("Quoting %s with %d workers", inPath, cfg.Batch.Workers)
	summary, err := batch.Run(ctx, calculator, in, out, batch.Options{
		Workers:  cfg.Batch.Workers,
		Progress: os.Stderr,
	})
	if err != nil {
		return err
	}
	log.Printf("Wrote %d rows, %d failed", summary.Rows, summary.Failed)
	if outPath != "" {
		return out.Close()
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("encode response: %v", err)
		status = http.StatusInternalServerError
		data, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func withCORS(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}
