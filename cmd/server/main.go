package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"korkmmo/internal/persistence/indexdb"
	persistlog "korkmmo/internal/persistence/log"
	"korkmmo/internal/sim/catalogs"
	"korkmmo/internal/sim/tuning"
	"korkmmo/internal/sim/world"
	"korkmmo/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		seed       = flag.Int64("seed", 1337, "world seed")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite intent index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	tune.ApplyDefaults()

	_ = os.MkdirAll(*dataDir, 0o755)

	w, err := world.New(world.FromTuning(tune, *seed), cats)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	logger.Printf("world %dx%d seed=%d recipes=%s loot=%s",
		w.Config().Width, w.Config().Height, *seed,
		shortDigest(cats.Recipes.Digest), shortDigest(cats.Loot.Digest))

	// Intent journal (source of truth) plus optional sqlite read model.
	journal := persistlog.NewIntentJournal(*dataDir)
	defer journal.Close()

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}
	w.SetIntentLogger(multiIntentLogger{a: journal, b: idx})

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	startedAt := time.Now()
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := w.Metrics()

		fmt.Fprintf(rw, "# HELP korkmmo_uptime_seconds Seconds since the server started.\n")
		fmt.Fprintf(rw, "# TYPE korkmmo_uptime_seconds gauge\n")
		fmt.Fprintf(rw, "korkmmo_uptime_seconds %.0f\n", time.Since(startedAt).Seconds())

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP korkmmo_world_players Current number of players in the world.\n")
		fmt.Fprintf(rw, "# TYPE korkmmo_world_players gauge\n")
		fmt.Fprintf(rw, "korkmmo_world_players %d\n", m.Players)

		fmt.Fprintf(rw, "# HELP korkmmo_world_clients Current number of connected clients.\n")
		fmt.Fprintf(rw, "# TYPE korkmmo_world_clients gauge\n")
		fmt.Fprintf(rw, "korkmmo_world_clients %d\n", m.Clients)

		fmt.Fprintf(rw, "# HELP korkmmo_world_intents_total Total intents processed.\n")
		fmt.Fprintf(rw, "# TYPE korkmmo_world_intents_total counter\n")
		fmt.Fprintf(rw, "korkmmo_world_intents_total %d\n", m.Intents)

		fmt.Fprintf(rw, "# HELP korkmmo_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE korkmmo_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "korkmmo_world_queue_depth{queue=%q} %d\n", "inbox", m.QueueDepths.Inbox)
		fmt.Fprintf(rw, "korkmmo_world_queue_depth{queue=%q} %d\n", "join", m.QueueDepths.Join)
		fmt.Fprintf(rw, "korkmmo_world_queue_depth{queue=%q} %d\n", "leave", m.QueueDepths.Leave)

		if idx != nil {
			fmt.Fprintf(rw, "# HELP korkmmo_index_dropped_total Intent records dropped by the sqlite index queue.\n")
			fmt.Fprintf(rw, "# TYPE korkmmo_index_dropped_total counter\n")
			fmt.Fprintf(rw, "korkmmo_index_dropped_total %d\n", idx.Dropped())
		}
	})

	enableAdminHTTP := envBool("KM_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("KM_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				World   worldInfo          `json:"world"`
				Metrics world.WorldMetrics `json:"metrics"`
			}{
				World: worldInfo{
					Width:         w.Config().Width,
					Height:        w.Config().Height,
					Seed:          *seed,
					RecipesDigest: cats.Recipes.Digest,
					LootDigest:    cats.Loot.Digest,
				},
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/intents", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			if idx == nil {
				http.Error(rw, "index disabled", http.StatusServiceUnavailable)
				return
			}
			ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel2()
			counts, err := idx.IntentCounts(ctx2)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"counts": counts, "dropped": idx.Dropped()})
		})
	} else {
		logger.Printf("admin endpoints disabled (KM_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

type worldInfo struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Seed          int64  `json:"seed"`
	RecipesDigest string `json:"recipes_digest"`
	LootDigest    string `json:"loot_digest"`
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

// multiIntentLogger fans each record out to the journal and the index.
type multiIntentLogger struct {
	a world.IntentLogger
	b *indexdb.SQLiteIndex
}

func (m multiIntentLogger) WriteIntent(rec world.IntentRecord) error {
	if m.a != nil {
		_ = m.a.WriteIntent(rec)
	}
	if m.b != nil {
		_ = m.b.WriteIntent(rec)
	}
	return nil
}
