// Package api serves diagnostics for vrpsim runs: health, the latest solution
// snapshot, GeoJSON routes, stored runs, Prometheus metrics and a websocket
// stream of score events.
package api

import (
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"routeshadow/internal/config"
	"routeshadow/internal/model"
	"routeshadow/internal/store"
)

type Server struct {
	Store  store.Store
	Broker EventBroker
	Log    logrus.FieldLogger

	limiter *rate.Limiter

	mu       sync.RWMutex
	snapshot *model.Snapshot
}

// NewServer picks the store and broker from cfg: Postgres when a database URL
// is set, Redis when a Redis URL is set, in-memory otherwise.
func NewServer(cfg config.Config, log logrus.FieldLogger) (*Server, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	var st store.Store
	if dsn := strings.TrimSpace(cfg.Storage.DatabaseURL); dsn == "" {
		st = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		if err := sp.MigrateDir("db/migrations"); err != nil {
			log.WithError(err).Warn("migrations failed")
		}
		st = sp
	}
	var broker EventBroker = NewBroker()
	if cfg.Broker.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.Broker.RedisURL, cfg.Broker.Channel, log)
		if err != nil {
			log.WithError(err).Warn("redis broker unavailable, using in-memory broker")
		} else {
			broker = rb
		}
	}
	return New(st, broker, cfg.Server, log), nil
}

// New wires a server from explicit dependencies.
func New(st store.Store, broker EventBroker, sc config.Server, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{Store: st, Broker: broker, Log: log}
	if sc.RPS > 0 {
		burst := sc.Burst
		if burst <= 0 {
			burst = int(sc.RPS)
		}
		s.limiter = rate.NewLimiter(rate.Limit(sc.RPS), max(burst, 1))
	}
	return s
}

// SetSnapshot replaces the snapshot served by /v1/snapshot.
func (s *Server) SetSnapshot(snap model.Snapshot) {
	s.mu.Lock()
	s.snapshot = &snap
	s.mu.Unlock()
}

func (s *Server) currentSnapshot() (model.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return model.Snapshot{}, false
	}
	return *s.snapshot, true
}

// Publish forwards evt to the broker under the run's topic.
func (s *Server) Publish(evt model.Event) {
	s.Broker.Publish(evt.RunID, evt)
}

// Handler returns the routed, instrumented and rate-limited HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.HandleFunc("/v1/snapshot", s.SnapshotHandler)
	mux.HandleFunc("/v1/routes.geojson", s.RoutesGeoJSONHandler)
	mux.HandleFunc("/v1/runs", s.RunsHandler)
	mux.HandleFunc("/v1/runs/", s.RunByIDHandler)
	mux.HandleFunc("/v1/events/ws", s.EventsWSHandler)
	mux.HandleFunc("/debug/info", s.DebugJSON)
	mux.Handle("/metrics", MetricsHandler())
	return s.instrument(s.rateLimit(mux))
}
