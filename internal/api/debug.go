package api

import (
	"net/http"
	"os"
	"time"

	"routeshadow/internal/buildinfo"
)

// DebugJSON reports build metadata and which optional backends are configured.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":             os.Getenv("PORT"),
			"VRPSIM_STRATEGY":  os.Getenv("VRPSIM_STRATEGY"),
			"VRPSIM_RPS":       os.Getenv("VRPSIM_RPS"),
			"HAS_DATABASE_URL": os.Getenv("DATABASE_URL") != "",
			"HAS_REDIS_URL":    os.Getenv("REDIS_URL") != "",
			"RATE_LIMITED":     s.limiter != nil,
		},
	}
	if _, ok := s.currentSnapshot(); ok {
		info["snapshot"] = true
	}
	writeJSON(w, http.StatusOK, info)
}
