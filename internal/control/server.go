package control

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/wavemesh/wavemesh/internal/speaker"
)

// Version is the daemon's reported version string.
const Version = "0.1.0"

// Discoverer triggers an mDNS scan for new speakers; Server never talks
// to the network directly.
type Discoverer interface {
	Discover()
}

// Calibrator starts a calibration run against the current layout.
type Calibrator interface {
	Start()
}

// Server is the `/api/v1` HTTP surface described in the external
// interfaces contract. It holds no audio-path state of its own — every
// handler reads or swaps the shared Store.
type Server struct {
	router     *chi.Mux
	store      *Store
	discoverer Discoverer
	calibrator Calibrator
	startedAt  time.Time
}

// NewServer builds a Server with all routes mounted.
func NewServer(store *Store, discoverer Discoverer, calibrator Calibrator) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		store:      store,
		discoverer: discoverer,
		calibrator: calibrator,
		startedAt:  time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/info", s.handleInfo)

		r.Route("/speakers", func(r chi.Router) {
			r.Get("/", s.handleListSpeakers)
			r.Post("/discover", s.handleDiscoverSpeakers)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSpeaker)
				r.Delete("/", s.handleDeleteSpeaker)
			})
		})

		r.Get("/layout", s.handleGetLayout)
		r.Post("/layout", s.handleSetLayout)

		r.Route("/transport", func(r chi.Router) {
			r.Post("/play", s.handleTransport(TransportPlaying))
			r.Post("/pause", s.handleTransport(TransportPaused))
			r.Post("/stop", s.handleTransport(TransportStopped))
			r.Get("/status", s.handleTransportStatus)
		})

		r.Route("/calibration", func(r chi.Router) {
			r.Post("/start", s.handleCalibrationStart)
			r.Get("/status", s.handleCalibrationStatus)
			r.Post("/apply", s.handleCalibrationApply)
		})

		r.Get("/stats", s.handleStats)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     Version,
		"uptime_secs": int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "wavemesh",
		"version": Version,
		"features": []string{
			"vbap", "hoa", "binaural", "loudness-normalization", "drc", "limiter",
			"xor-fec", "jitter-buffer", "clock-sync", "latency-compensation", "calibration",
		},
	})
}

func (s *Server) handleListSpeakers(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Load()
	writeJSON(w, http.StatusOK, snap.Speakers)
}

func (s *Server) handleDiscoverSpeakers(w http.ResponseWriter, r *http.Request) {
	if s.discoverer != nil {
		s.discoverer.Discover()
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGetSpeaker(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid speaker id")
		return
	}
	snap := s.store.Load()
	for _, sp := range snap.Speakers {
		if sp.ID == id {
			writeJSON(w, http.StatusOK, sp)
			return
		}
	}
	writeError(w, http.StatusNotFound, "speaker not found")
}

func (s *Server) handleDeleteSpeaker(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid speaker id")
		return
	}

	found := false
	s.store.Update(func(snap Snapshot) Snapshot {
		out := make([]speaker.Descriptor, 0, len(snap.Speakers))
		for _, sp := range snap.Speakers {
			if sp.ID == id {
				found = true
				continue
			}
			out = append(out, sp)
		}
		snap.Speakers = out
		return snap
	})

	if !found {
		writeError(w, http.StatusNotFound, "speaker not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Load()
	if snap.Layout == nil {
		writeError(w, http.StatusNotFound, "no layout configured")
		return
	}
	writeJSON(w, http.StatusOK, snap.Layout)
}

func (s *Server) handleSetLayout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preset string `json:"preset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var layout speaker.Layout
	switch req.Preset {
	case "stereo":
		layout = speaker.Stereo()
	case "5.1":
		layout = speaker.Surround51()
	case "7.1", "7.1.4":
		layout = speaker.Surround714()
	case "":
		writeError(w, http.StatusBadRequest, "preset is required")
		return
	default:
		writeError(w, http.StatusNotImplemented, "unknown preset")
		return
	}

	if err := layout.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.store.Update(func(snap Snapshot) Snapshot {
		snap.Layout = &layout
		return snap
	})
	writeJSON(w, http.StatusOK, layout)
}

func (s *Server) handleTransport(state TransportState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.store.Update(func(snap Snapshot) Snapshot {
			snap.Transport = state
			return snap
		})
		writeJSON(w, http.StatusOK, map[string]string{"state": state.String()})
	}
}

func (s *Server) handleTransportStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Load()
	writeJSON(w, http.StatusOK, map[string]string{"state": snap.Transport.String()})
}

func (s *Server) handleCalibrationStart(w http.ResponseWriter, r *http.Request) {
	s.store.Update(func(snap Snapshot) Snapshot {
		snap.Calibration = CalibrationStatus{Running: true}
		return snap
	})
	if s.calibrator != nil {
		s.calibrator.Start()
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCalibrationStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Load()
	writeJSON(w, http.StatusOK, map[string]any{
		"running":      snap.Calibration.Running,
		"progress":     snap.Calibration.Progress,
		"measurements": snap.Calibration.Measurements,
	})
}

func (s *Server) handleCalibrationApply(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotImplemented, "reserved")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Load()
	online := 0
	for _, sp := range snap.Speakers {
		if sp.Online {
			online++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_speakers":  len(snap.Speakers),
		"online_speakers": online,
		"transport_state": snap.Transport.String(),
		"has_layout":      snap.Layout != nil,
	})
}
