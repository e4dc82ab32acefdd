package diag

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-sketch/sketch/pkg/sketch"
)

// StatsSource is the view of a running sketch the stats server reads.
// *sketch.Sketch satisfies it.
type StatsSource interface {
	ID() string
	CurrentPhase() sketch.Phase
	FrameCount() int64
	FrameRate() float64
	IsLooping() bool
	PendingLoads() int
	Subscriptions() int
}

// Stats is the JSON body served by /stats.
type Stats struct {
	Sketch        string         `json:"sketch"`
	Phase         string         `json:"phase"`
	FrameCount    int64          `json:"frameCount"`
	FrameRate     float64        `json:"frameRate"`
	Looping       bool           `json:"looping"`
	PendingLoads  int            `json:"pendingLoads"`
	Subscriptions int            `json:"subscriptions"`
	FrameAvgMs    float64        `json:"frameAvgMs"`
	FrameMaxMs    float64        `json:"frameMaxMs"`
	Runtime       *RuntimeSample `json:"runtime,omitempty"`
}

// Server serves diagnostics over HTTP: /healthz, /stats, /runtime, and
// Prometheus metrics on /metrics.
type Server struct {
	source   StatsSource
	timings  *Timings
	runtime  *RuntimeBuffer
	registry *prometheus.Registry

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer builds a stopped diagnostics server for source. timings and
// runtime may be nil; the corresponding fields are simply omitted.
func NewServer(source StatsSource, timings *Timings, runtime *RuntimeBuffer) *Server {
	s := &Server{
		source:   source,
		timings:  timings,
		runtime:  runtime,
		registry: prometheus.NewRegistry(),
	}
	s.registerMetrics()
	return s
}

func (s *Server) registerMetrics() {
	src := s.source
	s.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "sketch_frames_total",
			Help: "Frame counter ticks since the sketch started.",
		}, func() float64 { return float64(src.FrameCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sketch_frame_rate",
			Help: "Measured frame rate in frames per second.",
		}, src.FrameRate),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sketch_pending_loads",
			Help: "Outstanding preload-tracked loads.",
		}, func() float64 { return float64(src.PendingLoads()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sketch_subscriptions",
			Help: "Live ambient event subscriptions.",
		}, func() float64 { return float64(src.Subscriptions()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sketch_looping",
			Help: "Whether the draw cadence is enabled (1) or paused (0).",
		}, func() float64 {
			if src.IsLooping() {
				return 1
			}
			return 0
		}),
	)
}

// Router returns the HTTP handler, usable directly in tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/runtime", s.handleRuntime)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

// Start binds addr and serves in the background. It returns the bound
// address, useful when addr requests an ephemeral port.
func (s *Server) Start(addr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.listener.Addr().String(), nil
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("stats server listen: %w", err)
	}

	server := &http.Server{Handler: s.Router()}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.mu.Lock()
			s.server = nil
			s.listener = nil
			s.mu.Unlock()
		}
	}()

	return listener.Addr().String(), nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := Stats{
		Sketch:        s.source.ID(),
		Phase:         s.source.CurrentPhase().String(),
		FrameCount:    s.source.FrameCount(),
		FrameRate:     s.source.FrameRate(),
		Looping:       s.source.IsLooping(),
		PendingLoads:  s.source.PendingLoads(),
		Subscriptions: s.source.Subscriptions(),
	}
	if s.timings != nil {
		stats.FrameAvgMs = float64(s.timings.Average()) / float64(time.Millisecond)
		stats.FrameMaxMs = float64(s.timings.Max()) / float64(time.Millisecond)
	}
	if s.runtime != nil {
		if sample, ok := s.runtime.Latest(); ok {
			stats.Runtime = &sample
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleRuntime(w http.ResponseWriter, r *http.Request) {
	var samples []RuntimeSample
	if s.runtime != nil {
		samples = s.runtime.Snapshot()
	}
	resp := struct {
		Samples []RuntimeSample `json:"samples"`
	}{Samples: samples}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
