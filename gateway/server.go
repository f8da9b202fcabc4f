// Package gateway is the Γ-protocol WebSocket gateway: it greets
// clients with the current coherence, answers pings and manages
// persistent sessions, with Prometheus metrics on the same listener.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/websocket"

	"github.com/gammaproto/gammakit/phys"
)

// Phi3Target is the φ⁻³ coherence target announced to clients.
const Phi3Target = 0.236

type metrics struct {
	registry  *prometheus.Registry
	clients   prometheus.Gauge
	messages  *prometheus.CounterVec
	coherence prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &metrics{
		registry: reg,
		clients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gamma_gateway_connected_clients",
			Help: "Number of currently connected WebSocket clients.",
		}),
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gamma_gateway_messages_total",
			Help: "Messages received by type.",
		}, []string{"type"}),
		coherence: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gamma_gateway_coherence_phi",
			Help: "Current gateway coherence on the phi scale.",
		}),
	}
}

// Gateway serves the WebSocket protocol on /ws and Prometheus metrics
// on /metrics.
type Gateway struct {
	addr     string
	sessions *SessionManager
	logger   *slog.Logger
	metrics  *metrics

	mu        sync.Mutex
	coherence float64
}

// New builds a gateway listening on addr with sessions persisted under
// workspace. The gateway starts at the φ⁻¹ coherence baseline.
func New(addr, workspace string, logger *slog.Logger) (*Gateway, error) {
	sessions, err := NewSessionManager(workspace)
	if err != nil {
		return nil, err
	}
	g := &Gateway{
		addr:      addr,
		sessions:  sessions,
		logger:    logger,
		metrics:   newMetrics(),
		coherence: phys.PhiInv,
	}
	g.metrics.coherence.Set(g.coherence)
	return g, nil
}

// Sessions exposes the session manager.
func (g *Gateway) Sessions() *SessionManager { return g.sessions }

// Coherence returns the current gateway coherence.
func (g *Gateway) Coherence() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.coherence
}

// SetCoherence updates the gateway coherence and its metric.
func (g *Gateway) SetCoherence(c float64) {
	g.mu.Lock()
	g.coherence = c
	g.mu.Unlock()
	g.metrics.coherence.Set(c)
}

// Handler returns the HTTP mux with the WebSocket and metrics routes.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", websocket.Handler(g.serve))
	mux.Handle("/metrics", promhttp.HandlerFor(g.metrics.registry, promhttp.HandlerOpts{}))
	return mux
}

// Start runs the gateway until ctx is cancelled, then shuts the server
// down gracefully.
func (g *Gateway) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    g.addr,
		Handler: g.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("gateway listening", "addr", g.addr, "phi_target", Phi3Target)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("gateway shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("gateway serve: %w", err)
	}
}

// ============================================================================
// WebSocket protocol
// ============================================================================

type inbound struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

func (g *Gateway) serve(ws *websocket.Conn) {
	g.metrics.clients.Inc()
	defer g.metrics.clients.Dec()

	clientID := uuid.NewString()
	g.logger.Info("client connected", "client", clientID)
	defer g.logger.Info("client disconnected", "client", clientID)

	greeting := map[string]any{
		"type":       "gateway.connected",
		"coherence":  g.Coherence(),
		"phi_target": Phi3Target,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := websocket.JSON.Send(ws, greeting); err != nil {
		return
	}

	for {
		var raw string
		if err := websocket.Message.Receive(ws, &raw); err != nil {
			if !errors.Is(err, io.EOF) {
				g.logger.Debug("receive failed", "client", clientID, "error", err)
			}
			return
		}
		if err := g.handleMessage(ws, raw); err != nil {
			g.logger.Debug("send failed", "client", clientID, "error", err)
			return
		}
	}
}

func (g *Gateway) handleMessage(ws *websocket.Conn, raw string) error {
	var msg inbound
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		g.metrics.messages.WithLabelValues("invalid").Inc()
		return websocket.JSON.Send(ws, map[string]any{
			"type":  "error",
			"error": "invalid_json",
		})
	}
	g.metrics.messages.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case "ping":
		return websocket.JSON.Send(ws, map[string]any{
			"type":      "pong",
			"coherence": g.Coherence(),
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})

	case "session.create":
		id := msg.SessionID
		if id == "" {
			id = uuid.NewString()
		}
		session, err := g.sessions.Create(id, "main")
		if err != nil {
			g.logger.Error("session create failed", "session", id, "error", err)
			return websocket.JSON.Send(ws, map[string]any{
				"type":  "error",
				"error": "session_create_failed",
			})
		}
		return websocket.JSON.Send(ws, map[string]any{
			"type":       "session.created",
			"session_id": session.ID,
			"coherence":  session.Coherence,
		})

	case "session.list":
		return websocket.JSON.Send(ws, map[string]any{
			"type":      "session.list",
			"sessions":  g.sessions.List(),
			"coherence": g.Coherence(),
		})
	}

	// unknown types are counted but otherwise ignored
	return nil
}
