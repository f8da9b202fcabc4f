// Package whatsapp is the WhatsApp channel connector. It currently
// runs in stub mode: connection and delivery are simulated while the
// Baileys bridge process is not yet wired in.
package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gammaproto/gammakit/phys"
)

// IncomingHandler is invoked for each message received while listening.
type IncomingHandler func(from, message string)

// Connector bridges gateway sessions to WhatsApp.
type Connector struct {
	credentialsDir string
	handler        IncomingHandler
	logger         *slog.Logger

	mu        sync.Mutex
	connected bool
	coherence float64
}

// New prepares a connector storing credentials under credentialsDir.
func New(credentialsDir string, handler IncomingHandler, logger *slog.Logger) (*Connector, error) {
	if err := os.MkdirAll(credentialsDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating credentials dir: %w", err)
	}
	return &Connector{
		credentialsDir: credentialsDir,
		handler:        handler,
		logger:         logger,
		coherence:      phys.PhiInv,
	}, nil
}

// Connected reports whether a session is active.
func (c *Connector) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Login establishes the WhatsApp session.
//
// TODO: spawn the Baileys bridge as a subprocess and exchange the QR
// handshake; until then the connection is simulated.
func (c *Connector) Login(ctx context.Context) error {
	c.logger.Info("whatsapp login", "credentials", c.credentialsDir)

	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.logger.Info("whatsapp connected", "mode", "stub")
	return nil
}

// SendMessage delivers a message to the given recipient. It fails when
// no session is active.
func (c *Connector) SendMessage(ctx context.Context, to, message string) error {
	if !c.Connected() {
		return fmt.Errorf("whatsapp: not connected")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.logger.Info("whatsapp send", "to", to, "bytes", len(message))
	return nil
}

// Listen blocks until ctx is cancelled or the connector disconnects,
// dispatching incoming messages to the handler.
func (c *Connector) Listen(ctx context.Context) error {
	if !c.Connected() {
		return fmt.Errorf("whatsapp: not connected")
	}
	c.logger.Info("whatsapp listening")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !c.Connected() {
				return nil
			}
		}
	}
}

// Disconnect ends the session.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.logger.Info("whatsapp disconnected")
}
