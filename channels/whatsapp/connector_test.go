package whatsapp

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func testConnector(t *testing.T) *Connector {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := New(filepath.Join(t.TempDir(), "credentials", "whatsapp"), nil, logger)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestLoginConnects(t *testing.T) {
	c := testConnector(t)
	if c.Connected() {
		t.Fatal("connected before login")
	}
	if err := c.Login(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !c.Connected() {
		t.Fatal("not connected after login")
	}
}

func TestLoginCancelled(t *testing.T) {
	c := testConnector(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Login(ctx); err == nil {
		t.Fatal("expected error from cancelled login")
	}
	if c.Connected() {
		t.Fatal("connected after cancelled login")
	}
}

func TestSendRequiresConnection(t *testing.T) {
	c := testConnector(t)
	if err := c.SendMessage(context.Background(), "+100", "hi"); err == nil {
		t.Fatal("expected error when not connected")
	}

	if err := c.Login(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.SendMessage(context.Background(), "+100", "hi"); err != nil {
		t.Fatal(err)
	}
}

func TestListenStopsOnCancel(t *testing.T) {
	c := testConnector(t)
	if err := c.Login(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Listen(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("listen returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("listen did not stop after cancel")
	}
}

func TestDisconnect(t *testing.T) {
	c := testConnector(t)
	if err := c.Login(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.Disconnect()
	if c.Connected() {
		t.Fatal("still connected after disconnect")
	}
}
