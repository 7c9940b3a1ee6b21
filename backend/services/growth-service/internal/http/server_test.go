package httpserver

import (
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewServerWriteTimeout(t *testing.T) {
	handler := http.NotFoundHandler()

	if got := NewServer(":0", handler, 0, zap.NewNop()).server.WriteTimeout; got != defaultWriteTimeout {
		t.Fatalf("expected default %v, got %v", defaultWriteTimeout, got)
	}
	if got := NewServer(":0", handler, 135*time.Second, zap.NewNop()).server.WriteTimeout; got != 135*time.Second {
		t.Fatalf("expected configured timeout, got %v", got)
	}
}
