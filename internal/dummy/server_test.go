package dummy

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMux_Endpoints(t *testing.T) {
	server := httptest.NewServer(NewMux())
	defer server.Close()

	tests := []struct {
		path string
		want int
	}{
		{"/fast", http.StatusOK},
		{"/status/503", http.StatusServiceUnavailable},
		{"/status/abc", http.StatusBadRequest},
		{"/rest/blocking?min-block-period-ms=1&max-block-period-ms=2", http.StatusOK},
		{"/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestIntParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/rest/blocking?a=5&b=x&c=-1", nil)
	if got := intParam(r, "a", 1); got != 5 {
		t.Errorf("Expected 5, got %d", got)
	}
	if got := intParam(r, "b", 1); got != 1 {
		t.Errorf("Expected default for non-numeric, got %d", got)
	}
	if got := intParam(r, "c", 1); got != 1 {
		t.Errorf("Expected default for negative, got %d", got)
	}
	if got := intParam(r, "missing", 7); got != 7 {
		t.Errorf("Expected default 7, got %d", got)
	}
}

func TestStart_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	done := make(chan error, 1)
	go func() { done <- Start(context.Background(), ServerConfig{Port: port}) }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Expected a bind error for a busy port")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept running on a busy port")
	}
}

func TestStart_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Start(ctx, ServerConfig{Port: 0}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
