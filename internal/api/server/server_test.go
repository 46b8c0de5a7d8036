package server

import (
	"bytes"
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/http2"

	"github.com/remiblancher/ocspkit/internal/api/service"
	"github.com/remiblancher/ocspkit/internal/config"
	"github.com/remiblancher/ocspkit/internal/ocsp"
)

func startTestServer(t *testing.T, cfg *Config) (string, func() error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	svc := service.NewOCSPService(ocsp.CheckConfig{Flags: ocsp.FlagNoVerify}, 0)
	srv := New(cfg, "test", svc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	stop := func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
			return nil
		}
	}
	return "http://" + ln.Addr().String(), stop
}

// =============================================================================
// [Unit] Config Tests
// =============================================================================

func TestU_Config_FromProfile(t *testing.T) {
	sc := config.Default().Server
	sc.Host = "127.0.0.1"
	sc.Port = 9000
	sc.H2C = true

	cfg := FromProfile(sc)
	if cfg.Address() != "127.0.0.1:9000" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if !cfg.H2C || cfg.TLSEnabled() {
		t.Errorf("H2C = %v, TLSEnabled = %v", cfg.H2C, cfg.TLSEnabled())
	}
	if cfg.ShutdownTimeout != 10*time.Second || cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("defaults not carried: %+v", cfg)
	}

	def := DefaultConfig()
	if def.Port != 8080 || def.ReadTimeout != 30*time.Second {
		t.Errorf("DefaultConfig() = %+v", def)
	}
}

// =============================================================================
// [Functional] Lifecycle Tests
// =============================================================================

func TestF_Server_ServeAndShutdown(t *testing.T) {
	base, stop := startTestServer(t, DefaultConfig())

	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	if err := stop(); err != nil {
		t.Errorf("Serve() error = %v", err)
	}
	if _, err := http.Get(base + "/health"); err == nil {
		t.Error("server should refuse connections after shutdown")
	}
}

func TestF_Server_H2C(t *testing.T) {
	cfg := DefaultConfig()
	cfg.H2C = true
	base, stop := startTestServer(t, cfg)
	defer func() { _ = stop() }()

	client := &http.Client{Transport: &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}}
	resp, err := client.Get(base + "/ready")
	if err != nil {
		t.Fatalf("h2c GET error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.ProtoMajor != 2 {
		t.Errorf("protocol = %s, want HTTP/2", resp.Proto)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestU_Server_PrintStartupInfo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.H2C = true
	srv := New(cfg, "1.2.3", service.NewOCSPService(ocsp.CheckConfig{}, 0), nil)

	var buf bytes.Buffer
	srv.PrintStartupInfo(&buf)
	out := buf.String()
	for _, want := range []string{"Version:  1.2.3", "http://:8080", "H2C:      enabled", "/api/v1/ocsp/verify"} {
		if !strings.Contains(out, want) {
			t.Errorf("startup info missing %q:\n%s", want, out)
		}
	}
	if srv.Handler() == nil {
		t.Error("Handler() should not be nil")
	}
}
