package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/listkeeper/internal/config"
)

func TestTokenCommandGeneratesSecretAndVerifies(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "token", "--user", "alice"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	saved, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if len(saved.AuthSecret) != 64 {
		t.Fatalf("expected generated secret persisted, got %q", saved.AuthSecret)
	}
	if saved.DBPath != filepath.Join(dir, "listkeeper.db") {
		t.Fatalf("expected db beside config, got %q", saved.DBPath)
	}
	if saved.User != "" {
		t.Fatalf("expected flag override not written back, got %q", saved.User)
	}

	issuer, err := newIssuer(saved)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	id, err := issuer.Verify(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("verify printed token: %v", err)
	}
	if id.OwnerID != "alice" {
		t.Fatalf("expected alice, got %q", id.OwnerID)
	}
}

func TestApplyOverridesOnlyTouchesChangedFlags(t *testing.T) {
	cmd := newRootCmd()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	if err != nil {
		t.Fatalf("find serve: %v", err)
	}
	fs := serveCmd.Flags()
	fs.AddFlagSet(cmd.PersistentFlags())
	if err := fs.Parse([]string{"--addr", "127.0.0.1:9999", "--log-level", "debug"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg := config.Default()
	cfg.DBPath = "/var/lib/listkeeper.db"
	o := overrides{addr: "127.0.0.1:9999", logLevel: "debug"}
	applyOverrides(fs, o, &cfg)

	if cfg.Addr != "127.0.0.1:9999" || cfg.LogLevel != "debug" {
		t.Fatalf("expected overrides applied, got %+v", cfg)
	}
	if cfg.DBPath != "/var/lib/listkeeper.db" || cfg.LogFormat != "auto" {
		t.Fatalf("expected untouched fields kept, got %+v", cfg)
	}
}

func TestServeAnswersAndShutsDown(t *testing.T) {
	dir := t.TempDir()
	a := &app{configPath: filepath.Join(dir, "config.json")}
	a.cfg = config.Default()
	a.cfg.DBPath = filepath.Join(dir, "listkeeper.db")
	a.cfg.AuthSecret = "serve-test-secret-0123456789"

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, a, ln, slog.New(slog.NewTextHandler(io.Discard, nil))) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		cancel()
		t.Fatalf("healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get("http://" + ln.Addr().String() + "/lists")
	if err != nil {
		cancel()
		t.Fatalf("lists: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}

func TestDefaultUser(t *testing.T) {
	t.Setenv("USER", "")
	if got := defaultUser(config.Config{}); got != "me" {
		t.Fatalf("expected fallback user, got %q", got)
	}
	t.Setenv("USER", "bob")
	if got := defaultUser(config.Config{}); got != "bob" {
		t.Fatalf("expected $USER, got %q", got)
	}
	if got := defaultUser(config.Config{User: "alice"}); got != "alice" {
		t.Fatalf("expected configured user, got %q", got)
	}
}
