package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/and161185/activities/internal/api"
	"github.com/and161185/activities/internal/client"
	"github.com/and161185/activities/internal/repository/sqlite"
	httpserver "github.com/and161185/activities/internal/server/http"
	"github.com/and161185/activities/internal/service"
)

func startServer(t *testing.T) string {
	t.Helper()
	repo, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "cli.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	log := zaptest.NewLogger(t)
	srv := httptest.NewServer(httpserver.NewMux(service.New(repo, service.WithLogger(log)), log, httpserver.Config{}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLI_Flow(t *testing.T) {
	url := startServer(t)

	code, out, errOut := runCLI(t, "-addr", url, "create",
		"-id", "1", "-title", "Run", "-description", "5k", "-category", "sport",
		"-date", "2020-01-01T18:00", "-city", "Oslo", "-venue", "Park")
	if code != 0 {
		t.Fatalf("create exit=%d stderr=%s", code, errOut)
	}
	var created api.ActivityDTO
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode create output: %v", err)
	}
	if created.ID != "1" || created.Date.Hour() != 18 {
		t.Fatalf("unexpected created: %+v", created)
	}

	code, out, errOut = runCLI(t, "-addr", url, "edit", "-id", "1", "-title", "Walk")
	if code != 0 {
		t.Fatalf("edit exit=%d stderr=%s", code, errOut)
	}

	code, out, _ = runCLI(t, "-addr", url, "list")
	if code != 0 {
		t.Fatalf("list exit=%d", code)
	}
	var list []api.ActivityDTO
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Walk" || list[0].City != "Oslo" {
		t.Fatalf("unexpected list: %+v", list)
	}

	code, out, _ = runCLI(t, "-addr", url, "list", "-grouped")
	if code != 0 || !strings.Contains(out, `"Day": "2020-01-01"`) {
		t.Fatalf("grouped list exit=%d out=%s", code, out)
	}

	code, out, _ = runCLI(t, "-addr", url, "rm", "-id", "1")
	if code != 0 || strings.TrimSpace(out) != "ok" {
		t.Fatalf("rm exit=%d out=%s", code, out)
	}

	code, _, errOut = runCLI(t, "-addr", url, "get", "-id", "1")
	if code != 1 || !strings.HasPrefix(errOut, "kind=not_found") {
		t.Fatalf("get missing exit=%d stderr=%s", code, errOut)
	}
}

func TestCLI_ValidationFailurePrintsFields(t *testing.T) {
	url := startServer(t)

	code, _, errOut := runCLI(t, "-addr", url, "create", "-id", "2", "-title", "Run")
	if code != 1 {
		t.Fatalf("want exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "kind=bad_request") || !strings.Contains(errOut, "field=venue:") {
		t.Fatalf("unexpected stderr: %s", errOut)
	}
}

func TestCLI_UsageAndArgs(t *testing.T) {
	if code, _, _ := runCLI(t); code != 2 {
		t.Fatalf("no command: want 2, got %d", code)
	}
	if code, _, _ := runCLI(t, "bogus"); code != 2 {
		t.Fatalf("unknown command: want 2, got %d", code)
	}
	if code, _, errOut := runCLI(t, "rm"); code != 1 || !strings.Contains(errOut, "need -id") {
		t.Fatalf("rm without id: code=%d stderr=%s", code, errOut)
	}
	if code, out, _ := runCLI(t, "version"); code != 0 || !strings.HasPrefix(out, "activities dev") {
		t.Fatalf("version: code=%d out=%s", code, out)
	}
}

func TestDescribe(t *testing.T) {
	err := &client.Error{Status: 400, Kind: api.KindBadRequest, Message: "validation failed",
		Fields: map[string]string{"title": "title is required", "city": "city is required"}}
	got := describe(err)
	want := `kind=bad_request msg="validation failed" field=city:"city is required" field=title:"title is required"`
	if got != want {
		t.Fatalf("describe=%s\nwant=%s", got, want)
	}
	if got := describe(errors.New("boom")); got != `kind=error msg="boom"` {
		t.Fatalf("plain error: %s", got)
	}
}
