package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/WessleyAI/daytrip-loader/engine/domain"
	"github.com/WessleyAI/daytrip-loader/engine/graph"
	"github.com/WessleyAI/daytrip-loader/pkg/config"
	"github.com/WessleyAI/daytrip-loader/pkg/metrics"
)

// run executes the root command in dry-run mode and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--dry-run", "--env-file", "", "--log-file", ""))
	err := root.Execute()
	return out.String(), err
}

func TestImportDryRun(t *testing.T) {
	errLog := filepath.Join(t.TempDir(), "errors.jsonl")
	out, err := run(t, "import", "--error-log", errLog, "--workers", "2", filepath.Join("..", "..", "engine", "ingest", "testdata", "orders.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "documents read: 3, processed: 2, errored: 1") {
		t.Fatalf("output = %q", out)
	}

	data, err := os.ReadFile(errLog)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 1 || !strings.Contains(string(data), `"document_number":2`) {
		t.Fatalf("error log = %s", data)
	}
}

func TestImportRejectsNonJSON(t *testing.T) {
	_, err := run(t, "import", "--error-log", "", "orders.csv")
	if err == nil || !strings.Contains(err.Error(), "json") {
		t.Fatalf("err = %v", err)
	}
}

func TestInitDryRun(t *testing.T) {
	out, err := run(t, "init")
	if err != nil {
		t.Fatal(err)
	}
	want := len(domain.VehicleTypes) + len(domain.PaymentMethods)
	if !strings.Contains(out, "reference records seeded: "+strconv.Itoa(want)) {
		t.Fatalf("output = %q", out)
	}
}

func TestQueryUnknownCollection(t *testing.T) {
	_, err := run(t, "query", "bogus")
	if !errors.Is(err, domain.ErrUnknownCollection) {
		t.Fatalf("err = %v", err)
	}
}

func TestQueryDryRunIsEmpty(t *testing.T) {
	out, err := run(t, "query", "order", "--where", "key=o-1")
	if err != nil || out != "" {
		t.Fatalf("out = %q, err = %v", out, err)
	}
}

func TestParseWhere(t *testing.T) {
	f, err := parseWhere([]string{"country_name=Austria", "age:=41", "note=a=b"})
	if err != nil {
		t.Fatal(err)
	}
	if f.Where["country_name"] != "Austria" || f.Where["age"] != float64(41) || f.Where["note"] != "a=b" {
		t.Fatalf("where = %v", f.Where)
	}

	for _, bad := range []string{"novalue", "=x", "age:=forty"} {
		if _, err := parseWhere([]string{bad}); !errors.Is(err, graph.ErrInvalidFilter) {
			t.Errorf("parseWhere(%q) err = %v", bad, err)
		}
	}
}

func TestMetricsHandler(t *testing.T) {
	a := &app{cfg: config.Defaults(), log: slog.New(slog.NewTextHandler(io.Discard, nil)), reg: metrics.New()}
	h := a.metricsHandler()

	for range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if body := rec.Body.String(); !strings.Contains(body, `http_requests_total{path="/metrics",code="200"} 2`) {
		t.Fatalf("body = %s", body)
	}
}
