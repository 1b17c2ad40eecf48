package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dvloznov/receipts-web/internal/config"
	"github.com/google/go-cmp/cmp"
)

const receiptsJSON = `[
	{"id": 3, "merchant": "Corner Shop", "total": "4.20", "date": "2024-05-02"},
	{"id": 4, "merchant": "Bakery, Ltd", "total": "2.10", "date": "2024-04-28"}
]`

type fakeBackend struct {
	mu       sync.Mutex
	auth     []string
	requests []string
	bodies   map[string]string
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	record := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.auth = append(f.auth, r.Header.Get("Authorization"))
			key := r.Method + " " + r.URL.Path
			f.requests = append(f.requests, key)
			f.bodies[key] = string(body)
			f.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			next(w, r)
		}
	}

	mux.HandleFunc("POST /auth/login", record(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"token": "tok-123"}}`))
	}))
	mux.HandleFunc("GET /users/me", record(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user": {"id": 9, "username": "ada", "currency": "GBP"}}`))
	}))
	mux.HandleFunc("GET /receipts", record(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(receiptsJSON))
	}))
	mux.HandleFunc("GET /receipts/3", record(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"receipt": {"id": 3, "merchant": "Corner Shop", "currency": "GBP", "total": 4.2, "reviewed": false}}`))
	}))
	mux.HandleFunc("PUT /receipts/3", record(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 3, "merchant": "Corner Shop", "currency": "GBP", "total": 5, "reviewed": true}`))
	}))
	mux.HandleFunc("POST /receipts/bulk-delete", record(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	return mux
}

func (f *fakeBackend) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newTestApp(t *testing.T) (*app, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{bodies: map[string]string{}}
	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	return &app{cfg: config.Client{
		APIBaseURL:  srv.URL,
		SessionFile: filepath.Join(dir, "session.json"),
		ExportDir:   filepath.Join(dir, "exports"),
		LogLevel:    "error",
	}}, fb
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginStoresSession(t *testing.T) {
	a, fb := newTestApp(t)

	if _, err := run(t, a, "login", "-u", "ada", "--password", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	raw, err := os.ReadFile(a.cfg.SessionFile)
	if err != nil {
		t.Fatalf("Expected session file: %v", err)
	}
	var stored struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &stored); err != nil || stored.Token != "tok-123" {
		t.Fatalf("Stored session = %s, want token tok-123", raw)
	}

	out, err := run(t, a, "profile", "show")
	if err != nil {
		t.Fatalf("profile show: %v", err)
	}
	if !strings.Contains(out, "ada") || !strings.Contains(out, "GBP") {
		t.Errorf("profile output missing fields:\n%s", out)
	}
	if got := fb.auth[len(fb.auth)-1]; got != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", got)
	}

	if _, err := run(t, a, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := os.Stat(a.cfg.SessionFile); !os.IsNotExist(err) {
		t.Errorf("Expected session file to be removed, stat err = %v", err)
	}
}

func TestLoginRequiresUsername(t *testing.T) {
	a, fb := newTestApp(t)

	if _, err := run(t, a, "login"); err == nil {
		t.Fatal("Expected error without --username")
	}
	if len(fb.calls()) != 0 {
		t.Errorf("Expected no requests, got %v", fb.calls())
	}
}

func TestTransactionsDelete(t *testing.T) {
	a, fb := newTestApp(t)

	out, err := run(t, a, "transactions", "delete", "3", "4")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "Deleted 2 receipts") {
		t.Errorf("output = %q", out)
	}
	if diff := cmp.Diff(`{"ids":[3,4]}`, fb.bodies["POST /receipts/bulk-delete"]); diff != "" {
		t.Errorf("bulk delete body mismatch (-want +got):\n%s", diff)
	}
}

func TestTransactionsDeleteUnknownID(t *testing.T) {
	a, fb := newTestApp(t)

	if _, err := run(t, a, "tx", "delete", "3", "99"); err == nil {
		t.Fatal("Expected error for unknown id")
	}
	for _, c := range fb.calls() {
		if c == "POST /receipts/bulk-delete" {
			t.Error("Expected no bulk delete when an id is unknown")
		}
	}
}

func TestTransactionsExportCSV(t *testing.T) {
	a, _ := newTestApp(t)

	if _, err := run(t, a, "transactions", "export", "--all", "--scope", "all"); err != nil {
		t.Fatalf("export: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(a.cfg.ExportDir, "transactions-*.csv"))
	if err != nil || len(files) != 1 {
		t.Fatalf("Expected one export file, got %v (err %v)", files, err)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	text := strings.TrimPrefix(string(data), "\uFEFF")
	want := "id,merchant,amount,date\r\n3,Corner Shop,4.2,2024-05-02\r\n4,\"Bakery, Ltd\",2.1,2024-04-28\r\n"
	if diff := cmp.Diff(want, text); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestTransactionsExportNothingSelected(t *testing.T) {
	a, _ := newTestApp(t)

	_, err := run(t, a, "transactions", "export", "--scope", "all")
	if err == nil || !strings.Contains(err.Error(), "Select at least one receipt to export") {
		t.Fatalf("err = %v, want selection error", err)
	}
}

func TestTransactionsExportBadFormat(t *testing.T) {
	a, fb := newTestApp(t)

	if _, err := run(t, a, "transactions", "export", "--all", "--format", "pdf"); err == nil {
		t.Fatal("Expected error for unknown format")
	}
	if len(fb.calls()) != 0 {
		t.Errorf("Expected no requests, got %v", fb.calls())
	}
}

func TestReceiptEdit(t *testing.T) {
	t.Run("no changes", func(t *testing.T) {
		a, fb := newTestApp(t)

		out, err := run(t, a, "receipts", "edit", "3", "--total", "4.20")
		if err != nil {
			t.Fatalf("edit: %v", err)
		}
		if !strings.Contains(out, "No changes") {
			t.Errorf("output = %q", out)
		}
		if diff := cmp.Diff([]string{"GET /receipts/3"}, fb.calls()); diff != "" {
			t.Errorf("requests mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("save", func(t *testing.T) {
		a, fb := newTestApp(t)

		out, err := run(t, a, "receipts", "edit", "3", "--total", "5", "--reviewed")
		if err != nil {
			t.Fatalf("edit: %v", err)
		}
		if !strings.Contains(out, "Saved") || !strings.Contains(out, "5.00 GBP") {
			t.Errorf("output = %q", out)
		}
		var body map[string]any
		if err := json.Unmarshal([]byte(fb.bodies["PUT /receipts/3"]), &body); err != nil {
			t.Fatalf("PUT body: %v", err)
		}
		if body["total"] != float64(5) || body["reviewed"] != true {
			t.Errorf("PUT body = %v", body)
		}
	})

	t.Run("invalid total", func(t *testing.T) {
		a, fb := newTestApp(t)

		_, err := run(t, a, "receipts", "edit", "3", "--total", "abc")
		if err == nil || !strings.Contains(err.Error(), "Total must be a number") {
			t.Fatalf("err = %v, want validation error", err)
		}
		for _, c := range fb.calls() {
			if strings.HasPrefix(c, "PUT") {
				t.Error("Expected no update request")
			}
		}
	})
}
