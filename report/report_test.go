package report

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReceiptPostsIndexHTML(t *testing.T) {
	var uploaded string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		assert.Equal(t, "index.html", header.Filename)
		raw, _ := io.ReadAll(file)
		uploaded = string(raw)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	pdf, err := client.RenderReceipt(context.Background(), Receipt{
		Number:      "FEE-000042",
		Institute:   "Bright Minds",
		StudentName: "Arjun <Mehta>",
		Month:       "2026-10",
		Amount:      12500,
		PaidAmount:  12500,
		PaidOn:      "2026-10-05",
		IssuedAt:    time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
	assert.Contains(t, uploaded, "FEE-000042")
	assert.Contains(t, uploaded, "₹12,500.00")
	assert.Contains(t, uploaded, "Arjun &lt;Mehta&gt;")
	assert.Contains(t, uploaded, "16 Oct 2026")
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient("", 0)
	_, err := client.RenderHTML(context.Background(), []byte("<p>x</p>"))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, client.Ping(context.Background()), ErrUnavailable)
}

func TestPingHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			_, _ = w.Write([]byte(`{"status":"up"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := chi.NewRouter()
	r.Route("/report", NewHandler(NewClient(srv.URL, time.Second), slog.New(slog.NewTextHandler(io.Discard, nil))).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ok"))
}
