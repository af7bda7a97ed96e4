package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/iaqdash/config"
	"github.com/spektr-org/iaqdash/engine"
	"github.com/spektr-org/iaqdash/helpers"
	"github.com/spektr-org/iaqdash/schema"
)

const sampleCSV = `Timestamp,Temperature (?C),Humidity (%),CO2 (ppm),PM2.5 (?g/m?),Occupancy Count,Motion Detected,Ventilation Status
01-03-2024 08:00,21.5,40.2,612,12.1,2,1,Off
01-03-2024 09:00,21.7,41.0,655,11.9,3,0,On
02-03-2024 10:00,22.0,42.3,702,10.4,5,1,Auto
03-03-2024 11:00,22.4,43.1,731,9.8,4,1,On
`

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(cfg, schema.DefaultProfile(), log), &logs
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeDashboard(t *testing.T, rec *httptest.ResponseRecorder) engine.Dashboard {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dash engine.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	return dash
}

func TestHealth(t *testing.T) {
	s, logs := newTestServer(t, nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
	assert.Contains(t, logs.String(), "path=/health")
}

func TestRequestIDIsReused(t *testing.T) {
	s, _ := newTestServer(t, nil)
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", id)

	rec := do(s, req)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))
}

func TestRenderRawBody(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(s, httptest.NewRequest(http.MethodPost, "/api/v1/dashboard?status=On&status=auto", strings.NewReader(sampleCSV)))

	dash := decodeDashboard(t, rec)
	assert.Equal(t, 4, dash.Metrics.TotalRows)
	assert.Equal(t, 3, dash.Metrics.Rows)
	assert.Equal(t, []string{"On", "Auto"}, dash.Metrics.Statuses)
	assert.Len(t, dash.Charts, len(engine.ChartIDs()))
}

func TestRenderEmptyStatusSelection(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(s, httptest.NewRequest(http.MethodPost, "/api/v1/dashboard?status=", strings.NewReader(sampleCSV)))

	dash := decodeDashboard(t, rec)
	assert.Equal(t, 0, dash.Metrics.Rows)
	for _, c := range dash.Charts {
		assert.True(t, c.NoData, c.ID)
	}
}

func TestRenderDateRange(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(s, httptest.NewRequest(http.MethodPost, "/api/v1/dashboard?start=2024-03-01&end=2024-03-02", strings.NewReader(sampleCSV)))

	dash := decodeDashboard(t, rec)
	assert.Equal(t, 3, dash.Metrics.Rows)
}

func TestRenderMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "office.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, sampleCSV)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("filters", `{"statuses":["Off"]}`))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard?bins=5", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	s, _ := newTestServer(t, nil)
	dash := decodeDashboard(t, do(s, req))
	assert.Equal(t, 1, dash.Metrics.Rows)
	for _, c := range dash.Charts {
		if c.ID == engine.ChartTempDistribution {
			assert.Len(t, c.Series[0].X, 1, "single value gives one bin")
		}
	}
}

func TestRenderBadInput(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		body   string
		status int
		errSub string
	}{
		{"binary", "/api/v1/dashboard", "\x00\x01\x02\xff", http.StatusBadRequest, "UTF-8"},
		{"missing column", "/api/v1/dashboard", "Timestamp,CO2\n2024-01-01 10:00,400\n", http.StatusBadRequest, "ventilation_status"},
		{"bad start", "/api/v1/dashboard?start=yesterday", sampleCSV, http.StatusBadRequest, "invalid start"},
		{"reversed range", "/api/v1/dashboard?start=2024-03-02&end=2024-03-01", sampleCSV, http.StatusBadRequest, "before start"},
		{"bad bins", "/api/v1/dashboard?bins=0", sampleCSV, http.StatusBadRequest, "bins"},
		{"bins over cap", "/api/v1/dashboard?bins=1073741824", sampleCSV, http.StatusBadRequest, "between 1 and 1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, nil)
			rec := do(s, httptest.NewRequest(http.MethodPost, tt.url, strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.errSub)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestLoadErrorCarriesHint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(s, httptest.NewRequest(http.MethodPost, "/api/v1/datasets/inspect", strings.NewReader("")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "file is empty", resp.Error)
	assert.Contains(t, resp.Hint, "Timestamp")
}

func TestUploadTooLarge(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.MaxUploadMB = 1 })
	big := strings.Repeat("x", 2<<20)
	rec := do(s, httptest.NewRequest(http.MethodPost, "/api/v1/dashboard", strings.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestInspect(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(s, httptest.NewRequest(http.MethodPost, "/api/v1/datasets/inspect?name=lab.csv", strings.NewReader(sampleCSV)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Dataset helpers.DatasetInfo `json:"dataset"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "lab.csv", resp.Dataset.Name)
	assert.Equal(t, 4, resp.Dataset.Rows)
	assert.Equal(t, []string{"Off", "On", "Auto"}, resp.Dataset.Statuses)
	assert.Contains(t, resp.Dataset.Columns, schema.PM25)
	assert.Equal(t, "02-01-2006 15:04", resp.Dataset.TimestampLayout)
}

func TestFixedDashboard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixed.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	s, _ := newTestServer(t, func(c *config.Config) { c.DataPath = path })
	dash := decodeDashboard(t, do(s, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?status=Off", nil)))
	assert.Equal(t, 1, dash.Metrics.Rows)
	assert.Equal(t, 4, dash.Metrics.TotalRows)
}

func TestFixedDashboard_NotConfigured(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.CORSOrigins = []string{"http://localhost:5173"} })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/dashboard", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := do(s, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = do(s, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestChartsList(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/charts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), engine.ChartOccupancyVsCO2)
}
