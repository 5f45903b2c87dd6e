package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/rbtl/internal/dataset"
	"github.com/samcharles93/rbtl/internal/model"
)

func newTestServer(t *testing.T) (*echo.Echo, *model.Model) {
	t.Helper()
	d := dataset.Synthetic(2, 3, 4, 55)
	m, err := model.New(d)
	if err != nil {
		t.Fatal(err)
	}
	e := echo.New()
	NewServer(m).Register(e)
	return e, m
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func paramsJSON(m *model.Model) string {
	var sb strings.Builder
	sb.WriteString(`{"params":[`)
	for i := 0; i < m.Dim(); i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("0.1")
	}
	sb.WriteString(`]}`)
	return sb.String()
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestInfo(t *testing.T) {
	e, m := newTestServer(t)
	rec := doJSON(t, e, http.MethodGet, "/v1/info", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var info InfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Dim != m.Dim() || info.NumTargets != 2 || info.NumWave != 4 {
		t.Fatalf("info %+v", info)
	}
	if info.DataHash == "" {
		t.Fatal("missing data hash")
	}
}

func TestEvaluate(t *testing.T) {
	e, m := newTestServer(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/evaluate", paramsJSON(m))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp EvaluateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Finite {
		t.Fatal("expected a finite density")
	}
	if len(resp.Gradient) != m.Dim() {
		t.Fatalf("gradient length %d, want %d", len(resp.Gradient), m.Dim())
	}
}

func TestEvaluateWrongLength(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/evaluate", `{"params":[1,2,3]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestEvaluateNonFinite(t *testing.T) {
	e, m := newTestServer(t)
	var sb strings.Builder
	sb.WriteString(`{"params":[`)
	for i := 0; i < m.Dim(); i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		// Absurd magnitudes overflow the flux transform.
		sb.WriteString("-1e4")
	}
	sb.WriteString(`]}`)
	rec := doJSON(t, e, http.MethodPost, "/v1/evaluate", sb.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp EvaluateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Finite {
		t.Fatal("expected a rejected point")
	}
	if len(resp.Gradient) != 0 {
		t.Fatal("rejected point must not carry a gradient")
	}
}

func TestDerive(t *testing.T) {
	e, m := newTestServer(t)
	rec := doJSON(t, e, http.MethodPost, "/v1/derive", paramsJSON(m))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp DeriveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	d := m.Data()
	if len(resp.ScaleFlux) != d.NumTargets*d.NumWave {
		t.Fatalf("scale flux length %d, want %d", len(resp.ScaleFlux), d.NumTargets*d.NumWave)
	}
}
