// Package api exposes the density and generated-quantities interfaces over
// HTTP, for samplers and reporting tools running out of process.
package api

import (
	"fmt"
	"math"
	"net/http"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/rbtl/internal/model"
)

// Server hosts one model. The model's scratch is single-use, so evaluation
// requests are serialized behind a mutex; the dataset itself is shared
// read-only.
type Server struct {
	mu sync.Mutex
	m  *model.Model
}

func NewServer(m *model.Model) *Server {
	return &Server{m: m}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/info", s.handleInfo)
	e.POST("/v1/evaluate", s.handleEvaluate)
	e.POST("/v1/derive", s.handleDerive)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) handleInfo(c *echo.Context) error {
	d := s.m.Data()
	return c.JSON(http.StatusOK, InfoResponse{
		NumTargets: d.NumTargets,
		NumSpectra: d.NumSpectra,
		NumWave:    d.NumWave,
		Dim:        s.m.Dim(),
		DataHash:   d.Hash(),
	})
}

func (s *Server) handleEvaluate(c *echo.Context) error {
	var req EvaluateRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Params) != s.m.Dim() {
		return writeBadRequest(c,
			fmt.Sprintf("params has length %d, want %d", len(req.Params), s.m.Dim()))
	}

	s.mu.Lock()
	ll := s.m.Observe(req.Params)
	grad := append([]float64(nil), s.m.Gradient()...)
	s.mu.Unlock()

	resp := EvaluateResponse{LogDensity: ll, Finite: true}
	if math.IsInf(ll, 0) || math.IsNaN(ll) {
		resp.LogDensity = 0
		resp.Finite = false
	} else {
		resp.Gradient = grad
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDerive(c *echo.Context) error {
	var req DeriveRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return writeBadRequest(c, err.Error())
	}
	if len(req.Params) != s.m.Dim() {
		return writeBadRequest(c,
			fmt.Sprintf("params has length %d, want %d", len(req.Params), s.m.Dim()))
	}

	out := s.m.Derive(req.Params)
	return c.JSON(http.StatusOK, DeriveResponse{
		TargetFlux:   out.TargetFlux,
		ScaleSpectra: out.ScaleSpectra,
		ScaleFlux:    out.ScaleFlux,
		ScaleFluxErr: out.ScaleFluxErr,
	})
}

func writeBadRequest(c *echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}
