package api

// EvaluateRequest carries one unconstrained parameter vector.
type EvaluateRequest struct {
	Params []float64 `json:"params"`
}

// EvaluateResponse is the density and its gradient. JSON has no -Inf, so a
// rejected point is reported with Finite=false and no gradient.
type EvaluateResponse struct {
	LogDensity float64   `json:"log_density"`
	Gradient   []float64 `json:"gradient,omitempty"`
	Finite     bool      `json:"finite"`
}

// DeriveRequest carries one posterior draw.
type DeriveRequest struct {
	Params []float64 `json:"params"`
}

// DeriveResponse mirrors model.DerivedOutputs.
type DeriveResponse struct {
	TargetFlux   []float64 `json:"target_flux"`
	ScaleSpectra []float64 `json:"scale_spectra"`
	ScaleFlux    []float64 `json:"scale_flux"`
	ScaleFluxErr []float64 `json:"scale_fluxerr"`
}

// InfoResponse describes the hosted dataset and parameter space.
type InfoResponse struct {
	NumTargets int    `json:"num_targets"`
	NumSpectra int    `json:"num_spectra"`
	NumWave    int    `json:"num_wave"`
	Dim        int    `json:"dim"`
	DataHash   string `json:"data_hash"`
}

type errorResponse struct {
	Error string `json:"error"`
}
