package types

import "github.com/heartwire/heartwire/internal/compat"

// ScoreRequest carries two inline profiles for the compatibility endpoint.
// Weights are optional; the engine falls back to the reference table.
type ScoreRequest struct {
	ProfileA compat.Profile `json:"profileA" binding:"required"`
	ProfileB compat.Profile `json:"profileB" binding:"required"`
	Weights  compat.Weights `json:"weights,omitempty"`
}

// VectorRequest carries two numeric vectors for the cosine endpoint.
type VectorRequest struct {
	A []float64 `json:"a" binding:"required"`
	B []float64 `json:"b" binding:"required"`
}

// VectorResponse is the cosine endpoint payload.
type VectorResponse struct {
	Similarity float64 `json:"similarity"`
}

// CreateProfileRequest registers a profile with the storage collaborator.
type CreateProfileRequest struct {
	DisplayName string         `json:"display_name" binding:"required"`
	Attributes  compat.Profile `json:"attributes" binding:"required"`
}
