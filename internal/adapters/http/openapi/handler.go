// Package openapi serves the embedded OpenAPI description of the HTTP API.
package openapi

import (
	"context"
	_ "embed"
	"net/http"
)

// Document is the embedded OpenAPI description of the API.
//
//go:embed openapi.yaml
var Document []byte

// Register attaches the OpenAPI document route to mux.
//
//	GET /openapi.yaml -> embedded OpenAPI document
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(Document)
	})
}
