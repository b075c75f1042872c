// Package handlers implements the service's HTTP endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/oratio-labs/oratio-svc/api"
	"github.com/oratio-labs/oratio-svc/types"
)

// maxBodyBytes bounds request bodies; question plus history should never
// come close.
const maxBodyBytes = 1 << 20

// writeJSON serializes v with the given status. Encoding failures are
// logged, not surfaced: headers are already committed.
func writeJSON(w http.ResponseWriter, status int, v any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("response encoding failed", zap.Error(err))
	}
}

// writeError emits the uniform error envelope.
func writeError(w http.ResponseWriter, status int, code types.ErrorCode, message string, logger *zap.Logger) {
	writeJSON(w, status, api.ErrorResponse{
		Error: api.ErrorDetail{Code: string(code), Message: message},
	}, logger)
}

// decodeJSONBody reads and decodes a size-bounded JSON body, rejecting
// unknown fields so client typos fail loudly.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// errorStatus maps a pipeline error to a response status and code.
// Upstream detail never leaks to clients; the structured code is enough.
func errorStatus(err error) (int, types.ErrorCode, string) {
	var appErr *types.Error
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case types.ErrTimeout, types.ErrUpstreamTimeout:
			return http.StatusGatewayTimeout, appErr.Code, "the request timed out"
		case types.ErrRateLimited, types.ErrQuotaExceeded:
			return http.StatusTooManyRequests, appErr.Code, "upstream capacity exhausted, retry later"
		case types.ErrServiceUnavailable, types.ErrProviderUnavailable, types.ErrUpstreamError:
			return http.StatusBadGateway, appErr.Code, "upstream model request failed"
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, types.ErrTimeout, "the request timed out"
	}
	return http.StatusInternalServerError, types.ErrInternalError, "failed to generate an answer"
}
