// Package response writes the uniform JSON envelope used by every endpoint.
package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-user-account/internal/apierror"
	"github.com/sbilibin2017/gw-user-account/internal/logger"
)

// Success is the envelope of a successful response
// swagger:model Success
type Success struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// Failure is the envelope of a failed response
// swagger:model Failure
type Failure struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

const internalMessage = "Internal server error."

// JSON writes a success envelope with the given status.
func JSON(w http.ResponseWriter, statusCode int, data any, message string) {
	write(w, statusCode, Success{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// Error writes a failure envelope. Errors that are not *apierror.Error are logged
// and rendered as a 500 without their detail.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		logger.FromContext(ctx).Errorw("internal server error", "error", err)
		apiErr = apierror.Internal(internalMessage, err)
	} else if apiErr.Kind == apierror.KindInternal {
		logger.FromContext(ctx).Errorw("internal server error", "error", err)
	}

	details := apiErr.Errors
	if details == nil {
		details = []string{}
	}

	write(w, apiErr.StatusCode, Failure{
		StatusCode: apiErr.StatusCode,
		Data:       nil,
		Message:    apiErr.Message,
		Success:    false,
		Errors:     details,
	})
}

func write(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Errorw("failed to encode response", "error", err)
	}
}
