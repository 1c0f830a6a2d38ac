package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
)

// ErrorBody is the payload of every error response:
// {"error":{"code","message","details","requestId"}}.
type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details"`
	RequestID nullable.Nullable[string]         `json:"requestId"`
}

// APIError is a huma.StatusError rendered as the error envelope.
type APIError struct {
	status int
	Body   ErrorBody `json:"error"`
}

func (e *APIError) Error() string  { return e.Body.Message }
func (e *APIError) GetStatus() int { return e.status }

func newAPIError(ctx context.Context, status int, code, message string, details map[string]any) *APIError {
	if code == "" {
		code = codeForStatus(status)
	}
	e := &APIError{
		status: status,
		Body: ErrorBody{
			Code:      code,
			Message:   message,
			Details:   nullable.NewNullNullable[map[string]any](),
			RequestID: nullable.NewNullNullable[string](),
		},
	}
	if len(details) > 0 {
		e.Body.Details = nullable.NewNullableWithValue(details)
	}
	if ctx != nil {
		if rid := middleware.GetReqID(ctx); rid != "" {
			e.Body.RequestID = nullable.NewNullableWithValue(rid)
		}
	}
	return e
}

func init() {
	// Errors huma raises itself (validation, malformed bodies) use the same envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(nil, status, "", msg, detailsFromHuma(errs))
	}
	huma.NewErrorWithContext = func(hctx huma.Context, status int, msg string, errs ...error) huma.StatusError {
		var ctx context.Context
		if hctx != nil {
			ctx = hctx.Context()
		}
		return newAPIError(ctx, status, "", msg, detailsFromHuma(errs))
	}
}

func detailsFromHuma(errs []error) map[string]any {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]any, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		var d *huma.ErrorDetail
		if errors.As(err, &d) {
			loc := strings.TrimPrefix(d.Location, "body.")
			if loc == "" {
				loc = "body"
			}
			out[loc] = d.Message
			continue
		}
		out["body"] = err.Error()
	}
	return out
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case http.StatusInternalServerError:
		return "INTERNAL_ERROR"
	default:
		return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func unauthorized(ctx context.Context, message string) *APIError {
	return newAPIError(ctx, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func forbidden(ctx context.Context, code, message string) *APIError {
	return newAPIError(ctx, http.StatusForbidden, code, message, nil)
}

func invalid(ctx context.Context, field, message string) *APIError {
	return newAPIError(ctx, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid "+field, map[string]any{field: message})
}
