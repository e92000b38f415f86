package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/llm/format"
	"github.com/papercomputeco/relay/pkg/llm/normalize"
	"github.com/papercomputeco/relay/pkg/rag"
	"github.com/papercomputeco/relay/pkg/storage"
	"github.com/papercomputeco/relay/pkg/transport"
	"github.com/papercomputeco/relay/pkg/workflow"
)

// errBadRequest marks request validation failures.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// statusFor maps an error to the HTTP status returned to the client. Vendor
// errors keep the vendor's status code.
func statusFor(err error) int {
	var vendorErr *transport.VendorError
	switch {
	case errors.As(err, &vendorErr):
		if vendorErr.StatusCode >= 400 && vendorErr.StatusCode <= 599 {
			return vendorErr.StatusCode
		}
		return fiber.StatusBadGateway
	case errors.Is(err, errBadRequest),
		errors.Is(err, format.ErrNoMessages),
		errors.Is(err, transport.ErrUnknownTransport),
		errors.Is(err, transport.ErrUnsupportedFamily),
		errors.Is(err, rag.ErrTooLarge),
		errors.Is(err, rag.ErrUnsupportedType),
		errors.Is(err, workflow.ErrEmptyInput),
		errors.Is(err, workflow.ErrNoSteps):
		return fiber.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, normalize.ErrDecode):
		return fiber.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		// Missing credentials land here: a server configuration error.
		return fiber.StatusInternalServerError
	}
}

// errorBody builds the JSON error payload. Vendor errors carry the vendor's
// response body as the detail.
func errorBody(err error) llm.ErrorResponse {
	var vendorErr *transport.VendorError
	if errors.As(err, &vendorErr) {
		return llm.ErrorResponse{
			Error:  fmt.Sprintf("%s request failed with status %d", vendorErr.Transport, vendorErr.StatusCode),
			Detail: vendorErr.Body,
		}
	}
	if errors.Is(err, transport.ErrMissingCredentials) {
		return llm.ErrorResponse{
			Error:  "transport is not configured",
			Detail: err.Error(),
		}
	}
	return llm.ErrorResponse{Error: err.Error()}
}

func (s *Server) sendError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", c.Path(),
			"status", status,
			"error", err,
		)
	} else {
		s.logger.Debug("request rejected",
			"path", c.Path(),
			"status", status,
			"error", err,
		)
	}
	return c.Status(status).JSON(errorBody(err))
}
