package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	deliverycontext "drivehub/internal/delivery/context"
	domainerrors "drivehub/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrorMiddleware turns errors escaping handlers and gates into the JSON error
// envelope. It is wired as Echo's HTTPErrorHandler, so a gate returning a
// domain error short-circuits the chain and still produces a uniform body.
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates the central error handler.
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// HandleHTTPError renders the first error a request produced. Domain errors
// carry their own status and code; everything else becomes an opaque 500 with
// only a request id for the caller to quote.
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPCode(), domainerrors.Response{
			Success: false,
			Code:    appErr.HTTPCode(),
			Message: appErr.Message(),
			Error: &domainerrors.ErrorInfo{
				Code:    appErr.ErrorCode(),
				Details: appErr.Details(),
			},
		})
		return
	}

	// Errors minted by echo itself, e.g. 404 on an unknown route or a
	// validator rejection.
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := fmt.Sprintf("%v", httpErr.Message)
		c.JSON(httpErr.Code, domainerrors.Response{
			Success: false,
			Code:    httpErr.Code,
			Message: message,
			Error: &domainerrors.ErrorInfo{
				Code:    "HTTP_ERROR",
				Details: message,
			},
		})
		return
	}

	// The cause stays in the log; the response body never echoes internals.
	requestID := deliverycontext.GetRequestID(c)
	m.logger.Error("Unhandled error",
		"error", err.Error(),
		"requestID", requestID,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
	)

	c.JSON(http.StatusInternalServerError, domainerrors.Response{
		Success: false,
		Code:    http.StatusInternalServerError,
		Message: "Internal server error",
		Error: &domainerrors.ErrorInfo{
			Code:    "INTERNAL_ERROR",
			Details: "request id " + requestID,
		},
	})
}
