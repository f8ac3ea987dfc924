package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorResponse is the body of every error reply. Detail is either a string
// or a list of field errors.
type ErrorResponse struct {
	Detail interface{} `json:"detail"`
}

// ErrorHandler renders handler errors as {"detail": ...}. Errors that are not
// *echo.HTTPError become a bare 500 so internal text never leaks.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var detail interface{} = http.StatusText(http.StatusInternalServerError)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			detail = he.Message
			if msg, ok := he.Message.(string); ok && msg == "" {
				detail = http.StatusText(code)
			}
			if he.Internal != nil && code >= http.StatusInternalServerError {
				logger.Error().Err(he.Internal).
					Str("request_id", requestID(c)).
					Int("status", code).
					Msg("internal error")
			}
		} else {
			logger.Error().Err(err).
				Str("request_id", requestID(c)).
				Msg("unhandled error")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, ErrorResponse{Detail: detail})
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}

func requestID(c echo.Context) string {
	rid, _ := c.Get("request_id").(string)
	return rid
}
