package premium

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/premiumcare/premiumcare/internal/platform/validation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.POST("/predict", h.Predict)
}

func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "API is running"})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"model":  h.svc.ModelName(),
	})
}

func (h *Handler) Predict(c echo.Context) error {
	var req ProfileRequest
	if err := validate.BindJSON(c, &req); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return verr.HTTPError()
		}
		return err
	}

	label, err := h.svc.Predict(c.Request().Context(), req.Profile())
	if err != nil {
		var ierr *InferenceError
		if errors.As(err, &ierr) {
			return echo.NewHTTPError(http.StatusInternalServerError, ierr.Error()).SetInternal(ierr.Err)
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"predicted_category": label})
}
