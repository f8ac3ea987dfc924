package registry

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/premiumcare/premiumcare/internal/platform/export"
	"github.com/premiumcare/premiumcare/internal/platform/validation"
	"github.com/premiumcare/premiumcare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the registry endpoints. writeMW guards the mutating routes.
func (h *Handler) RegisterRoutes(e *echo.Echo, writeMW ...echo.MiddlewareFunc) {
	e.GET("/", h.Root)
	e.GET("/patients", h.ListPatients)
	e.GET("/patients/:id", h.GetPatient)
	e.GET("/sort", h.SortPatients)
	e.GET("/export", h.ExportPatients)

	write := e.Group("", writeMW...)
	write.POST("/create", h.CreatePatient)
	write.PUT("/edit/:id", h.UpdatePatient)
	write.DELETE("/delete/:id", h.DeletePatient)
}

type messageResponse struct {
	Message string       `json:"message"`
	Patient *PatientView `json:"patient,omitempty"`
}

func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "Patient API is running"})
}

func (h *Handler) ListPatients(c echo.Context) error {
	views, err := h.svc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	pg := pagination.FromContext(c)
	start, end := pg.Window(len(views))
	c.Response().Header().Set("X-Total-Count", strconv.Itoa(len(views)))
	if pg.HasNext(len(views)) {
		next := fmt.Sprintf("/patients?limit=%d&offset=%d", pg.Limit, end)
		c.Response().Header().Set("Link", "<"+next+`>; rel="next"`)
	}
	return c.JSON(http.StatusOK, views[start:end])
}

func (h *Handler) GetPatient(c echo.Context) error {
	v, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

// SortPatients defaults order to asc only when the parameter is absent;
// an empty order is rejected like any other unknown value.
func (h *Handler) SortPatients(c echo.Context) error {
	order := OrderAsc
	if c.QueryParams().Has("order") {
		order = c.QueryParam("order")
	}
	views, err := h.svc.Sort(c.Request().Context(), c.QueryParam("sort_by"), order)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req CreateRequest
	if err := validate.BindJSON(c, &req); err != nil {
		return httpError(err)
	}
	v, err := h.svc.Create(c.Request().Context(), req.Patient())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "Patient created successfully", Patient: v})
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var u PatientUpdate
	if err := validate.BindJSON(c, &u); err != nil {
		return httpError(err)
	}
	v, err := h.svc.Update(c.Request().Context(), c.Param("id"), u)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Patient updated successfully", Patient: v})
}

func (h *Handler) DeletePatient(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Patient deleted successfully"})
}

func (h *Handler) ExportPatients(c echo.Context) error {
	views, err := h.svc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	data, err := export.XLSX(Sheet(views))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "export failed").SetInternal(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="patients.xlsx"`)
	return c.Blob(http.StatusOK, export.MIMEXLSX, data)
}

// Sheet lays patient views out as a single worksheet.
func Sheet(views []PatientView) export.Sheet {
	sheet := export.Sheet{
		Name:    "Patients",
		Headers: []string{"ID", "Name", "Age", "Gender", "Height (m)", "Weight (kg)", "BMI", "Verdict"},
	}
	for _, v := range views {
		sheet.Rows = append(sheet.Rows, []interface{}{v.ID, v.Name, v.Age, v.Gender, v.Height, v.Weight, v.BMI, v.Verdict})
	}
	return sheet
}

func httpError(err error) error {
	var verr *validation.Error
	var he *echo.HTTPError
	switch {
	case errors.As(err, &verr):
		return verr.HTTPError()
	case errors.As(err, &he):
		return he
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusBadRequest, "Patient with this ID already exists")
	case errors.Is(err, ErrInvalidSortField), errors.Is(err, ErrInvalidSortOrder), errors.Is(err, ErrInvalidPatient):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error").
			SetInternal(fmt.Errorf("registry: %w", err))
	}
}
