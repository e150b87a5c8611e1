package game

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/edsim/edsim/internal/caselib"
	"github.com/edsim/edsim/internal/debrief"
	"github.com/edsim/edsim/internal/results"
	"github.com/edsim/edsim/internal/scoring"
	"github.com/edsim/edsim/internal/sim"
	"github.com/edsim/edsim/pkg/pagination"
)

type Handler struct {
	svc      *Service
	store    results.Store
	renderer *debrief.Renderer
}

func NewHandler(svc *Service, store results.Store, renderer *debrief.Renderer) *Handler {
	return &Handler{svc: svc, store: store, renderer: renderer}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/game-data", h.GameData)
	api.GET("/random-patient", h.RandomPatient)
	api.POST("/reset", h.Reset)
	api.POST("/evaluate-case", h.EvaluateCase)
	api.POST("/chat", h.Chat)
	api.POST("/rate-case", h.RateCase)
	api.GET("/results", h.ListResults)
	api.GET("/results/:id", h.GetResult)
	api.GET("/results/:id/debrief.pdf", h.DebriefPDF)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, sim.ErrPatientNotFound),
		errors.Is(err, caselib.ErrNoCasesLeft),
		errors.Is(err, results.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidRating):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) GameData(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.GameData())
}

func (h *Handler) RandomPatient(c echo.Context) error {
	view, err := h.svc.SpawnRandom()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) Reset(c echo.Context) error {
	h.svc.Reset()
	return c.JSON(http.StatusOK, map[string]string{"message": "Game reset."})
}

func (h *Handler) EvaluateCase(c echo.Context) error {
	var req struct {
		PatientID string `json:"patientId"`
		scoring.Submission
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	eval, err := h.svc.EvaluateCase(c.Request().Context(), req.PatientID, &req.Submission)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, eval)
}

func (h *Handler) Chat(c echo.Context) error {
	var req struct {
		PatientID string `json:"patientId"`
		Message   string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	reply, err := h.svc.Chat(c.Request().Context(), req.PatientID, req.Message)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reply)
}

func (h *Handler) RateCase(c echo.Context) error {
	var req struct {
		ResultID uuid.UUID `json:"resultId"`
		Rating   int       `json:"rating"`
		Feedback string    `json:"feedback"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RateResult(c.Request().Context(), req.ResultID, req.Rating, req.Feedback); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Rating saved successfully."})
}

func (h *Handler) ListResults(c echo.Context) error {
	p := pagination.FromContext(c)
	records, total, err := h.store.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, p))
}

func (h *Handler) GetResult(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid result id")
	}
	rec, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DebriefPDF(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid result id")
	}
	rec, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	pdf, err := h.renderer.Render(rec.Result)
	if err != nil {
		return httpError(err)
	}
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
