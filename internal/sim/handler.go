package sim

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(patient *echo.Group) {
	patient.GET("/:id/status", h.Status)
	patient.POST("/:id/perform-exam", h.PerformExam)
	patient.POST("/:id/perform-bedside", h.PerformBedside)
	patient.POST("/:id/order-radiology", h.OrderRadiology)
	patient.POST("/:id/order-lab", h.OrderLab)
	patient.POST("/:id/order-lab-kit", h.OrderLabKit)
	patient.POST("/:id/give-med", h.GiveMed)
	patient.POST("/:id/set-therapy", h.SetTherapy)
	patient.POST("/:id/toggle-homemed", h.ToggleHomeMed)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrUnknownTest), errors.Is(err, ErrUnknownMed):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidDose):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) Status(c echo.Context) error {
	st, err := h.svc.Status(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) PerformExam(c echo.Context) error {
	var req struct {
		ExamID string `json:"examId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.PerformExam(c.Param("id"), req.ExamID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) PerformBedside(c echo.Context) error {
	var req struct {
		TestID string `json:"testId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.PerformBedside(c.Param("id"), req.TestID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) OrderRadiology(c echo.Context) error {
	var req struct {
		TestID string `json:"testId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.OrderRadiology(c.Param("id"), req.TestID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) OrderLab(c echo.Context) error {
	var req struct {
		TestID string `json:"testId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	labs, err := h.svc.OrderLab(c.Param("id"), req.TestID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, labs)
}

func (h *Handler) OrderLabKit(c echo.Context) error {
	var req struct {
		KitID string `json:"kitId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	labs, err := h.svc.OrderLabKit(c.Param("id"), req.KitID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, labs)
}

func (h *Handler) GiveMed(c echo.Context) error {
	var req struct {
		MedID string  `json:"medId"`
		Dose  float64 `json:"dose"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	msg, err := h.svc.GiveMedication(c.Param("id"), req.MedID, req.Dose)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}

func (h *Handler) SetTherapy(c echo.Context) error {
	var req struct {
		TherapyID string  `json:"therapyId"`
		Value     float64 `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetTherapy(c.Param("id"), req.TherapyID, req.Value); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Therapy updated successfully."})
}

func (h *Handler) ToggleHomeMed(c echo.Context) error {
	var req struct {
		MedID string `json:"medId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	state, err := h.svc.ToggleHomeMed(c.Param("id"), req.MedID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"homeMedicationState": state})
}
