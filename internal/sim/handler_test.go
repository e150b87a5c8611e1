package sim

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHandler(t *testing.T) (*Handler, *Registry) {
	t.Helper()
	cat := testCatalog()
	reg := NewRegistry(cat)
	return NewHandler(NewService(reg, cat, zerolog.Nop())), reg
}

func TestHandlerStatus(t *testing.T) {
	h, reg := newTestHandler(t)
	p := reg.Spawn(testCase())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID)

	if err := h.Status(c); err != nil {
		t.Fatalf("Status handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Vitals      Vitals `json:"vitals"`
		TriageLevel string `json:"triageLevel"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Vitals.AF != 16 || body.TriageLevel != "green" {
		t.Errorf("body = %+v", body)
	}
}

func TestHandlerStatusNotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	err := h.Status(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 HTTPError", err)
	}
}

func TestHandlerGiveMed(t *testing.T) {
	h, reg := newTestHandler(t)
	p := reg.Spawn(testCase())

	e := echo.New()
	body := `{"medId": "seloken", "dose": 5}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID)

	if err := h.GiveMed(c); err != nil {
		t.Fatalf("GiveMed handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(p.Effects) != 1 {
		t.Errorf("effects = %d, want 1", len(p.Effects))
	}
}

func TestHandlerGiveMedBadDose(t *testing.T) {
	h, reg := newTestHandler(t)
	p := reg.Spawn(testCase())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"medId": "seloken"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID)

	err := h.GiveMed(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400 HTTPError", err)
	}
}
