package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/okravets/coffeehouse/internal/models"
)

func seedReservation(t *testing.T, db *gorm.DB, date, timeOfDay string, processed bool) models.Reservation {
	t.Helper()
	reservation := models.Reservation{
		Name:        "Taras",
		LastName:    "Shevchenko",
		Date:        date,
		Time:        timeOfDay,
		Phone:       "+380123456789",
		IsProcessed: processed,
	}
	require.NoError(t, db.Create(&reservation).Error)
	return reservation
}

func TestListUnprocessedExcludesProcessed(t *testing.T) {
	db := InitTestDB(t)
	seedReservation(t, db, "2026-09-15", "18:30", false)
	seedReservation(t, db, "2026-09-16", "12:00", true)

	h := &ManagerHandler{DB: db}
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/manager/reservations", nil)
	require.NoError(t, h.ListUnprocessed(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []models.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.False(t, resp[0].IsProcessed)
	require.Equal(t, "2026-09-15", resp[0].Date)
}

func TestListUnprocessedOrdersByDateThenTime(t *testing.T) {
	db := InitTestDB(t)
	seedReservation(t, db, "2026-09-16", "09:00", false)
	seedReservation(t, db, "2026-09-15", "20:00", false)
	seedReservation(t, db, "2026-09-15", "12:30", false)

	h := &ManagerHandler{DB: db}
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/manager/reservations", nil)
	require.NoError(t, h.ListUnprocessed(c))

	var resp []models.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 3)
	require.Equal(t, "12:30", resp[0].Time)
	require.Equal(t, "20:00", resp[1].Time)
	require.Equal(t, "2026-09-16", resp[2].Date)
}

func TestEditReservationMarksProcessed(t *testing.T) {
	db := InitTestDB(t)
	reservation := seedReservation(t, db, "2026-09-15", "18:30", false)

	h := &ManagerHandler{DB: db}
	e := echo.New()

	processed := true
	rec, c := doJSONRequest(t, e, http.MethodPatch, "/api/v1/manager/reservations/1", map[string]any{
		"is_processed": processed,
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.EditReservation(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.Reservation
	require.NoError(t, db.First(&stored, reservation.ID).Error)
	require.True(t, stored.IsProcessed)

	// The listing is a live filtered query; the processed row drops out.
	rec, c = doJSONRequest(t, e, http.MethodGet, "/api/v1/manager/reservations", nil)
	require.NoError(t, h.ListUnprocessed(c))

	var resp []models.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp)
}

func TestEditReservationUpdatesFields(t *testing.T) {
	db := InitTestDB(t)
	reservation := seedReservation(t, db, "2026-09-15", "18:30", false)

	h := &ManagerHandler{DB: db}
	e := echo.New()

	_, c := doJSONRequest(t, e, http.MethodPatch, "/api/v1/manager/reservations/1", map[string]any{
		"name":  "Lesya",
		"time":  "19:00",
		"phone": "+380987654321",
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.EditReservation(c))

	var stored models.Reservation
	require.NoError(t, db.First(&stored, reservation.ID).Error)
	require.Equal(t, "Lesya", stored.Name)
	require.Equal(t, "19:00", stored.Time)
	require.Equal(t, "+380987654321", stored.Phone)
	require.Equal(t, "Shevchenko", stored.LastName)
}

func TestEditReservationInvalidPhone(t *testing.T) {
	db := InitTestDB(t)
	seedReservation(t, db, "2026-09-15", "18:30", false)

	h := &ManagerHandler{DB: db}
	e := echo.New()

	_, c := doJSONRequest(t, e, http.MethodPatch, "/api/v1/manager/reservations/1", map[string]any{
		"phone": "abc",
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.EditReservation(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetReservationNotFound(t *testing.T) {
	db := InitTestDB(t)

	h := &ManagerHandler{DB: db}
	e := echo.New()

	_, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/manager/reservations/42", nil)
	c.SetParamNames("id")
	c.SetParamValues("42")
	err := h.GetReservation(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}
