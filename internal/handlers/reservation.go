package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/okravets/coffeehouse/internal/models"
	"github.com/okravets/coffeehouse/internal/mykafka"
	"github.com/okravets/coffeehouse/internal/session"
)

const reservationDraftKey = "reservation_form"

type ReservationHandler struct {
	DB       *gorm.DB
	Store    session.Store
	Producer *mykafka.Producer
}

func (h *ReservationHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "reservation_events", fmt.Sprint(event["reservationID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

type reservationRequest struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
}

func (r reservationRequest) validate() map[string]string {
	problems := make(map[string]string)
	if r.Name == "" {
		problems["name"] = "name is required"
	}
	if r.LastName == "" {
		problems["last_name"] = "last name is required"
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		problems["date"] = "date must be YYYY-MM-DD"
	}
	if _, err := time.Parse("15:04", r.Time); err != nil {
		problems["time"] = "time must be HH:MM"
	}
	if !validPhone(r.Phone) {
		problems["phone"] = "phone should be in format: +380xxxxxxxxx"
	}
	if len(r.Message) > 500 {
		problems["message"] = "message is too long"
	}
	return problems
}

// CreateReservation takes an anonymous booking request. A rejected
// submission is remembered in the session so the form can be re-displayed
// pre-filled.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	sid := session.ID(c)

	var req reservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if problems := req.validate(); len(problems) > 0 {
		if raw, err := json.Marshal(req); err == nil {
			if err := h.Store.Set(c.Request().Context(), sid, reservationDraftKey, raw); err != nil {
				c.Logger().Errorf("session write error: %v", err)
			}
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": problems})
	}

	reservation := models.Reservation{
		Name:     req.Name,
		LastName: req.LastName,
		Date:     req.Date,
		Time:     req.Time,
		Phone:    req.Phone,
		Message:  req.Message,
	}
	if err := h.DB.Create(&reservation).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.Store.Delete(c.Request().Context(), sid, reservationDraftKey); err != nil {
		c.Logger().Errorf("session delete error: %v", err)
	}

	h.publish(c, map[string]any{
		"type":          "reservation_created",
		"reservationID": reservation.ID,
		"date":          reservation.Date,
		"time":          reservation.Time,
	})

	return c.JSON(http.StatusCreated, reservation)
}

// GetReservationDraft returns the last rejected submission, if any, for
// form re-display.
func (h *ReservationHandler) GetReservationDraft(c echo.Context) error {
	sid := session.ID(c)

	raw, err := h.Store.Get(c.Request().Context(), sid, reservationDraftKey)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var draft reservationRequest
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &draft); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, draft)
}
