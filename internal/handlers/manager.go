package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/okravets/coffeehouse/internal/models"
	"github.com/okravets/coffeehouse/internal/mykafka"
)

// ManagerHandler serves the reservation queue. Routes are guarded by the
// manager role middleware.
type ManagerHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *ManagerHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "reservation_events", fmt.Sprint(event["reservationID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// ListUnprocessed returns pending reservations, earliest booking first.
// The listing is a live filtered query: flipping IsProcessed removes the
// row on the next fetch.
func (h *ManagerHandler) ListUnprocessed(c echo.Context) error {
	var reservations []models.Reservation
	if err := h.DB.
		Where("is_processed = ?", false).
		Order("date ASC, time ASC").
		Find(&reservations).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, reservations)
}

func (h *ManagerHandler) GetReservation(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var reservation models.Reservation
	if err := h.DB.First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "reservation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, reservation)
}

// EditReservation updates all fields including the processed flag. There is
// no version check: concurrent manager edits resolve last-write-wins.
func (h *ManagerHandler) EditReservation(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var reservation models.Reservation
	if err := h.DB.First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "reservation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req struct {
		reservationRequest
		IsProcessed *bool `json:"is_processed"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Name != "" {
		reservation.Name = req.Name
	}
	if req.LastName != "" {
		reservation.LastName = req.LastName
	}
	if req.Date != "" {
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		reservation.Date = req.Date
	}
	if req.Time != "" {
		if _, err := time.Parse("15:04", req.Time); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "time must be HH:MM")
		}
		reservation.Time = req.Time
	}
	if req.Phone != "" {
		if !validPhone(req.Phone) {
			return echo.NewHTTPError(http.StatusBadRequest, "phone should be in format: +380xxxxxxxxx")
		}
		reservation.Phone = req.Phone
	}
	if req.Message != "" {
		if len(req.Message) > 500 {
			return echo.NewHTTPError(http.StatusBadRequest, "message is too long")
		}
		reservation.Message = req.Message
	}
	if req.IsProcessed != nil {
		reservation.IsProcessed = *req.IsProcessed
	}

	if err := h.DB.Save(&reservation).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":          "reservation_updated",
		"reservationID": reservation.ID,
		"is_processed":  reservation.IsProcessed,
	})

	return c.JSON(http.StatusOK, reservation)
}
