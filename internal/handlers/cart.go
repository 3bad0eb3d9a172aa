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

	"github.com/okravets/coffeehouse/internal/cart"
	"github.com/okravets/coffeehouse/internal/mykafka"
	"github.com/okravets/coffeehouse/internal/session"
)

// CartHandler mutates the visitor's session cart. No authentication: the
// cart belongs to the session cookie, not to an account.
type CartHandler struct {
	DB       *gorm.DB
	Store    session.Store
	Producer *mykafka.Producer
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["sessionID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CartHandler) cartResponse(c echo.Context, visitorCart *cart.Cart) error {
	amount, err := visitorCart.TotalAmount(h.DB)
	if err != nil {
		if errors.Is(err, cart.ErrDishNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"items":        visitorCart.Items,
		"total_count":  visitorCart.TotalCount(),
		"total_amount": amount,
	})
}

func (h *CartHandler) GetCart(c echo.Context) error {
	sid := session.ID(c)

	visitorCart, err := cart.Load(c.Request().Context(), h.Store, sid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return h.cartResponse(c, visitorCart)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	sid := session.ID(c)

	var req struct {
		DishID   uint `json:"dish_id"`
		Quantity uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.DishID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "dish_id is required")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	visitorCart, err := cart.Load(c.Request().Context(), h.Store, sid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	visitorCart.Add(req.DishID, req.Quantity)
	if err := visitorCart.Save(c.Request().Context(), h.Store, sid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"sessionID": sid,
		"dishID":    req.DishID,
		"quantity":  visitorCart.Items[req.DishID],
	})

	return h.cartResponse(c, visitorCart)
}

// UpdateCart overwrites the quantity of an existing entry. A quantity of
// zero or below leaves the entry unchanged.
func (h *CartHandler) UpdateCart(c echo.Context) error {
	sid := session.ID(c)

	dishID, err := strconv.Atoi(c.Param("id"))
	if err != nil || dishID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	visitorCart, err := cart.Load(c.Request().Context(), h.Store, sid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	visitorCart.Update(uint(dishID), req.Quantity)
	if err := visitorCart.Save(c.Request().Context(), h.Store, sid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_updated",
		"sessionID": sid,
		"dishID":    dishID,
		"quantity":  visitorCart.Items[uint(dishID)],
	})

	return h.cartResponse(c, visitorCart)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	sid := session.ID(c)

	dishID, err := strconv.Atoi(c.Param("id"))
	if err != nil || dishID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	visitorCart, err := cart.Load(c.Request().Context(), h.Store, sid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	visitorCart.Remove(uint(dishID))
	if err := visitorCart.Save(c.Request().Context(), h.Store, sid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_removed",
		"sessionID": sid,
		"dishID":    dishID,
	})

	return h.cartResponse(c, visitorCart)
}
