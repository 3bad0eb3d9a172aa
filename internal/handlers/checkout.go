package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okravets/coffeehouse/internal/cart"
	"github.com/okravets/coffeehouse/internal/models"
	"github.com/okravets/coffeehouse/internal/mykafka"
	"github.com/okravets/coffeehouse/internal/session"
)

type CheckoutHandler struct {
	DB        *gorm.DB
	Store     session.Store
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *CheckoutHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

type billingRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	StreetName  string `json:"street_name"`
	HouseNumber string `json:"house_number"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

func (r billingRequest) validate() map[string]string {
	problems := make(map[string]string)
	if r.FirstName == "" {
		problems["first_name"] = "first name is required"
	}
	if r.LastName == "" {
		problems["last_name"] = "last name is required"
	}
	if r.StreetName == "" {
		problems["street_name"] = "street name is required"
	}
	if r.HouseNumber == "" {
		problems["house_number"] = "house number is required"
	}
	if !validPhone(r.Phone) {
		problems["phone"] = "phone must match +xxxxxxxxxxx"
	}
	if !validEmail(r.Email) {
		problems["email"] = "invalid email"
	}
	return problems
}

// Checkout materializes the session cart into a durable order. The order,
// billing record and line items are written in one transaction; a dish id
// that no longer exists rolls the whole order back. The cart is cleared
// only after the transaction commits. Resubmitting the same billing form
// creates an independent order.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	sid := session.ID(c)

	var req billingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if problems := req.validate(); len(problems) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": problems})
	}

	visitorCart, err := cart.Load(c.Request().Context(), h.Store, sid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if len(visitorCart.Items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no items in cart")
	}

	user, err := userFromAccessCookie(c, h.DB, h.JWTSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var (
		order    models.Order
		lines    []models.OrderDishesList
		total    decimal.Decimal
		userData models.UserData
	)

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		order = models.Order{
			ID:     uuid.NewString(),
			Status: "Pending",
		}
		if err := tx.Create(&order).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		userData = models.UserData{
			OrderID:     order.ID,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			StreetName:  req.StreetName,
			HouseNumber: req.HouseNumber,
			Phone:       req.Phone,
			Email:       req.Email,
		}
		if user != nil {
			userData.UserID = &user.ID
		}
		if err := tx.Create(&userData).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		total = decimal.Zero
		lines = make([]models.OrderDishesList, 0, len(visitorCart.Items))
		for dishID, qty := range visitorCart.Items {
			var dish models.Dish
			if err := tx.First(&dish, dishID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("dish %d not found", dishID))
				}
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}

			line := models.OrderDishesList{
				OrderID:  order.ID,
				DishID:   dish.ID,
				Price:    dish.Price,
				Quantity: qty,
			}
			if err := tx.Create(&line).Error; err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}

			lines = append(lines, line)
			total = total.Add(dish.Price.Mul(decimal.NewFromUint64(uint64(qty))))
		}
		return nil
	})

	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	if err := cart.Clear(c.Request().Context(), h.Store, sid); err != nil {
		c.Logger().Errorf("cart clear error: %v", err)
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"total":   total,
		"items":   len(lines),
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"order_id": order.ID,
		"status":   order.Status,
		"total":    total,
		"items":    lines,
	})
}
