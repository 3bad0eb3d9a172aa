package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/okravets/coffeehouse/internal/mail"
)

type ContactHandler struct {
	Sender mail.Sender
}

// Contact forwards a visitor message to the configured café address.
// Transport failure surfaces as a generic 502; nothing is retried.
func (h *ContactHandler) Contact(c echo.Context) error {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	problems := make(map[string]string)
	if req.Name == "" {
		problems["name"] = "name is required"
	}
	if !validEmail(req.Email) {
		problems["email"] = "invalid email"
	}
	if req.Message == "" {
		problems["message"] = "message is required"
	}
	if len(problems) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": problems})
	}

	subject := req.Subject
	if subject == "" {
		subject = "Contact form message"
	}

	if err := h.Sender.Send(req.Name, req.Email, subject, req.Message); err != nil {
		c.Logger().Errorf("mail send error: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to send message")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "sent"})
}
