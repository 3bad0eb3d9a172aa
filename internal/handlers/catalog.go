package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okravets/coffeehouse/internal/models"
	"github.com/okravets/coffeehouse/internal/mykafka"
	"github.com/okravets/coffeehouse/internal/service/search"
)

type CatalogHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *CatalogHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "dish_events", fmt.Sprint(event["dishID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CatalogHandler) indexDish(c echo.Context, dish models.Dish) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexDish(ctx, h.ES, h.Index, dish); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

// GetMenu returns visible categories in display order, each with its
// visible dishes in display order.
func (h *CatalogHandler) GetMenu(c echo.Context) error {
	var categories []models.DishCategory
	err := h.DB.
		Where("is_visible = ?", true).
		Order(`"order" ASC`).
		Preload("Dishes", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_visible = ?", true).Order(`"order" ASC`)
		}).
		Find(&categories).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, categories)
}

func (h *CatalogHandler) GetDish(c echo.Context) error {
	slug := c.Param("slug")

	var dish models.Dish
	if err := h.DB.Where("slug = ? AND is_visible = ?", slug, true).First(&dish).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "dish not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dish)
}

func (h *CatalogHandler) GetGallery(c echo.Context) error {
	var images []models.Gallery
	if err := h.DB.Where("is_visible = ?", true).Find(&images).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, images)
}

func (h *CatalogHandler) GetMenuItems(c echo.Context) error {
	var items []models.MainMenuItem
	if err := h.DB.Where("is_visible = ?", true).Order(`"order" ASC`).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

type dishRequest struct {
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Photo       string          `json:"photo"`
	IsVisible   *bool           `json:"is_visible"`
	Order       uint            `json:"order"`
	CategoryID  uint            `json:"category_id"`
}

func (h *CatalogHandler) CreateDish(c echo.Context) error {
	var req dishRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Name == "" || req.Slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and slug are required")
	}
	if req.Price.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "price must not be negative")
	}

	var category models.DishCategory
	if err := h.DB.First(&category, req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	dish := models.Dish{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Photo:       req.Photo,
		IsVisible:   true,
		Order:       req.Order,
		CategoryID:  req.CategoryID,
	}
	if req.IsVisible != nil {
		dish.IsVisible = *req.IsVisible
	}

	if err := h.DB.Create(&dish).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.indexDish(c, dish)
	h.publish(c, map[string]any{
		"type":   "dish_created",
		"dishID": dish.ID,
		"name":   dish.Name,
	})

	return c.JSON(http.StatusCreated, dish)
}

func (h *CatalogHandler) PatchDish(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var dish models.Dish
	if err := h.DB.First(&dish, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "dish not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req dishRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Price.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "price must not be negative")
	}

	// The slug is the dish's public identifier; edits never change it.
	if req.Name != "" {
		dish.Name = req.Name
	}
	if req.Description != "" {
		dish.Description = req.Description
	}
	if !req.Price.IsZero() {
		dish.Price = req.Price
	}
	if req.Photo != "" {
		dish.Photo = req.Photo
	}
	if req.IsVisible != nil {
		dish.IsVisible = *req.IsVisible
	}
	if req.Order != 0 {
		dish.Order = req.Order
	}
	if req.CategoryID != 0 {
		dish.CategoryID = req.CategoryID
	}

	if err := h.DB.Save(&dish).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.indexDish(c, dish)
	h.publish(c, map[string]any{
		"type":   "dish_updated",
		"dishID": dish.ID,
		"name":   dish.Name,
	})

	return c.JSON(http.StatusOK, dish)
}

func (h *CatalogHandler) DeleteDish(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.DB.Delete(&models.Dish{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteDish(ctx, h.ES, h.Index, uint(id)); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}
	h.publish(c, map[string]any{
		"type":   "dish_deleted",
		"dishID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var req struct {
		Name      string `json:"name"`
		Order     uint   `json:"order"`
		IsVisible *bool  `json:"is_visible"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	category := models.DishCategory{Name: req.Name, Order: req.Order, IsVisible: true}
	if req.IsVisible != nil {
		category.IsVisible = *req.IsVisible
	}

	if err := h.DB.Create(&category).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) PatchCategory(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var category models.DishCategory
	if err := h.DB.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req struct {
		Name      string `json:"name"`
		Order     *uint  `json:"order"`
		IsVisible *bool  `json:"is_visible"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Name != "" {
		category.Name = req.Name
	}
	if req.Order != nil {
		category.Order = *req.Order
	}
	if req.IsVisible != nil {
		category.IsVisible = *req.IsVisible
	}

	if err := h.DB.Save(&category).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var count int64
	if err := h.DB.Model(&models.Dish{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if count > 0 {
		return echo.NewHTTPError(http.StatusConflict, "category still has dishes")
	}

	if err := h.DB.Delete(&models.DishCategory{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) CreateGalleryImage(c echo.Context) error {
	var req struct {
		Photo     string `json:"photo"`
		Title     string `json:"title"`
		IsVisible *bool  `json:"is_visible"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Photo == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "photo is required")
	}

	image := models.Gallery{Photo: req.Photo, Title: req.Title, IsVisible: true}
	if req.IsVisible != nil {
		image.IsVisible = *req.IsVisible
	}

	if err := h.DB.Create(&image).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, image)
}

func (h *CatalogHandler) CreateMenuItem(c echo.Context) error {
	var req struct {
		Title         string `json:"title"`
		Slug          string `json:"slug"`
		URL           string `json:"url"`
		IsAnchor      bool   `json:"is_anchor"`
		IsManagerOnly bool   `json:"is_manager_only"`
		IsVisible     *bool  `json:"is_visible"`
		Order         uint   `json:"order"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Title == "" || req.Slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and slug are required")
	}

	item := models.MainMenuItem{
		Title:         req.Title,
		Slug:          req.Slug,
		URL:           req.URL,
		IsAnchor:      req.IsAnchor,
		IsManagerOnly: req.IsManagerOnly,
		IsVisible:     true,
		Order:         req.Order,
	}
	if req.IsVisible != nil {
		item.IsVisible = *req.IsVisible
	}

	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, item)
}
