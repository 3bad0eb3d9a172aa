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
	"github.com/okravets/coffeehouse/internal/util"
)

const blogPageSize = 6

type BlogHandler struct {
	DB        *gorm.DB
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *BlogHandler) publish(c echo.Context, topic string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, topic, fmt.Sprint(event["postID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

type postSummary struct {
	models.Post
	CommentsCount int64 `json:"comments_count"`
}

// GetPosts lists visible posts newest first, six per page, optionally
// filtered by category or tag.
func (h *BlogHandler) GetPosts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	offset, limit := util.Calculate(page, blogPageSize)

	query := h.DB.Model(&models.Post{}).Where("posts.is_visible = ?", true)

	if categoryParam := c.QueryParam("category"); categoryParam != "" {
		categoryID, err := strconv.Atoi(categoryParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid category")
		}
		query = query.Where("posts.category_id = ?", categoryID)
	}

	if tagParam := c.QueryParam("tag"); tagParam != "" {
		tagID, err := strconv.Atoi(tagParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid tag")
		}
		query = query.
			Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Where("post_tags.tag_id = ?", tagID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var posts []models.Post
	if err := query.
		Preload("Tags").
		Order("posts.date_posted DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items := make([]postSummary, 0, len(posts))
	for _, post := range posts {
		var count int64
		if err := h.DB.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		items = append(items, postSummary{Post: post, CommentsCount: count})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

type commentThread struct {
	models.Comment
	Replies []models.Comment `json:"replies"`
}

// GetPost returns the post with its top-level comments in posting order,
// each carrying its direct replies. Deeper chains are stored but not
// traversed.
func (h *BlogHandler) GetPost(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var post models.Post
	if err := h.DB.Preload("Tags").Where("is_visible = ?", true).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var comments []models.Comment
	if err := h.DB.
		Where("post_id = ?", post.ID).
		Order("date_posted ASC").
		Find(&comments).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	replies := make(map[uint][]models.Comment)
	var topLevel []models.Comment
	for _, comment := range comments {
		if comment.ParentID == nil {
			topLevel = append(topLevel, comment)
			continue
		}
		replies[*comment.ParentID] = append(replies[*comment.ParentID], comment)
	}

	threads := make([]commentThread, 0, len(topLevel))
	for _, comment := range topLevel {
		threads = append(threads, commentThread{Comment: comment, Replies: replies[comment.ID]})
	}

	var images []models.PostImage
	if err := h.DB.Where("post_id = ?", post.ID).Find(&images).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"post":     post,
		"images":   images,
		"comments": threads,
	})
}

// CreateComment accepts both commenter variants: anonymous callers supply
// author and email, authenticated callers are identified from the access
// cookie and any submitted name/email are ignored.
func (h *BlogHandler) CreateComment(c echo.Context) error {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var post models.Post
	if err := h.DB.Where("is_visible = ?", true).First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req struct {
		Content  string `json:"content"`
		Author   string `json:"author"`
		Email    string `json:"email"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if len(req.Content) < 4 {
		return echo.NewHTTPError(http.StatusBadRequest, "content is too short")
	}

	user, err := userFromAccessCookie(c, h.DB, h.JWTSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	author := req.Author
	email := req.Email
	if user != nil {
		author = user.Username
		email = user.Email
	} else {
		if author == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "author is required")
		}
		if !validEmail(email) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid email")
		}
	}

	if req.ParentID != nil {
		var parent models.Comment
		if err := h.DB.Where("id = ? AND post_id = ?", *req.ParentID, post.ID).First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "parent comment not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	comment := models.Comment{
		PostID:   post.ID,
		Content:  req.Content,
		Author:   author,
		Email:    email,
		ParentID: req.ParentID,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, "comment_events", map[string]any{
		"type":      "comment_created",
		"postID":    post.ID,
		"commentID": comment.ID,
		"author":    comment.Author,
	})

	return c.JSON(http.StatusCreated, comment)
}

// CreatePost is the admin write path; tags are matched by name and created
// when missing.
func (h *BlogHandler) CreatePost(c echo.Context) error {
	var req struct {
		Title      string   `json:"title"`
		Content    string   `json:"content"`
		CategoryID uint     `json:"category_id"`
		Tags       []string `json:"tags"`
		IsVisible  *bool    `json:"is_visible"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Title == "" || req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and content are required")
	}

	var category models.PostCategory
	if err := h.DB.First(&category, req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	authorID, _ := c.Get("userID").(uint)

	tags := make([]models.Tag, 0, len(req.Tags))
	for _, name := range req.Tags {
		var tag models.Tag
		if err := h.DB.Where("name = ?", name).FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		tags = append(tags, tag)
	}

	post := models.Post{
		Title:      req.Title,
		Content:    req.Content,
		AuthorID:   authorID,
		IsVisible:  true,
		CategoryID: req.CategoryID,
		Tags:       tags,
	}
	if req.IsVisible != nil {
		post.IsVisible = *req.IsVisible
	}

	if err := h.DB.Create(&post).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, "post_events", map[string]any{
		"type":   "post_created",
		"postID": post.ID,
		"title":  post.Title,
	})

	return c.JSON(http.StatusCreated, post)
}
