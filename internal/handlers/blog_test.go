package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/okravets/coffeehouse/internal/models"
)

func seedPost(t *testing.T, db *gorm.DB, title string, visible bool) models.Post {
	t.Helper()

	var category models.PostCategory
	err := db.Where("name = ?", "News").
		FirstOrCreate(&category, models.PostCategory{Name: "News"}).Error
	require.NoError(t, err)

	post := models.Post{
		Title:      title,
		Content:    "some content",
		AuthorID:   1,
		IsVisible:  visible,
		CategoryID: category.ID,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func seedComment(t *testing.T, db *gorm.DB, postID uint, content string, parentID *uint) models.Comment {
	t.Helper()
	comment := models.Comment{
		PostID:   postID,
		Content:  content,
		Author:   "Mykola",
		Email:    "mykola@example.com",
		ParentID: parentID,
	}
	require.NoError(t, db.Create(&comment).Error)
	return comment
}

func TestGetPostsSkipsHidden(t *testing.T) {
	db := InitTestDB(t)
	seedPost(t, db, "Visible post", true)
	seedPost(t, db, "Hidden post", false)

	h := &BlogHandler{DB: db}
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/blog", nil)
	require.NoError(t, h.GetPosts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []postSummary  `json:"data"`
		Meta map[string]any `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "Visible post", resp.Data[0].Title)
}

func TestGetPostsPagination(t *testing.T) {
	db := InitTestDB(t)
	for i := 0; i < 8; i++ {
		seedPost(t, db, fmt.Sprintf("Post %d", i), true)
	}

	h := &BlogHandler{DB: db}
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/blog", nil)
	require.NoError(t, h.GetPosts(c))

	var resp struct {
		Data []postSummary `json:"data"`
		Meta struct {
			Total      int64 `json:"total"`
			TotalPages int64 `json:"total_pages"`
			HasNext    bool  `json:"has_next"`
			HasPrev    bool  `json:"has_prev"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 6)
	require.Equal(t, int64(8), resp.Meta.Total)
	require.Equal(t, int64(2), resp.Meta.TotalPages)
	require.True(t, resp.Meta.HasNext)
	require.False(t, resp.Meta.HasPrev)

	rec, c = doJSONRequest(t, e, http.MethodGet, "/api/v1/blog?page=2", nil)
	require.NoError(t, h.GetPosts(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.False(t, resp.Meta.HasNext)
	require.True(t, resp.Meta.HasPrev)
}

func TestGetPostsCommentsCount(t *testing.T) {
	db := InitTestDB(t)
	post := seedPost(t, db, "Commented post", true)
	seedComment(t, db, post.ID, "first comment", nil)
	parent := seedComment(t, db, post.ID, "second comment", nil)
	seedComment(t, db, post.ID, "a reply", &parent.ID)

	h := &BlogHandler{DB: db}
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/blog", nil)
	require.NoError(t, h.GetPosts(c))

	var resp struct {
		Data []postSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, int64(3), resp.Data[0].CommentsCount)
}

func TestGetPostThreadsComments(t *testing.T) {
	db := InitTestDB(t)
	post := seedPost(t, db, "Threaded post", true)

	first := seedComment(t, db, post.ID, "first top-level", nil)
	second := seedComment(t, db, post.ID, "second top-level", nil)
	seedComment(t, db, post.ID, "reply to first", &first.ID)
	seedComment(t, db, post.ID, "another reply to first", &first.ID)

	// Force distinct timestamps so posting order is deterministic.
	require.NoError(t, db.Model(&models.Comment{}).Where("id = ?", first.ID).
		Update("date_posted", time.Now().Add(-2*time.Hour)).Error)
	require.NoError(t, db.Model(&models.Comment{}).Where("id = ?", second.ID).
		Update("date_posted", time.Now().Add(-time.Hour)).Error)

	h := &BlogHandler{DB: db}
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/blog/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetPost(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Comments []commentThread `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Comments, 2)
	require.Equal(t, "first top-level", resp.Comments[0].Content)
	require.Equal(t, "second top-level", resp.Comments[1].Content)
	require.Len(t, resp.Comments[0].Replies, 2)
	require.Empty(t, resp.Comments[1].Replies)

	for _, thread := range resp.Comments {
		require.Nil(t, thread.ParentID)
	}
}

func TestGetHiddenPostNotFound(t *testing.T) {
	db := InitTestDB(t)
	seedPost(t, db, "Hidden post", false)

	h := &BlogHandler{DB: db}
	e := echo.New()

	_, c := doJSONRequest(t, e, http.MethodGet, "/api/v1/blog/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.GetPost(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestCreateCommentAnonymous(t *testing.T) {
	db := InitTestDB(t)
	post := seedPost(t, db, "Open post", true)

	h := &BlogHandler{DB: db}
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/blog/1/comments", map[string]any{
		"content": "lovely place",
		"author":  "Ivan",
		"email":   "ivan@example.com",
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.CreateComment(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var comment models.Comment
	require.NoError(t, db.First(&comment).Error)
	require.Equal(t, post.ID, comment.PostID)
	require.Equal(t, "Ivan", comment.Author)
	require.Nil(t, comment.ParentID)
}

func TestCreateCommentAnonymousRequiresIdentity(t *testing.T) {
	db := InitTestDB(t)
	seedPost(t, db, "Open post", true)

	h := &BlogHandler{DB: db}
	e := echo.New()

	_, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/blog/1/comments", map[string]any{
		"content": "lovely place",
		"email":   "ivan@example.com",
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.CreateComment(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)

	_, c = doJSONRequest(t, e, http.MethodPost, "/api/v1/blog/1/comments", map[string]any{
		"content": "lovely place",
		"author":  "Ivan",
		"email":   "not-an-email",
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	err = h.CreateComment(c)
	he, ok = err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCreateCommentAuthenticatedOverridesIdentity(t *testing.T) {
	db := InitTestDB(t)
	seedPost(t, db, "Open post", true)

	user := models.User{Username: "oksana", Email: "oksana@example.com", PasswordHash: "x", Role: "user"}
	require.NoError(t, db.Create(&user).Error)

	jwtSecret := []byte("test-secret")
	h := &BlogHandler{DB: db, JWTSecret: jwtSecret}
	e := echo.New()

	accessToken := signTestAccessToken(t, user.ID, user.Role, jwtSecret)
	cookie := &http.Cookie{Name: "accessToken", Value: accessToken, Path: "/"}

	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/blog/1/comments", map[string]any{
		"content": "lovely place",
		"author":  "Impostor",
		"email":   "impostor@example.com",
	}, cookie)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.CreateComment(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var comment models.Comment
	require.NoError(t, db.First(&comment).Error)
	require.Equal(t, "oksana", comment.Author)
	require.Equal(t, "oksana@example.com", comment.Email)
}

func TestCreateCommentReplyDoesNotJoinTopLevel(t *testing.T) {
	db := InitTestDB(t)
	post := seedPost(t, db, "Open post", true)
	parent := seedComment(t, db, post.ID, "top-level comment", nil)

	h := &BlogHandler{DB: db}
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/blog/1/comments", map[string]any{
		"content":   "replying here",
		"author":    "Ivan",
		"email":     "ivan@example.com",
		"parent_id": parent.ID,
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.CreateComment(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, c = doJSONRequest(t, e, http.MethodGet, "/api/v1/blog/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetPost(c))

	var resp struct {
		Comments []commentThread `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Comments, 1)
	require.Equal(t, "top-level comment", resp.Comments[0].Content)
	require.Len(t, resp.Comments[0].Replies, 1)
	require.Equal(t, "replying here", resp.Comments[0].Replies[0].Content)
}

func TestCreateCommentParentOnOtherPost(t *testing.T) {
	db := InitTestDB(t)
	seedPost(t, db, "First post", true)
	other := seedPost(t, db, "Second post", true)
	foreign := seedComment(t, db, other.ID, "comment elsewhere", nil)

	h := &BlogHandler{DB: db}
	e := echo.New()

	_, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/blog/1/comments", map[string]any{
		"content":   "replying here",
		"author":    "Ivan",
		"email":     "ivan@example.com",
		"parent_id": foreign.ID,
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.CreateComment(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestCreateCommentTooShort(t *testing.T) {
	db := InitTestDB(t)
	seedPost(t, db, "Open post", true)

	h := &BlogHandler{DB: db}
	e := echo.New()

	_, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/blog/1/comments", map[string]any{
		"content": "ok",
		"author":  "Ivan",
		"email":   "ivan@example.com",
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.CreateComment(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCreatePostCreatesMissingTags(t *testing.T) {
	db := InitTestDB(t)

	var category models.PostCategory
	require.NoError(t, db.FirstOrCreate(&category, models.PostCategory{Name: "News"}).Error)
	require.NoError(t, db.Create(&models.Tag{Name: "coffee"}).Error)

	h := &BlogHandler{DB: db}
	e := echo.New()

	rec, c := doJSONRequest(t, e, http.MethodPost, "/api/v1/admin/posts", map[string]any{
		"title":       "New blend",
		"content":     "we roast it ourselves",
		"category_id": category.ID,
		"tags":        []string{"coffee", "roastery"},
	})
	require.NoError(t, h.CreatePost(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var tagCount int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tagCount).Error)
	require.Equal(t, int64(2), tagCount)

	var post models.Post
	require.NoError(t, db.Preload("Tags").First(&post).Error)
	require.Len(t, post.Tags, 2)
}
