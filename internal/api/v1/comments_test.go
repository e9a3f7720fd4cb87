package v1

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commentd/internal/comments"
	"commentd/internal/models"
	"commentd/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	lastListQ   comments.ListQuery
	listResult  *comments.ListResult
	listErr     error
	created     *models.Comment
	createErr   error
	lastText    string
	lastParent  *uuid.UUID
	lastFiles   []comments.AttachmentInput
	updated     *models.Comment
	updateErr   error
	lastUpdText *string
	deleteErr   error
	deletedID   uuid.UUID
}

func (m *mockService) List(ctx context.Context, q comments.ListQuery) (*comments.ListResult, error) {
	m.lastListQ = q
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.listResult != nil {
		return m.listResult, nil
	}
	return &comments.ListResult{Data: []models.Comment{}, Meta: comments.Meta{Page: 1}}, nil
}

func (m *mockService) Preview(text string) string {
	return strings.ToUpper(text)
}

func (m *mockService) Create(ctx context.Context, authorID uuid.UUID, text string, parentID *uuid.UUID, files []comments.AttachmentInput) (*models.Comment, error) {
	m.lastText = text
	m.lastParent = parentID
	m.lastFiles = files
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = &models.Comment{ID: uuid.New(), Text: text, AuthorID: authorID}
	return m.created, nil
}

func (m *mockService) Update(ctx context.Context, id, userID uuid.UUID, text *string, files []comments.AttachmentInput) (*models.Comment, error) {
	m.lastUpdText = text
	m.lastFiles = files
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updated = &models.Comment{ID: id, AuthorID: userID}
	return m.updated, nil
}

func (m *mockService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	m.deletedID = id
	return m.deleteErr
}

func newTestApp(svc CommentService, userID *uuid.UUID) *fiber.App {
	log := &logger.Logger{
		TimeFormat: time.RFC3339,
		Queue:      make(chan logger.LogEntry, 1000),
		Quit:       make(chan struct{}),
	}
	api := NewCommentsAPI(svc, log)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != nil {
			c.Locals("user_id", userID.String())
		}
		return c.Next()
	})
	app.Get("/comments", api.List)
	app.Post("/comments", api.Create)
	app.Post("/comments/preview", api.Preview)
	app.Patch("/comments/:id", api.Update)
	app.Delete("/comments/:id", api.Delete)
	return app
}

func decodeBody(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}

func TestListPassesQueryParamsThrough(t *testing.T) {
	svc := &mockService{}
	app := newTestApp(svc, nil)

	req := httptest.NewRequest("GET", "/comments?page=3&limit=25&sort=username&order=ASC&text=go&username=alice&email=a@b.c", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, comments.ListQuery{
		Page: 3, Limit: 25,
		Sort: "username", Order: "ASC",
		Text: "go", Username: "alice", Email: "a@b.c",
	}, svc.lastListQ)
}

func TestListIsPublic(t *testing.T) {
	svc := &mockService{listResult: &comments.ListResult{
		Data: []models.Comment{},
		Meta: comments.Meta{Total: 7, Page: 1, Pages: 1},
	}}
	app := newTestApp(svc, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/comments", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, float64(7), meta["total"])
}

func TestCreateRequiresAuthenticatedUser(t *testing.T) {
	app := newTestApp(&mockService{}, nil)

	req := httptest.NewRequest("POST", "/comments", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreateReturns201WithComment(t *testing.T) {
	svc := &mockService{}
	userID := uuid.New()
	app := newTestApp(svc, &userID)

	req := httptest.NewRequest("POST", "/comments", strings.NewReader(`{"text":"hello <strong>world</strong>"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "hello <strong>world</strong>", svc.lastText)
	assert.Nil(t, svc.lastParent)
}

func TestCreateParsesParentID(t *testing.T) {
	svc := &mockService{}
	userID := uuid.New()
	app := newTestApp(svc, &userID)
	parent := uuid.New()

	req := httptest.NewRequest("POST", "/comments",
		strings.NewReader(`{"text":"reply","parent_id":"`+parent.String()+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NotNil(t, svc.lastParent)
	assert.Equal(t, parent, *svc.lastParent)
}

func TestCreateRejectsMalformedParentID(t *testing.T) {
	svc := &mockService{}
	userID := uuid.New()
	app := newTestApp(svc, &userID)

	req := httptest.NewRequest("POST", "/comments", strings.NewReader(`{"text":"reply","parent_id":"not-a-uuid"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, svc.created, "service must not be reached")
}

func TestCreateRejectsUnknownFields(t *testing.T) {
	svc := &mockService{}
	userID := uuid.New()
	app := newTestApp(svc, &userID)

	req := httptest.NewRequest("POST", "/comments", strings.NewReader(`{"text":"hi","surprise":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateRejectsTooManyAttachments(t *testing.T) {
	svc := &mockService{}
	userID := uuid.New()
	app := newTestApp(svc, &userID)

	att := `{"filename":"f.png","mimetype":"image/png","storage_path":"/up/f.png"}`
	body := `{"text":"hi","attachments":[` + strings.Repeat(att+",", 5) + att + `]}`
	req := httptest.NewRequest("POST", "/comments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, svc.created)
}

func TestUpdateDistinguishesOmittedFromEmptyAttachments(t *testing.T) {
	userID := uuid.New()
	id := uuid.New()

	svc := &mockService{}
	app := newTestApp(svc, &userID)
	req := httptest.NewRequest("PATCH", "/comments/"+id.String(), strings.NewReader(`{"text":"edited"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, svc.lastFiles, "omitted attachments must stay nil")

	req = httptest.NewRequest("PATCH", "/comments/"+id.String(), strings.NewReader(`{"attachments":[]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, svc.lastFiles, "explicit empty list must clear attachments")
	assert.Empty(t, svc.lastFiles)
}

func TestUpdateRejectsMalformedID(t *testing.T) {
	userID := uuid.New()
	app := newTestApp(&mockService{}, &userID)

	req := httptest.NewRequest("PATCH", "/comments/nope", strings.NewReader(`{"text":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDeleteRespondsWithConfirmation(t *testing.T) {
	userID := uuid.New()
	id := uuid.New()
	svc := &mockService{}
	app := newTestApp(svc, &userID)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/comments/"+id.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, id, svc.deletedID)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "Comment successfully deleted", body["message"])
}

func TestPreviewReturnsSanitizedText(t *testing.T) {
	app := newTestApp(&mockService{}, nil)

	req := httptest.NewRequest("POST", "/comments/preview", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "HELLO", body["preview"])
}
