package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/careerguide/internal/api/handlers"
	"github.com/yoockh/careerguide/internal/api/middleware"
	"github.com/yoockh/careerguide/internal/extract"
	"github.com/yoockh/careerguide/internal/logger"
	"github.com/yoockh/careerguide/internal/models"
	"github.com/yoockh/careerguide/internal/services"
)

type stubQuery struct{}

func (stubQuery) Ask(_ context.Context, in services.AskInput) (*services.AskResult, error) {
	return &services.AskResult{Answer: "ok:" + in.Question, ConversationID: in.ClientID}, nil
}

type stubConversations struct{}

func (stubConversations) Create(_ context.Context, id, userID string) (*models.Conversation, error) {
	return &models.Conversation{ID: id, UserID: userID}, nil
}

func (stubConversations) History(context.Context, string) ([]models.ConversationHistory, error) {
	return nil, nil
}

func (stubConversations) Timeline(context.Context, string) ([]models.ConversationHistory, error) {
	return []models.ConversationHistory{{ID: "h1"}}, nil
}

func (stubConversations) ListIDs(context.Context, string) ([]string, error) { return []string{"c1"}, nil }

func (stubConversations) References(context.Context, string, string, int) ([]models.Reference, error) {
	return []models.Reference{{ReferenceNumber: 1, Preview: "p"}}, nil
}

type stubIngestion struct{}

func (stubIngestion) Ingest(_ context.Context, kind extract.Kind, _ services.IngestOptions) (*models.IngestionRun, error) {
	return &models.IngestionRun{ID: "run-1", Kind: string(kind), Status: models.IngestionDone}, nil
}

func (stubIngestion) Latest(context.Context) (*models.IngestionRun, error) {
	return &models.IngestionRun{ID: "run-1"}, nil
}

func (stubIngestion) DocumentCount(context.Context) (int64, error) { return 3, nil }

func newEngine(auth middleware.JWTConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, Deps{
		Query:          handlers.NewQueryHandler(stubQuery{}),
		Conversation:   handlers.NewConversationHandler(stubConversations{}),
		Ingest:         handlers.NewIngestHandler(stubIngestion{}, nil),
		WS:             handlers.NewChatWSHandler(stubQuery{}, nil, time.Second, logger.Discard()),
		Auth:           auth,
		RequestTimeout: time.Second,
	})
	return r
}

func serve(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, secret, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["app_metadata"] = map[string]any{"role": role}
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestRoutes_MountedAtRootAndFile(t *testing.T) {
	r := newEngine(middleware.JWTConfig{})

	for _, prefix := range []string{"", "/file"} {
		w := serve(r, http.MethodPost, prefix+"/query", `{"question":"hi","id":"c1","userId":"u1"}`, "")
		assert.Equal(t, http.StatusOK, w.Code, prefix)
		assert.Contains(t, w.Body.String(), `"answer":"ok:hi"`)

		assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, prefix+"/createConversation", `{"id":"c1","uid":"u1"}`, "").Code)
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, prefix+"/conversationHistory", `{"id":"c1"}`, "").Code)
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, prefix+"/history", `{"conversationId":"c1"}`, "").Code)
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, prefix+"/conversationsh", `{"id":"u1"}`, "").Code)
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, prefix+"/conversation/c1/references/h1?limit=1", "", "").Code)
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, prefix+"/pdf", "", "").Code)
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, prefix+"/csv", "", "").Code)
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, prefix+"/ingest/latest", "", "").Code)
		assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodGet, prefix+"/ingest/jobs/j1", "", "").Code)
	}

	w := serve(r, http.MethodGet, "/ping", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestRoutes_AuthEnabled(t *testing.T) {
	const secret = "s3cret"
	r := newEngine(middleware.JWTConfig{Secret: secret})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/query", `{"question":"hi"}`, "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/file/query", `{"question":"hi"}`, token(t, secret, "")).Code)

	// ingestion is admin only
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/pdf", "", token(t, secret, "")).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/pdf", "", token(t, secret, "admin")).Code)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping", "", "").Code)
}
