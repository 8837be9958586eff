package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	mrand "math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giveaway-draw-bot/internal/common/ephemeral"
	"giveaway-draw-bot/internal/common/scheduler"
	"giveaway-draw-bot/internal/features/giveaway/models"
	"giveaway-draw-bot/internal/features/giveaway/registry"
	"giveaway-draw-bot/internal/features/giveaway/repository/memory"
	"giveaway-draw-bot/internal/features/giveaway/service"
	"giveaway-draw-bot/internal/platform/mproxy"
)

type stubProxy struct {
	members []models.Candidate
	sent    []string
	nextMsg int64
}

func (p *stubProxy) Me(ctx context.Context) (*models.Candidate, error) {
	return &models.Candidate{UserID: "999"}, nil
}

func (p *stubProxy) FetchMembers(ctx context.Context, channel string, limit, offset int) ([]models.Candidate, error) {
	return p.members, nil
}

func (p *stubProxy) FetchAllMembers(ctx context.Context, channel string, pageSize, hardMax int) ([]models.Candidate, error) {
	return p.members, nil
}

func (p *stubProxy) FetchAdmins(ctx context.Context, channel string) ([]models.Candidate, error) {
	return nil, nil
}

func (p *stubProxy) IsMember(ctx context.Context, target string) (bool, error) { return true, nil }
func (p *stubProxy) JoinTarget(ctx context.Context, target string) error       { return nil }

func (p *stubProxy) SendMessages(ctx context.Context, userIDs []string, text string) (*mproxy.SendResult, error) {
	p.sent = append(p.sent, userIDs...)
	return &mproxy.SendResult{Sent: len(userIDs), Total: len(userIDs)}, nil
}

func (p *stubProxy) PostMessage(ctx context.Context, channel, text, buttonText, buttonURL string) (int64, error) {
	p.nextMsg++
	return p.nextMsg, nil
}

func (p *stubProxy) EditButton(ctx context.Context, channel string, messageID int64, buttonText, buttonURL string) error {
	return nil
}

func newTestRouter(t *testing.T, proxy *stubProxy) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := ephemeral.NewStore(ephemeral.DefaultTTL)
	t.Cleanup(tokens.Stop)
	sched := scheduler.New()
	t.Cleanup(sched.Stop)

	svc := service.NewGiveawayService(
		proxy,
		registry.New(),
		memory.NewHistoryRepository(),
		tokens,
		sched,
		mrand.New(mrand.NewSource(7)),
		"drawbot",
	)

	router := gin.New()
	api := router.Group("/api/v1")
	NewGiveawayHandler(svc, nil).RegisterRoutes(api)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDrawEndpoint(t *testing.T) {
	proxy := &stubProxy{}
	for i := 0; i < 10; i++ {
		proxy.members = append(proxy.members, models.Candidate{UserID: fmt.Sprint(i), Username: fmt.Sprintf("user%d", i)})
	}
	router := newTestRouter(t, proxy)

	w := doJSON(t, router, http.MethodPost, "/api/v1/giveaways/draw", gin.H{
		"channel":       "@testers",
		"winners_count": 3,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Winners []models.Candidate `json:"winners"`
		Token   string             `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Winners, 3)
	assert.NotEmpty(t, resp.Token)
}

func TestDrawEndpoint_EmptyPool(t *testing.T) {
	router := newTestRouter(t, &stubProxy{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/giveaways/draw", gin.H{"channel": "@empty"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGiveawayLifecycleOverHTTP(t *testing.T) {
	proxy := &stubProxy{}
	router := newTestRouter(t, proxy)

	w := doJSON(t, router, http.MethodPost, "/api/v1/giveaways", gin.H{
		"channel":       "@testers",
		"text":          "win a prize",
		"winners_count": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	w = doJSON(t, router, http.MethodPost, "/api/v1/giveaways/"+created.ID+"/entries", models.Candidate{
		UserID:   "42",
		Username: "alice",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/giveaways/"+created.ID+"/entries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Entries []models.Candidate `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Entries, 1)

	w = doJSON(t, router, http.MethodPost, "/api/v1/giveaways/"+created.ID+"/finalize", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var finished struct {
		Winners []models.Candidate `json:"winners"`
		Entries int                `json:"entries"`
		Token   string             `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &finished))
	assert.Equal(t, 1, finished.Entries)
	require.Len(t, finished.Winners, 1)
	assert.Equal(t, "42", finished.Winners[0].UserID)

	// second finalize must be rejected
	w = doJSON(t, router, http.MethodPost, "/api/v1/giveaways/"+created.ID+"/finalize", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// winners can be messaged through the issued token
	w = doJSON(t, router, http.MethodPost, "/api/v1/winners/"+finished.Token+"/message", gin.H{"text": "you won"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"42"}, proxy.sent)

	// the run is recorded in channel history
	w = doJSON(t, router, http.MethodGet, "/api/v1/channels/@testers/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hist struct {
		Total   int64                  `json:"total"`
		Records []models.HistoryRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	assert.EqualValues(t, 1, hist.Total)
	require.Len(t, hist.Records, 1)
	assert.Equal(t, "win a prize", hist.Records[0].Text)
}

func TestRegisterEntry_UnknownGiveaway(t *testing.T) {
	router := newTestRouter(t, &stubProxy{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/giveaways/nope/entries", models.Candidate{UserID: "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageWinners_StaleToken(t *testing.T) {
	router := newTestRouter(t, &stubProxy{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/winners/deadbeef/message", gin.H{"text": "hi"})
	assert.Equal(t, http.StatusGone, w.Code)
}
