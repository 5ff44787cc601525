package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/app/service/catalog"
	"github.com/rhosegym/gymcore/internal/app/service/membership"
	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/internal/testutil"
	"github.com/rhosegym/gymcore/pkg/apperr"
	"github.com/rhosegym/gymcore/pkg/config"
	"github.com/rhosegym/gymcore/pkg/types"
)

// fakeOllama answers every chat request with a fixed reply and records the
// last request body.
type fakeOllama struct {
	reply    string
	lastReq  chatRequest
	requests int
}

func (f *fakeOllama) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.requests++
		_ = json.NewDecoder(r.Body).Decode(&f.lastReq)
		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: ChatMessage{Role: "assistant", Content: f.reply},
			Done:    true,
		})
	}
}

func newTestService(t *testing.T, baseURL string) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop().Sugar()
	cfg := &config.Config{
		Chatbot: config.ChatbotConfig{
			BaseURL:           baseURL,
			Model:             "llama3.2:1b",
			Temperature:       0.7,
			TimeoutSeconds:    5,
			HistoryTTLMinutes: 60,
			MaxHistoryTurns:   2,
		},
	}
	auditSvc := audit.NewService(log, db)
	catalogSvc := catalog.NewService(log, db, testutil.SetupTestCache(t), auditSvc)
	memberSvc := membership.NewService(log, db, auditSvc, catalogSvc)
	return NewService(cfg, log, db, testutil.SetupTestCache(t), auditSvc, catalogSvc, memberSvc), db
}

func TestChat(t *testing.T) {
	fake := &fakeOllama{reply: "We are open from 6am to 10pm."}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	svc, db := newTestService(t, srv.URL)
	ctx := context.Background()

	testutil.TestPlan(t, db, testutil.WithPlanPrice(150000))
	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	end := time.Now().AddDate(0, 0, 20)
	testutil.TestMembership(t, db, user.ID, plan.ID,
		testutil.WithMembershipStatus(types.MembershipStatusActive),
		testutil.WithMembershipDates(time.Now(), end))

	reply, err := svc.Chat(ctx, user, "What are your opening hours?")
	require.NoError(t, err)
	assert.Equal(t, "We are open from 6am to 10pm.", reply)

	// The model saw the settings and a grounded system prompt.
	assert.Equal(t, "llama3.2:1b", fake.lastReq.Model)
	assert.False(t, fake.lastReq.Stream)
	require.NotEmpty(t, fake.lastReq.Messages)
	assert.Equal(t, "system", fake.lastReq.Messages[0].Role)
	assert.Contains(t, fake.lastReq.Messages[0].Content, "active membership until")
	assert.Equal(t, "What are your opening hours?", fake.lastReq.Messages[len(fake.lastReq.Messages)-1].Content)
}

func TestChat_HistoryRoundTripAndTrim(t *testing.T) {
	fake := &fakeOllama{reply: "ok"}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	svc, db := newTestService(t, srv.URL)
	ctx := context.Background()
	user := testutil.TestUser(t, db)

	for _, q := range []string{"one", "two", "three"} {
		_, err := svc.Chat(ctx, user, q)
		require.NoError(t, err)
	}

	// MaxHistoryTurns is 2, so only the last two exchanges survive.
	history, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "two", history[0].Content)
	assert.Equal(t, "three", history[2].Content)

	// The third call carried the prior exchanges to the model.
	assert.Contains(t, fake.lastReq.Messages[1].Content, "two")

	require.NoError(t, svc.ResetHistory(ctx, user.ID))
	history, err = svc.History(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChat_FallbackWhenModelDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	svc, db := newTestService(t, srv.URL)
	user := testutil.TestUser(t, db)

	reply, err := svc.Chat(context.Background(), user, "hello")
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, reply)

	// A failed exchange leaves no history behind.
	history, err := svc.History(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChat_EmptyMessageRejected(t *testing.T) {
	svc, db := newTestService(t, "http://localhost:1")
	user := testutil.TestUser(t, db)

	_, err := svc.Chat(context.Background(), user, "   ")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestSettings_SeededFromConfig(t *testing.T) {
	svc, _ := newTestService(t, "http://localhost:1")
	ctx := context.Background()

	settings, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ChatbotSettingsID, settings.ID)
	assert.Equal(t, "llama3.2:1b", settings.Model)
	assert.InDelta(t, 0.7, settings.Temperature, 0.001)

	// Second load returns the same row, not a new seed.
	again, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.CreatedAt, again.CreatedAt)
}

func TestUpdateSettings(t *testing.T) {
	svc, db := newTestService(t, "http://localhost:1")
	ctx := context.Background()

	updated, err := svc.UpdateSettings(ctx, &SettingsRequest{
		Model:           "llama3.1:8b",
		Temperature:     0.2,
		MaxHistoryTurns: 6,
	}, "admin-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "llama3.1:8b", updated.Model)
	require.NotNil(t, updated.UpdatedBy)
	assert.Equal(t, "admin-1", *updated.UpdatedBy)

	var n int64
	require.NoError(t, db.Model(&models.AuditLogEntry{}).
		Where("action = ?", types.AuditActionSettingsChanged).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	tests := []struct {
		name string
		req  *SettingsRequest
	}{
		{"missing model", &SettingsRequest{Temperature: 0.5, MaxHistoryTurns: 4}},
		{"temperature out of range", &SettingsRequest{Model: "m", Temperature: 3, MaxHistoryTurns: 4}},
		{"zero turns", &SettingsRequest{Model: "m", Temperature: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateSettings(ctx, tt.req, "admin-1", nil)
			assert.True(t, errors.Is(err, apperr.ErrValidation), "want validation error, got %v", err)
		})
	}
}
