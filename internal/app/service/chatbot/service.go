package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/app/service/catalog"
	"github.com/rhosegym/gymcore/internal/app/service/membership"
	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/internal/platform/cache"
	"github.com/rhosegym/gymcore/pkg/apperr"
	"github.com/rhosegym/gymcore/pkg/config"
	"github.com/rhosegym/gymcore/pkg/logctx"
	"github.com/rhosegym/gymcore/pkg/types"
)

// fallbackReply is returned whenever the model is unreachable. Chat never
// surfaces transport errors to the member.
const fallbackReply = "Sorry, I'm having trouble answering right now. Please ask our front desk staff, they'll be happy to help."

// Service is the member-facing support chatbot: an Ollama model behind a
// gym-specific system prompt, with per-user conversation history in Redis.
type Service struct {
	cfg        *config.Config
	log        *zap.SugaredLogger
	db         *gorm.DB
	cache      *cache.Cache
	ollama     *OllamaClient
	audit      *audit.Service
	catalog    *catalog.Service
	membership *membership.Service
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, db *gorm.DB, c *cache.Cache, auditSvc *audit.Service, catalogSvc *catalog.Service, memberSvc *membership.Service) *Service {
	return &Service{
		cfg:        cfg,
		log:        log,
		db:         db,
		cache:      c,
		ollama:     NewOllamaClient(cfg.Chatbot.BaseURL, cfg.Chatbot.Timeout()),
		audit:      auditSvc,
		catalog:    catalogSvc,
		membership: memberSvc,
	}
}

func historyKey(userID string) string {
	return "chatbot:history:" + userID
}

// Settings returns the stored settings row, seeding it from config defaults
// on first use.
func (s *Service) Settings(ctx context.Context) (*models.ChatbotSettings, error) {
	var settings models.ChatbotSettings
	err := s.db.WithContext(ctx).First(&settings, "id = ?", models.ChatbotSettingsID).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load chatbot settings: %w", err)
	}

	settings = models.ChatbotSettings{
		ID:              models.ChatbotSettingsID,
		Model:           s.cfg.Chatbot.Model,
		Temperature:     s.cfg.Chatbot.Temperature,
		MaxHistoryTurns: s.cfg.Chatbot.MaxHistoryTurns,
	}
	if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Seeded concurrently, load the winner.
			if lerr := s.db.WithContext(ctx).First(&settings, "id = ?", models.ChatbotSettingsID).Error; lerr == nil {
				return &settings, nil
			}
		}
		return nil, fmt.Errorf("failed to seed chatbot settings: %w", err)
	}
	return &settings, nil
}

type SettingsRequest struct {
	Model           string  `json:"model"`
	Temperature     float64 `json:"temperature"`
	MaxHistoryTurns int     `json:"max_history_turns"`
}

// UpdateSettings replaces the tunable fields. Admin operation.
func (s *Service) UpdateSettings(ctx context.Context, req *SettingsRequest, actorID string, meta *audit.RequestMeta) (*models.ChatbotSettings, error) {
	if req == nil || req.Model == "" {
		return nil, fmt.Errorf("%w: model is required", apperr.ErrValidation)
	}
	if req.Temperature < 0 || req.Temperature > 2 {
		return nil, fmt.Errorf("%w: temperature must be between 0 and 2, got %g", apperr.ErrValidation, req.Temperature)
	}
	if req.MaxHistoryTurns <= 0 {
		return nil, fmt.Errorf("%w: max_history_turns must be positive, got %d", apperr.ErrValidation, req.MaxHistoryTurns)
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	settings.Model = req.Model
	settings.Temperature = req.Temperature
	settings.MaxHistoryTurns = req.MaxHistoryTurns
	settings.UpdatedBy = &actorID
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, fmt.Errorf("failed to update chatbot settings: %w", err)
	}

	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionSettingsChanged,
		ActorID:     &actorID,
		Description: fmt.Sprintf("chatbot settings changed, model %q", settings.Model),
		Meta:        meta,
		EntityName:  models.ChatbotSettings{}.TableName(),
		EntityID:    settings.ID,
		Extra: map[string]any{
			"model":             settings.Model,
			"temperature":       settings.Temperature,
			"max_history_turns": settings.MaxHistoryTurns,
		},
	})
	return settings, nil
}

// Chat answers a member question. Model failures degrade to a canned reply
// so the endpoint never errors on transport problems.
func (s *Service) Chat(ctx context.Context, user *models.User, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", apperr.ErrValidation)
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return "", err
	}

	system, err := s.systemPrompt(ctx, user)
	if err != nil {
		return "", err
	}

	var history []ChatMessage
	if err := s.cache.Get(ctx, historyKey(user.ID), &history); err != nil {
		history = nil
	}

	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: "system", Content: system})
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: "user", Content: message})

	reply, err := s.ollama.Chat(ctx, settings.Model, settings.Temperature, messages)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("chatbot model call failed", "err", err)
		return fallbackReply, nil
	}

	history = append(history, ChatMessage{Role: "user", Content: message}, ChatMessage{Role: "assistant", Content: reply})
	if limit := settings.MaxHistoryTurns * 2; len(history) > limit {
		history = history[len(history)-limit:]
	}
	if err := s.cache.Set(ctx, historyKey(user.ID), history, s.cfg.Chatbot.HistoryTTL()); err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("failed to store chat history", "err", err)
	}
	return reply, nil
}

// History returns the stored conversation for the user, oldest first.
func (s *Service) History(ctx context.Context, userID string) ([]ChatMessage, error) {
	var history []ChatMessage
	if err := s.cache.Get(ctx, historyKey(userID), &history); err != nil {
		return nil, nil
	}
	return history, nil
}

// ResetHistory drops the stored conversation.
func (s *Service) ResetHistory(ctx context.Context, userID string) error {
	return s.cache.Delete(ctx, historyKey(userID))
}

// systemPrompt grounds the model in the live catalog and the member's own
// membership so answers stay on topic.
func (s *Service) systemPrompt(ctx context.Context, user *models.User) (string, error) {
	var b strings.Builder
	b.WriteString("You are the friendly assistant of a gym. Answer briefly and only about the gym, its plans, passes and the member's own membership.\n\nCurrent membership plans:\n")

	plans, err := s.catalog.ListActivePlans(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range plans {
		fmt.Fprintf(&b, "- %s: %d days, %.2f pesos\n", p.Name, p.DurationDays, float64(p.PriceCentavos)/100)
	}

	passes, err := s.catalog.ListActivePasses(ctx)
	if err != nil {
		return "", err
	}
	if len(passes) > 0 {
		b.WriteString("\nWalk-in passes:\n")
		for _, p := range passes {
			fmt.Fprintf(&b, "- %s: %.2f pesos\n", p.Name, float64(p.PriceCentavos)/100)
		}
	}

	current, err := s.membership.CurrentForUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	switch {
	case current == nil:
		fmt.Fprintf(&b, "\nThe member %s has no membership at the moment.\n", user.FullName)
	case current.Status == types.MembershipStatusPending:
		fmt.Fprintf(&b, "\nThe member %s has a pending membership awaiting payment confirmation.\n", user.FullName)
	case current.EndDate != nil:
		fmt.Fprintf(&b, "\nThe member %s has an active membership until %s.\n", user.FullName, current.EndDate.Format("January 2, 2006"))
	}
	return b.String(), nil
}
