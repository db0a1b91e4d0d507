package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yoockh/careerguide/internal/models"
	"github.com/yoockh/careerguide/internal/rag"
	"github.com/yoockh/careerguide/internal/repositories"
	"github.com/yoockh/careerguide/internal/utils"
)

type ConversationService interface {
	Create(ctx context.Context, id, userID string) (*models.Conversation, error)
	// History returns the turns of a conversation oldest first. An unknown
	// conversation yields an empty list.
	History(ctx context.Context, conversationID string) ([]models.ConversationHistory, error)
	// Timeline returns the turns newest first and fails with NOT_FOUND for an
	// unknown conversation.
	Timeline(ctx context.Context, conversationID string) ([]models.ConversationHistory, error)
	ListIDs(ctx context.Context, userID string) ([]string, error)
	// References returns the first limit persisted references of one turn,
	// or all of them when limit is not positive.
	References(ctx context.Context, conversationID, historyID string, limit int) ([]models.Reference, error)
}

type conversationService struct {
	convos repositories.ConversationRepository
}

func NewConversationService(convos repositories.ConversationRepository) ConversationService {
	return &conversationService{convos: convos}
}

func (s *conversationService) Create(ctx context.Context, id, userID string) (*models.Conversation, error) {
	const op = "ConversationService.Create"

	id, userID = strings.TrimSpace(id), strings.TrimSpace(userID)
	if id == "" || userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id and uid are required", nil)
	}

	conv := &models.Conversation{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		History:   []models.ConversationHistory{},
	}
	if err := s.convos.Create(ctx, conv); err != nil {
		if errors.Is(err, utils.ErrAlreadyExists) {
			return nil, utils.E(utils.CodeConflict, op, "conversation already exists", err)
		}
		return nil, utils.E(utils.CodePersistence, op, "failed to create conversation", err)
	}
	return conv, nil
}

func (s *conversationService) History(ctx context.Context, conversationID string) ([]models.ConversationHistory, error) {
	const op = "ConversationService.History"

	if strings.TrimSpace(conversationID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}

	rows, err := s.convos.ListHistory(ctx, conversationID)
	if err != nil {
		return nil, utils.E(utils.CodePersistence, op, "failed to list history", err)
	}
	return rows, nil
}

func (s *conversationService) Timeline(ctx context.Context, conversationID string) ([]models.ConversationHistory, error) {
	const op = "ConversationService.Timeline"

	if strings.TrimSpace(conversationID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "conversationId is required", nil)
	}

	conv, err := s.convos.GetWithHistory(ctx, conversationID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "conversation not found", err)
		}
		return nil, utils.E(utils.CodePersistence, op, "failed to load conversation", err)
	}

	rows := slices.Clone(conv.History)
	slices.Reverse(rows)
	return rows, nil
}

func (s *conversationService) ListIDs(ctx context.Context, userID string) ([]string, error) {
	const op = "ConversationService.ListIDs"

	if strings.TrimSpace(userID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}

	ids, err := s.convos.ListIDsByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodePersistence, op, "failed to list conversations", err)
	}
	return ids, nil
}

func (s *conversationService) References(ctx context.Context, conversationID, historyID string, limit int) ([]models.Reference, error) {
	const op = "ConversationService.References"

	if strings.TrimSpace(conversationID) == "" || strings.TrimSpace(historyID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "conversation id and history id are required", nil)
	}
	// history ids are uuids; anything else cannot name a stored turn
	if _, err := uuid.Parse(historyID); err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "history entry not found", err)
	}

	entry, err := s.convos.GetHistoryEntry(ctx, conversationID, historyID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "history entry not found", err)
		}
		return nil, utils.E(utils.CodePersistence, op, "failed to load history entry", err)
	}
	return rag.DisplayReferences(entry.References, limit), nil
}
