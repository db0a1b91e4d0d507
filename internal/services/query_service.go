package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/careerguide/internal/models"
	"github.com/yoockh/careerguide/internal/prompts"
	"github.com/yoockh/careerguide/internal/providers/embedding"
	"github.com/yoockh/careerguide/internal/providers/llm"
	"github.com/yoockh/careerguide/internal/rag"
	"github.com/yoockh/careerguide/internal/repositories"
	"github.com/yoockh/careerguide/internal/utils"
)

// RAGSettings tunes retrieval and follow-up handling.
type RAGSettings struct {
	FollowUp         rag.FollowUpPolicy
	TopK             int
	DisplayK         int
	PreviewLength    int
	Separator        string
	NoConversationID string
}

func DefaultRAGSettings() RAGSettings {
	return RAGSettings{
		FollowUp:         rag.DefaultFollowUpPolicy(),
		TopK:             10,
		DisplayK:         3,
		PreviewLength:    rag.DefaultPreviewLength,
		Separator:        rag.DefaultContextSeparator,
		NoConversationID: models.NoConversationID,
	}
}

type AskInput struct {
	Question string
	// ConversationID names the conversation a follow-up belongs to.
	ConversationID string
	// ClientID is the id the client proposes for a new conversation.
	ClientID   string
	IsFollowUp bool
	UserID     string
}

type AskResult struct {
	Answer         string             `json:"answer"`
	FollowUp       string             `json:"follow_up"`
	References     []models.Reference `json:"references"`
	DisplayCount   int                `json:"display_count"`
	ConversationID string             `json:"conversationId"`
	HistoryID      string             `json:"historyId"`
}

type QueryService interface {
	Ask(ctx context.Context, in AskInput) (*AskResult, error)
}

type queryService struct {
	docs     repositories.DocumentRepository
	convos   repositories.ConversationRepository
	embedder embedding.Embedder
	gen      llm.Generator
	settings RAGSettings
	log      *logrus.Logger
	now      func() time.Time
}

func NewQueryService(
	docs repositories.DocumentRepository,
	convos repositories.ConversationRepository,
	embedder embedding.Embedder,
	gen llm.Generator,
	settings RAGSettings,
	log *logrus.Logger,
) QueryService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &queryService{
		docs:     docs,
		convos:   convos,
		embedder: embedder,
		gen:      gen,
		settings: settings,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *queryService) Ask(ctx context.Context, in AskInput) (*AskResult, error) {
	const op = "QueryService.Ask"

	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "question is required", nil)
	}

	log := s.log.WithFields(logrus.Fields{
		"op":              op,
		"conversation_id": in.ConversationID,
		"is_follow_up":    in.IsFollowUp,
	})

	// 1) conversation resolution
	var (
		existing        *models.Conversation
		previousContext string
		priorFollowUp   string
	)
	if in.IsFollowUp && s.isConversationID(in.ConversationID) {
		conv, err := s.lookup(ctx, in.ConversationID)
		if err != nil {
			log.WithError(err).Error("conversation lookup failed")
			return nil, utils.E(utils.CodePersistence, op, "failed to load conversation", err)
		}
		if conv != nil {
			existing = conv
			if last, ok := rag.LatestEntry(conv.History); ok {
				previousContext = last.Context
				priorFollowUp = last.FollowUpQuestion
			}
		}
	}

	newID := s.newConversationID(in)
	if existing == nil && s.isConversationID(in.ClientID) {
		// a conversation opened through "new chat" already carries this id
		conv, err := s.lookup(ctx, in.ClientID)
		if err != nil {
			log.WithError(err).Error("conversation lookup failed")
			return nil, utils.E(utils.CodePersistence, op, "failed to load conversation", err)
		}
		existing = conv
	}

	if existing == nil && strings.TrimSpace(in.UserID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "userId is required to start a conversation", nil)
	}

	// 2) follow-up disambiguation
	effective := question
	if in.IsFollowUp && priorFollowUp != "" {
		vecs, err := s.embedder.Embed(ctx, []string{question, s.settings.FollowUp.Marked(priorFollowUp)})
		if err != nil || len(vecs) != 2 {
			log.WithError(err).Error("follow-up embedding failed")
			return nil, utils.E(utils.CodeUpstream, op, "embedding request failed", err)
		}
		sim := rag.CosineSimilarity(vecs[0], vecs[1])
		if s.settings.FollowUp.Substitute(question, sim) {
			effective = priorFollowUp
		}
		log.WithFields(logrus.Fields{"similarity": sim, "substituted": effective != question}).Debug("follow-up check")
	}

	// 3) retrieval
	queryVec, err := embedding.EmbedOne(ctx, s.embedder, effective)
	if err != nil {
		log.WithError(err).Error("question embedding failed")
		return nil, utils.E(utils.CodeUpstream, op, "embedding request failed", err)
	}

	docs, err := s.docs.ListAll(ctx)
	if err != nil {
		log.WithError(err).Error("document listing failed")
		return nil, utils.E(utils.CodePersistence, op, "failed to load documents", err)
	}
	if len(docs) == 0 {
		return nil, utils.E(utils.CodeNoDocuments, op, "no documents found", nil)
	}

	top := rag.TopK(queryVec, docs, models.Document.Vector, s.settings.TopK)
	chunks := make([]string, len(top))
	for i, d := range top {
		chunks[i] = d.Item.Content
	}

	prev := ""
	if in.IsFollowUp {
		prev = previousContext
	}
	contextText := rag.BuildContext(prev, chunks, s.settings.Separator)

	// 4) references
	refs := rag.BuildReferences(chunks, s.settings.PreviewLength)

	// 5) answer
	answerPrompt, err := prompts.RenderAnswerPrompt(contextText, effective)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to render prompt", err)
	}
	answer, err := s.gen.Generate(ctx, answerPrompt)
	if err != nil {
		log.WithError(err).Error("answer generation failed")
		return nil, utils.E(utils.CodeUpstream, op, "answer generation failed", err)
	}

	// 6) follow-up question
	followUpPrompt, err := prompts.RenderFollowUpPrompt(rag.ReferencesText(refs), effective)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to render prompt", err)
	}
	followUp, err := s.gen.Generate(ctx, followUpPrompt)
	if err != nil {
		log.WithError(err).Error("follow-up generation failed")
		return nil, utils.E(utils.CodeUpstream, op, "follow-up generation failed", err)
	}

	// 7) persistence
	entry := &models.ConversationHistory{
		ID:               uuid.NewString(),
		Question:         question,
		Answer:           strings.TrimSpace(answer),
		Context:          contextText,
		FollowUpQuestion: strings.TrimSpace(followUp),
		References:       refs,
		CreatedAt:        s.now(),
	}

	if existing != nil {
		entry.ConversationID = existing.ID
		err = s.convos.AppendHistory(ctx, entry)
	} else {
		conv := &models.Conversation{ID: newID, UserID: strings.TrimSpace(in.UserID), CreatedAt: entry.CreatedAt}
		entry.ConversationID = conv.ID
		err = s.convos.CreateWithHistory(ctx, conv, entry)
	}
	if err != nil {
		log.WithError(err).Error("history persistence failed")
		return nil, utils.E(utils.CodePersistence, op, "failed to save conversation", err)
	}

	return &AskResult{
		Answer:         entry.Answer,
		FollowUp:       entry.FollowUpQuestion,
		References:     refs,
		DisplayCount:   len(rag.DisplayReferences(refs, s.settings.DisplayK)),
		ConversationID: entry.ConversationID,
		HistoryID:      entry.ID,
	}, nil
}

// lookup returns nil without error when the conversation does not exist.
func (s *queryService) lookup(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := s.convos.GetWithHistory(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, nil
	}
	return conv, err
}

func (s *queryService) isConversationID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != s.settings.NoConversationID
}

func (s *queryService) newConversationID(in AskInput) string {
	switch {
	case s.isConversationID(in.ClientID):
		return strings.TrimSpace(in.ClientID)
	case s.isConversationID(in.ConversationID):
		return strings.TrimSpace(in.ConversationID)
	default:
		return uuid.NewString()
	}
}
