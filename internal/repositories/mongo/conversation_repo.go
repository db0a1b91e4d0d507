package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yoockh/careerguide/internal/models"
	"github.com/yoockh/careerguide/internal/repositories"
	"github.com/yoockh/careerguide/internal/utils"
)

const (
	ConversationsCollection = "conversations"
	HistoryCollection       = "conversation_histories"
)

type conversationRepo struct {
	conversations *mongo.Collection
	history       *mongo.Collection
}

func NewConversationRepo(db *mongo.Database) repositories.ConversationRepository {
	return &conversationRepo{
		conversations: db.Collection(ConversationsCollection),
		history:       db.Collection(HistoryCollection),
	}
}

func (r *conversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}
	_, err := r.conversations.InsertOne(ctx, conv)
	if mongo.IsDuplicateKeyError(err) {
		return utils.ErrAlreadyExists
	}
	return err
}

// CreateWithHistory removes the conversation again if the first turn cannot
// be stored, so no empty conversation is left behind.
func (r *conversationRepo) CreateWithHistory(ctx context.Context, conv *models.Conversation, entry *models.ConversationHistory) error {
	if err := r.Create(ctx, conv); err != nil {
		return err
	}
	entry.ConversationID = conv.ID
	if err := r.AppendHistory(ctx, entry); err != nil {
		_, _ = r.conversations.DeleteOne(context.WithoutCancel(ctx), bson.M{"_id": conv.ID})
		return err
	}
	return nil
}

func (r *conversationRepo) GetWithHistory(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	conv.History, err = r.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) AppendHistory(ctx context.Context, entry *models.ConversationHistory) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.history.InsertOne(ctx, entry)
	return err
}

func (r *conversationRepo) ListHistory(ctx context.Context, conversationID string) ([]models.ConversationHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.history.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.ConversationHistory
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conversationRepo) GetHistoryEntry(ctx context.Context, conversationID, historyID string) (*models.ConversationHistory, error) {
	var row models.ConversationHistory
	err := r.history.FindOne(ctx, bson.M{"_id": historyID, "conversation_id": conversationID}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *conversationRepo) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"_id": 1})
	cur, err := r.conversations.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}
