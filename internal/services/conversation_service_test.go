package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/careerguide/internal/models"
	"github.com/yoockh/careerguide/internal/utils"
)

func TestConversationService_Create(t *testing.T) {
	convos := newMemConvos()
	svc := NewConversationService(convos)
	ctx := context.Background()

	conv, err := svc.Create(ctx, "conv-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", conv.ID)
	assert.Equal(t, "user-1", conv.UserID)
	assert.False(t, conv.CreatedAt.IsZero())

	_, err = svc.Create(ctx, "conv-1", "user-1")
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
	assert.Equal(t, 409, utils.HTTPStatus(err))

	_, err = svc.Create(ctx, "", "user-1")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	_, err = svc.Create(ctx, "conv-2", " ")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func seedHistory(t *testing.T, convos *memConvos, convID string, n int) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, convos.Create(ctx, &models.Conversation{ID: convID, UserID: "user-1", CreatedAt: base}))
	for i := 0; i < n; i++ {
		require.NoError(t, convos.AppendHistory(ctx, &models.ConversationHistory{
			ID:             string(rune('a' + i)),
			ConversationID: convID,
			Question:       "q" + string(rune('a'+i)),
			References: []models.Reference{
				{ReferenceNumber: 1, Preview: "one..."},
				{ReferenceNumber: 2, Preview: "two..."},
				{ReferenceNumber: 3, Preview: "three..."},
				{ReferenceNumber: 4, Preview: "four..."},
			},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestConversationService_HistoryAndTimeline(t *testing.T) {
	convos := newMemConvos()
	seedHistory(t, convos, "conv-1", 3)
	svc := NewConversationService(convos)
	ctx := context.Background()

	asc, err := svc.History(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{asc[0].ID, asc[1].ID, asc[2].ID})

	desc, err := svc.Timeline(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, "c", desc[0].ID)

	empty, err := svc.History(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.Timeline(ctx, "unknown")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	_, err = svc.History(ctx, "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestConversationService_ListIDs(t *testing.T) {
	convos := newMemConvos()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, convos.Create(ctx, &models.Conversation{ID: "old", UserID: "user-1", CreatedAt: base}))
	require.NoError(t, convos.Create(ctx, &models.Conversation{ID: "new", UserID: "user-1", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, convos.Create(ctx, &models.Conversation{ID: "other", UserID: "user-2", CreatedAt: base}))
	svc := NewConversationService(convos)

	ids, err := svc.ListIDs(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, ids)

	ids, err = svc.ListIDs(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestConversationService_ReferencesArePersistedPrefix(t *testing.T) {
	convos := newMemConvos()
	seedHistory(t, convos, "conv-1", 0)
	svc := NewConversationService(convos)
	ctx := context.Background()

	entryID := uuid.NewString()
	require.NoError(t, convos.AppendHistory(ctx, &models.ConversationHistory{
		ID:             entryID,
		ConversationID: "conv-1",
		Question:       "which stream suits me?",
		References: []models.Reference{
			{ReferenceNumber: 1, Preview: "one..."},
			{ReferenceNumber: 2, Preview: "two..."},
			{ReferenceNumber: 3, Preview: "three..."},
			{ReferenceNumber: 4, Preview: "four..."},
		},
		CreatedAt: time.Now().UTC(),
	}))

	refs, err := svc.References(ctx, "conv-1", entryID, 3)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "three...", refs[2].Preview)

	all, err := svc.References(ctx, "conv-1", entryID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, refs, all[:3])

	_, err = svc.References(ctx, "conv-1", uuid.NewString(), 3)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestConversationService_ReferencesRejectsMalformedHistoryID(t *testing.T) {
	convos := newMemConvos()
	seedHistory(t, convos, "conv-1", 1)
	svc := NewConversationService(convos)

	// "a" exists in the fake store but could never be a stored postgres id
	_, err := svc.References(context.Background(), "conv-1", "a", 3)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	assert.Equal(t, 404, utils.HTTPStatus(err))

	_, err = svc.References(context.Background(), "conv-1", "not-a-uuid", 0)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}
