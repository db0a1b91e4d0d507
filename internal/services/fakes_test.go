package services

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/yoockh/careerguide/internal/models"
	"github.com/yoockh/careerguide/internal/utils"
)

type memDocs struct {
	mu       sync.Mutex
	docs     []models.Document
	listErr  error
	writeErr error
	deletes  int
	replaced int
}

func (m *memDocs) CreateMany(_ context.Context, docs []models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *memDocs) ListAll(context.Context) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return slices.Clone(m.docs), nil
}

func (m *memDocs) DeleteAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	m.docs = nil
	return nil
}

func (m *memDocs) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.docs)), nil
}

// ReplaceAll and ReplaceSources leave the set untouched on writeErr, like a
// rolled back transaction.
func (m *memDocs) ReplaceAll(_ context.Context, docs []models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.replaced++
	m.docs = slices.Clone(docs)
	return nil
}

func (m *memDocs) ReplaceSources(_ context.Context, sources []string, docs []models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.docs = slices.DeleteFunc(m.docs, func(d models.Document) bool {
		return slices.Contains(sources, d.Source)
	})
	m.docs = append(m.docs, docs...)
	return nil
}

type memConvos struct {
	mu      sync.Mutex
	convs   map[string]models.Conversation
	history map[string][]models.ConversationHistory
	writes  int
	failGet error
}

func newMemConvos() *memConvos {
	return &memConvos{
		convs:   map[string]models.Conversation{},
		history: map[string][]models.ConversationHistory{},
	}
}

func (m *memConvos) Create(_ context.Context, conv *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.convs[conv.ID]; ok {
		return utils.ErrAlreadyExists
	}
	m.writes++
	c := *conv
	c.History = nil
	m.convs[conv.ID] = c
	return nil
}

func (m *memConvos) CreateWithHistory(ctx context.Context, conv *models.Conversation, entry *models.ConversationHistory) error {
	if err := m.Create(ctx, conv); err != nil {
		return err
	}
	entry.ConversationID = conv.ID
	return m.AppendHistory(ctx, entry)
}

func (m *memConvos) GetWithHistory(_ context.Context, id string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	c, ok := m.convs[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	c.History = slices.Clone(m.history[id])
	return &c, nil
}

func (m *memConvos) AppendHistory(_ context.Context, entry *models.ConversationHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.convs[entry.ConversationID]; !ok {
		return errors.New("foreign key violation")
	}
	m.writes++
	m.history[entry.ConversationID] = append(m.history[entry.ConversationID], *entry)
	return nil
}

func (m *memConvos) ListHistory(_ context.Context, conversationID string) ([]models.ConversationHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history[conversationID]), nil
}

func (m *memConvos) GetHistoryEntry(_ context.Context, conversationID, historyID string) (*models.ConversationHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.history[conversationID] {
		if h.ID == historyID {
			return &h, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (m *memConvos) ListIDsByUser(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var convs []models.Conversation
	for _, c := range m.convs {
		if c.UserID == userID {
			convs = append(convs, c)
		}
	}
	slices.SortFunc(convs, func(a, b models.Conversation) int { return b.CreatedAt.Compare(a.CreatedAt) })
	ids := make([]string, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}
	return ids, nil
}

func (m *memConvos) entries(id string) []models.ConversationHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history[id])
}

type memRuns struct {
	mu   sync.Mutex
	runs []models.IngestionRun
}

func (m *memRuns) Create(_ context.Context, run *models.IngestionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memRuns) Finish(_ context.Context, run *models.IngestionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i] = *run
			return nil
		}
	}
	return utils.ErrNotFound
}

func (m *memRuns) Latest(context.Context) (*models.IngestionRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return nil, utils.ErrNotFound
	}
	r := m.runs[len(m.runs)-1]
	return &r, nil
}

// fakeEmbedder maps known texts to fixed vectors; anything else gets
// fallback.
type fakeEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
	texts    []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.texts = append(f.texts, texts...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = f.fallback
		}
	}
	return out, nil
}

type fakeGenerator struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "generated", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
