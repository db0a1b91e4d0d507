package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yoockh/careerguide/internal/extract"
	"github.com/yoockh/careerguide/internal/models"
	"github.com/yoockh/careerguide/internal/providers/embedding"
	"github.com/yoockh/careerguide/internal/rag"
	"github.com/yoockh/careerguide/internal/repositories"
	"github.com/yoockh/careerguide/internal/storage"
	"github.com/yoockh/careerguide/internal/utils"
)

type IngestionSettings struct {
	// Sources per kind; an empty list means every object with the kind's
	// extension.
	Sources    map[extract.Kind][]string
	Dimensions int
	BatchSize  int
	Workers    int
	// RPS bounds embedding calls per second; zero disables the limit.
	RPS float64
}

type IngestOptions struct {
	// Merge replaces only the documents of the ingested sources and keeps
	// the rest. By default the whole document set is replaced.
	Merge bool
}

type IngestionService interface {
	Ingest(ctx context.Context, kind extract.Kind, opts IngestOptions) (*models.IngestionRun, error)
	Latest(ctx context.Context) (*models.IngestionRun, error)
	DocumentCount(ctx context.Context) (int64, error)
}

type ingestionService struct {
	source   storage.Source
	chunker  *rag.Chunker
	embedder embedding.Embedder
	docs     repositories.DocumentRepository
	runs     repositories.IngestionRunRepository
	settings IngestionSettings
	limiter  *rate.Limiter
	log      *logrus.Logger
}

func NewIngestionService(
	source storage.Source,
	chunker *rag.Chunker,
	embedder embedding.Embedder,
	docs repositories.DocumentRepository,
	runs repositories.IngestionRunRepository,
	settings IngestionSettings,
	log *logrus.Logger,
) IngestionService {
	if settings.Dimensions <= 0 {
		settings.Dimensions = embedding.DefaultDimensions
	}
	if settings.BatchSize <= 0 {
		settings.BatchSize = 5
	}
	if settings.Workers <= 0 {
		settings.Workers = 2
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if settings.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.RPS), 1)
	}

	return &ingestionService{
		source:   source,
		chunker:  chunker,
		embedder: embedder,
		docs:     docs,
		runs:     runs,
		settings: settings,
		limiter:  limiter,
		log:      log,
	}
}

type sourcedChunk struct {
	source string
	chunk  rag.Chunk
}

func (s *ingestionService) Ingest(ctx context.Context, kind extract.Kind, opts IngestOptions) (*models.IngestionRun, error) {
	const op = "IngestionService.Ingest"

	if kind != extract.KindPDF && kind != extract.KindCSV {
		return nil, utils.E(utils.CodeInvalidArgument, op, "unsupported source kind", nil)
	}

	log := s.log.WithFields(logrus.Fields{"op": op, "kind": kind, "location": s.source.Location()})

	names, err := s.sourceNames(ctx, kind)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to list sources", err)
	}
	if len(names) == 0 {
		return nil, utils.E(utils.CodeNotFound, op, fmt.Sprintf("no %s sources found", kind), nil)
	}

	run := &models.IngestionRun{
		ID:        uuid.NewString(),
		Kind:      string(kind),
		Sources:   names,
		Status:    models.IngestionRunning,
		StartedAt: time.Now().UTC(),
	}
	if s.runs != nil {
		if err := s.runs.Create(ctx, run); err != nil {
			return nil, utils.E(utils.CodePersistence, op, "failed to record ingestion run", err)
		}
	}

	n, err := s.ingest(ctx, kind, names, opts)
	s.finish(ctx, run, n, err)
	if err != nil {
		log.WithError(err).Error("ingestion failed")
		return run, err
	}

	log.WithFields(logrus.Fields{"run_id": run.ID, "chunks": n, "sources": len(names)}).Info("ingestion done")
	return run, nil
}

func (s *ingestionService) ingest(ctx context.Context, kind extract.Kind, names []string, opts IngestOptions) (int, error) {
	const op = "IngestionService.Ingest"

	var chunks []sourcedChunk
	for _, name := range names {
		data, err := s.source.Read(ctx, name)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				return 0, utils.E(utils.CodeNotFound, op, "file not found: "+name, err)
			}
			return 0, utils.E(utils.CodeUnavailable, op, "failed to read "+name, err)
		}

		text, err := extract.Text(kind, name, data)
		if err != nil {
			return 0, utils.E(utils.CodeInvalidArgument, op, name+" has no readable text", err)
		}

		for c := range s.chunker.Chunks(text) {
			chunks = append(chunks, sourcedChunk{source: name, chunk: c})
		}
	}
	if len(chunks) == 0 {
		return 0, utils.E(utils.CodeInvalidArgument, op, "sources produced no chunks", nil)
	}

	vecs, err := s.embedAll(ctx, chunks)
	if err != nil {
		return 0, utils.E(utils.CodeUpstream, op, "embedding request failed", err)
	}
	if err := embedding.CheckDimensions(vecs, s.settings.Dimensions); err != nil {
		return 0, utils.E(utils.CodeUpstream, op, "embedding has unexpected dimensions", err)
	}

	now := time.Now().UTC()
	docs := make([]models.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = models.Document{
			ID:        uuid.NewString(),
			Source:    c.source,
			Topic:     c.chunk.Topic,
			Position:  i,
			Content:   c.chunk.Content,
			Embedding: pgvector.NewVector(vecs[i]),
			CreatedAt: now,
		}
	}

	store := s.docs.ReplaceAll
	if opts.Merge {
		store = func(ctx context.Context, docs []models.Document) error {
			return s.docs.ReplaceSources(ctx, names, docs)
		}
	}
	if err := store(ctx, docs); err != nil {
		return 0, utils.E(utils.CodePersistence, op, "failed to store documents", err)
	}
	return len(docs), nil
}

// embedAll embeds chunks in batches across a bounded set of goroutines,
// keeping input order.
func (s *ingestionService) embedAll(ctx context.Context, chunks []sourcedChunk) ([][]float32, error) {
	out := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Workers)

	for start := 0; start < len(chunks); start += s.settings.BatchSize {
		end := min(start+s.settings.BatchSize, len(chunks))
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}
			texts := make([]string, 0, end-start)
			for _, c := range chunks[start:end] {
				texts = append(texts, c.chunk.Content)
			}
			vecs, err := s.embedder.Embed(gctx, texts)
			if err != nil {
				return err
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("expected %d vectors, got %d", len(texts), len(vecs))
			}
			copy(out[start:end], vecs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ingestionService) sourceNames(ctx context.Context, kind extract.Kind) ([]string, error) {
	if names := s.settings.Sources[kind]; len(names) > 0 {
		return names, nil
	}
	return s.source.List(ctx, kind.Ext())
}

func (s *ingestionService) finish(ctx context.Context, run *models.IngestionRun, chunks int, ingestErr error) {
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.ChunkCount = chunks
	run.Status = models.IngestionDone
	if ingestErr != nil {
		run.Status = models.IngestionFailed
		run.Error = ingestErr.Error()
	}
	if s.runs == nil {
		return
	}
	if err := s.runs.Finish(context.WithoutCancel(ctx), run); err != nil {
		s.log.WithError(err).WithField("run_id", run.ID).Warn("failed to record ingestion result")
	}
}

func (s *ingestionService) Latest(ctx context.Context) (*models.IngestionRun, error) {
	const op = "IngestionService.Latest"

	if s.runs == nil {
		return nil, utils.E(utils.CodeNotFound, op, "no ingestion runs recorded", nil)
	}
	run, err := s.runs.Latest(ctx)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "no ingestion runs recorded", err)
		}
		return nil, utils.E(utils.CodePersistence, op, "failed to load ingestion run", err)
	}
	return run, nil
}

func (s *ingestionService) DocumentCount(ctx context.Context) (int64, error) {
	const op = "IngestionService.DocumentCount"

	n, err := s.docs.Count(ctx)
	if err != nil {
		return 0, utils.E(utils.CodePersistence, op, "failed to count documents", err)
	}
	return n, nil
}
