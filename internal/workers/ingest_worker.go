package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/careerguide/internal/extract"
	"github.com/yoockh/careerguide/internal/services"
)

type IngestWorkerPool struct {
	Redis      *redis.Client
	Queue      *IngestQueue
	Ingestion  services.IngestionService
	NumWorkers int

	Logger *logrus.Logger

	Group          string
	ConsumerPrefix string
}

func (p *IngestWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Queue == nil || p.Ingestion == nil {
		return errors.New("IngestWorkerPool missing dependency: Redis/Queue/Ingestion must be set")
	}
	if p.Queue.Stream == "" {
		p.Queue.Stream = DefaultIngestStream
	}
	if p.Group == "" {
		p.Group = DefaultIngestGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 1
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Queue.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *IngestWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Queue.Stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Queue.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *IngestWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	jobID := getStr("job_id")
	kind := extract.Kind(getStr("kind"))
	if jobID == "" || kind == "" {
		return
	}
	merge, _ := strconv.ParseBool(getStr("merge"))

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"job_id":   jobID,
		"kind":     kind,
	})

	job, err := p.Queue.Status(ctx, jobID)
	if err != nil {
		// status expired or never written; rebuild from the message
		job = &IngestJob{ID: jobID, Kind: kind, Merge: merge, EnqueuedAt: time.Now().UTC()}
	}

	job.Status = JobRunning
	job.UpdatedAt = time.Now().UTC()
	if err := p.Queue.save(ctx, job); err != nil {
		log.WithError(err).Warn("failed to mark job running")
	}

	run, err := p.Ingestion.Ingest(ctx, kind, services.IngestOptions{Merge: merge})
	if run != nil {
		job.RunID = run.ID
		job.ChunkCount = run.ChunkCount
	}
	job.Status = JobDone
	if err != nil {
		log.WithError(err).Error("ingest job failed")
		job.Status = JobFailed
		job.Error = err.Error()
	}
	job.UpdatedAt = time.Now().UTC()

	if err := p.Queue.save(context.WithoutCancel(ctx), job); err != nil {
		log.WithError(err).Warn("failed to record job result")
	}
	log.WithField("status", job.Status).Info("ingest job finished")
}
