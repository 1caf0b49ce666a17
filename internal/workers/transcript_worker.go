// Package workers moves transcript persistence off the interview's
// completion path: completed snapshots go to a Redis stream and a pool of
// consumers writes them to the record store.
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/careermentor/internal/logger"
	"github.com/yoockh/careermentor/internal/session"
)

const (
	DefaultTranscriptStream = "interview:transcripts"
	DefaultTranscriptGroup  = "transcript-workers"
)

// Recorder persists the transcript of a completed session.
type Recorder interface {
	Record(ctx context.Context, snap session.Snapshot) error
}

// TranscriptQueue enqueues completed snapshots instead of recording them
// inline.
type TranscriptQueue struct {
	Redis  *redis.Client
	Stream string
}

func (q *TranscriptQueue) stream() string {
	if q.Stream == "" {
		return DefaultTranscriptStream
	}
	return q.Stream
}

func (q *TranscriptQueue) Record(ctx context.Context, snap session.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream(),
		Values: map[string]any{
			"session_id": snap.ID,
			"snapshot":   string(payload),
			"ts_unix":    strconv.FormatInt(time.Now().UTC().Unix(), 10),
		},
	}).Err()
}

type TranscriptWorkerPool struct {
	Redis      *redis.Client
	Recorder   Recorder
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *TranscriptWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Recorder == nil {
		return errors.New("TranscriptWorkerPool missing dependency: Redis/Recorder must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultTranscriptStream
	}
	if p.Group == "" {
		p.Group = DefaultTranscriptGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logger.Discard()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *TranscriptWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			p.Logger.WithError(err).Warn("transcript stream read failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				// unacked messages stay pending for a later retry
				if p.handleMsg(ctx, msg) {
					_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
				}
			}
		}
	}
}

// handleMsg reports whether the message is done with, either recorded or
// undecodable.
func (p *TranscriptWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) bool {
	log := p.Logger.WithField("redis_id", msg.ID)

	snap, err := decodeSnapshot(msg)
	if err != nil {
		log.WithError(err).Warn("dropping malformed transcript message")
		return true
	}
	log = log.WithField("session_id", snap.ID)

	if err := p.Recorder.Record(ctx, snap); err != nil {
		log.WithError(err).Error("failed to record transcript")
		return false
	}
	log.Debug("transcript recorded")
	return true
}

func decodeSnapshot(msg redis.XMessage) (session.Snapshot, error) {
	var snap session.Snapshot
	raw, _ := msg.Values["snapshot"].(string)
	if raw == "" {
		return snap, errors.New("missing snapshot field")
	}
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return snap, err
	}
	if snap.ID == "" {
		return snap, errors.New("snapshot without id")
	}
	return snap, nil
}
