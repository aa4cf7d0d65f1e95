// Package dispatch publishes scraping jobs to the worker fleet over
// Kafka. Uploads never touch this path; jobs are only produced by the
// explicit crawl and price-refresh endpoints.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// ErrEmptyBatch is returned when a price refresh has no URLs to visit.
var ErrEmptyBatch = errors.New("no product urls to refresh")

// messageWriter is the slice of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// CrawlJob asks a worker to walk the whole source site.
type CrawlJob struct {
	CrawlerID int64  `json:"crawler_id"`
	URL       string `json:"url"`
	Selector  string `json:"selector"`
}

// PriceJob asks a worker to revisit only the given product pages.
type PriceJob struct {
	CrawlerID int64    `json:"crawler_id"`
	URLs      []string `json:"urls"`
}

type envelope struct {
	JobID   string `json:"job_id"`
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

// Publisher produces jobs onto the scraping topic.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher connects a publisher to the given brokers and topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	return &Publisher{writer: w, logger: logger}
}

// TriggerCrawl enqueues a full crawl of the source.
func (p *Publisher) TriggerCrawl(ctx context.Context, job CrawlJob) error {
	return p.publish(ctx, "crawl", fmt.Sprint(job.CrawlerID), job)
}

// TriggerPriceRefresh enqueues a targeted revisit of the given product
// pages. An empty batch is refused rather than sent; a worker receiving
// zero URLs would crawl nothing and still mark the source processed.
func (p *Publisher) TriggerPriceRefresh(ctx context.Context, job PriceJob) error {
	if len(job.URLs) == 0 {
		return ErrEmptyBatch
	}
	return p.publish(ctx, "price_update", fmt.Sprint(job.CrawlerID), job)
}

func (p *Publisher) publish(ctx context.Context, kind, key string, payload any) error {
	env := envelope{JobID: uuid.NewString(), Kind: kind, Payload: payload}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s job: %w", kind, err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("publish %s job: %w", kind, err)
	}

	p.logger.Info("job published", "kind", kind, "job_id", env.JobID, "key", key)
	return nil
}

// Close flushes and releases the underlying writer.
func (p *Publisher) Close() error {
	if c, ok := p.writer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
