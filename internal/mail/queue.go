package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/task_manager/internal/mykafka"
)

// Queue hands a message off for asynchronous delivery.
type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
}

// KafkaQueue writes mail jobs to the email_jobs topic for cmd/worker.
type KafkaQueue struct {
	Publisher mykafka.Publisher
}

func (q *KafkaQueue) Enqueue(ctx context.Context, msg Message) error {
	key := ""
	if len(msg.To) > 0 {
		key = msg.To[0]
	}
	return q.Publisher.PublishEvent(ctx, mykafka.TopicEmailJobs, key, msg)
}

// DirectQueue sends in place. Used when no brokers are configured.
type DirectQueue struct {
	Sender Sender
}

func (q *DirectQueue) Enqueue(ctx context.Context, msg Message) error {
	return q.Sender.Send(ctx, msg)
}

// JobTimeout bounds a single delivery attempt made by Handler.
const JobTimeout = 30 * time.Second

// Handler decodes email_jobs messages and delivers them through s.
func Handler(s Sender) mykafka.Handler {
	return func(ctx context.Context, m kafka.Message) error {
		var msg Message
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			return fmt.Errorf("mail: decode job: %w", err)
		}
		ctx, cancel := context.WithTimeout(ctx, JobTimeout)
		defer cancel()
		return s.Send(ctx, msg)
	}
}
