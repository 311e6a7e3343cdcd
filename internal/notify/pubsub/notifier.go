// Package pubsub implements a Google Cloud Pub/Sub job notifier.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

// Notifier publishes finished job summaries to a Pub/Sub topic.
type Notifier struct {
	topic *pubsub.Topic
}

// New creates a Notifier for the provided topic.
func New(topic *pubsub.Topic) *Notifier {
	return &Notifier{topic: topic}
}

// Connect dials Pub/Sub and returns a Notifier plus the client for shutdown.
func Connect(ctx context.Context, projectID, topicName string) (*Notifier, *pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub client: %w", err)
	}
	return New(client.Topic(topicName)), client, nil
}

// Publish marshals the job summary to JSON and publishes it to the topic.
func (n *Notifier) Publish(ctx context.Context, job contact.JobSummary) error {
	if n.topic == nil {
		return fmt.Errorf("pubsub topic is not configured")
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job summary: %w", err)
	}
	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"job_id": job.JobID.String(),
			"status": job.Status,
		},
	}
	result := n.topic.Publish(ctx, msg)
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish job notification: %w", err)
	}
	return nil
}
