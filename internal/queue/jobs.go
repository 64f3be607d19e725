package queue

import (
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"

	"polygraph/internal/util"
)

// CrawlJob asks the worker to run a seed-to-graph crawl and store the
// result under the correlation id.
type CrawlJob struct {
	Message       string   `json:"message,omitempty"`
	CorrelationID string   `json:"correlation_id"`
	Label         string   `json:"label,omitempty"`
	Seeds         []string `json:"seeds,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Modes         []string `json:"modes,omitempty"`
	MaxDepth      int      `json:"max_depth"`
	MaxNodes      int      `json:"max_nodes,omitempty"`
	MaxEdges      int      `json:"max_edges,omitempty"`
	Officials     bool     `json:"officials"`
	Upload        bool     `json:"upload,omitempty"`
}

// EnrichJob asks the worker to recompute annotations and metrics of a
// stored snapshot.
type EnrichJob struct {
	Message       string          `json:"message,omitempty"`
	CorrelationID string          `json:"correlation_id"`
	SnapshotID    string          `json:"snapshot_id"`
	Taxonomy      json.RawMessage `json:"taxonomy,omitempty"`
}

// EnqueueCrawl publishes a crawl job and returns its correlation id.
func EnqueueCrawl(ch *amqp091.Channel, job CrawlJob) (string, error) {
	if job.CorrelationID == "" {
		job.CorrelationID = util.NewCorrelationID()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return "", err
	}
	if err := PublishFIFO(ch, CrawlQueue, data); err != nil {
		return "", err
	}
	return job.CorrelationID, nil
}

// EnqueueEnrich publishes an enrich job and returns its correlation id.
func EnqueueEnrich(ch *amqp091.Channel, job EnrichJob) (string, error) {
	if job.CorrelationID == "" {
		job.CorrelationID = util.NewCorrelationID()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return "", err
	}
	if err := PublishFIFO(ch, EnrichQueue, data); err != nil {
		return "", err
	}
	return job.CorrelationID, nil
}
