package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rabbitmq/amqp091-go"

	"polygraph/internal/pipeline"
	"polygraph/internal/storage"
	"polygraph/internal/util"
	"polygraph/pkg/export"
	"polygraph/pkg/logger"
	"polygraph/pkg/store"
)

type snapshotEvent struct {
	CorrelationID string `json:"correlation_id"`
	SnapshotID    string `json:"snapshot_id"`
	Nodes         int    `json:"nodes"`
	Edges         int    `json:"edges"`
	CompletedAt   string `json:"completed_at"`
}

func publishEvent(ch *amqp091.Channel, topic string, event snapshotEvent) {
	event.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := PublishTopic(ch, topic, data); err != nil {
		logger.Warn("[Queue] Failed to publish event", "topic", topic, "err", err)
	}
}

// ProcessCrawlMessage runs one crawl job end to end: resolve and expand the
// seeds, save the snapshot, then optionally upload the export bundle.
func ProcessCrawlMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	snapshots store.SnapshotStore,
	ch *amqp091.Channel,
	msg string,
) error {
	var job CrawlJob
	if err := json.Unmarshal([]byte(msg), &job); err != nil {
		return err
	}
	if job.CorrelationID == "" {
		return fmt.Errorf("crawl job without a correlation id")
	}

	logger.Info("[Queue] Starting crawl job",
		"correlation_id", job.CorrelationID,
		"seeds", len(job.Seeds), "categories", len(job.Categories))

	result, err := pipeline.Crawl(ctx, pipeline.CrawlOptions{
		Seeds:             job.Seeds,
		Categories:        job.Categories,
		Modes:             job.Modes,
		MaxDepth:          job.MaxDepth,
		MaxNodes:          job.MaxNodes,
		MaxEdges:          job.MaxEdges,
		RequestsPerSecond: util.GetEnvNumeric("CRAWL_RATE", 0),
		CachePath:         util.GetEnvString("CRAWL_CACHE_PATH", ""),
		Officials:         job.Officials,
		UserAgent:         util.GetEnvString("CRAWL_USER_AGENT", ""),
	})
	if err != nil {
		return err
	}

	snap := &store.Snapshot{
		Meta:  store.Meta{ID: job.CorrelationID, Label: job.Label},
		Graph: result.Graph,
		Stats: result.Stats,
	}
	if err := snapshots.SaveSnapshot(ctx, snap); err != nil {
		return err
	}

	if job.Upload && s3Client != nil {
		if err := uploadSnapshot(ctx, s3Client, snap); err != nil {
			return err
		}
	}

	publishEvent(ch, "snapshot.crawl.completed", snapshotEvent{
		CorrelationID: job.CorrelationID,
		SnapshotID:    snap.ID,
		Nodes:         result.Graph.NodeCount(),
		Edges:         result.Graph.EdgeCount(),
	})
	return nil
}

// ProcessEnrichMessage reloads a stored snapshot, recomputes its annotations
// and metrics, and saves it back in place.
func ProcessEnrichMessage(
	ctx context.Context,
	snapshots store.SnapshotStore,
	ch *amqp091.Channel,
	msg string,
) error {
	var job EnrichJob
	if err := json.Unmarshal([]byte(msg), &job); err != nil {
		return err
	}
	if job.SnapshotID == "" {
		return fmt.Errorf("enrich job without a snapshot id")
	}

	logger.Info("[Queue] Starting enrich job",
		"correlation_id", job.CorrelationID, "snapshot", job.SnapshotID)

	snap, err := snapshots.LoadSnapshot(ctx, job.SnapshotID)
	if err != nil {
		return err
	}
	if err := pipeline.Enrich(snap.Graph, job.Taxonomy); err != nil {
		return err
	}
	if err := snapshots.SaveSnapshot(ctx, snap); err != nil {
		return err
	}

	publishEvent(ch, "snapshot.enrich.completed", snapshotEvent{
		CorrelationID: job.CorrelationID,
		SnapshotID:    snap.ID,
		Nodes:         snap.Graph.NodeCount(),
		Edges:         snap.Graph.EdgeCount(),
	})
	return nil
}

func uploadSnapshot(ctx context.Context, s3Client *awss3.Client, snap *store.Snapshot) error {
	dir, err := os.MkdirTemp("", "snapshot-"+snap.ID+"-")
	if err != nil {
		return fmt.Errorf("failed to create upload staging dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if _, err := export.Export(snap.Graph, dir); err != nil {
		return err
	}
	if snap.Stats != nil {
		if err := export.ExportStats(snap.Stats, dir); err != nil {
			return err
		}
	}
	_, err = storage.UploadBundle(ctx, s3Client, snap.ID, dir)
	return err
}
