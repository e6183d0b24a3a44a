package sinks

import (
	"context"
	"log/slog"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"mapwatch/internal/logging"
	"mapwatch/internal/services"
	"mapwatch/internal/store"
)

const searchPrimaryKey = "id"

// SearchDoc is the Meilisearch document stored per detection.
type SearchDoc struct {
	ID         int64  `json:"id"`
	Streamer   string `json:"streamer"`
	MapLabel   string `json:"map"`
	Score      int    `json:"score"`
	Known      bool   `json:"known"`
	DetectedAt int64  `json:"detected_at"`
	FramePath  string `json:"frame_path"`
}

// NewSearchDoc converts a stored detection to its index document.
func NewSearchDoc(d store.Detection) SearchDoc {
	return SearchDoc{
		ID:         d.ID,
		Streamer:   d.Streamer,
		MapLabel:   d.MapLabel,
		Score:      d.Score,
		Known:      d.Known(),
		DetectedAt: d.DetectedAt.Unix(),
		FramePath:  d.FramePath,
	}
}

// documentIndex is the subset of meilisearch.IndexManager the indexer uses.
type documentIndex interface {
	UpdateDocuments(documentsPtr interface{}, options *meilisearch.DocumentOptions) (*meilisearch.TaskInfo, error)
}

// SearchIndexer upserts detections into a Meilisearch index.
type SearchIndexer struct {
	index     documentIndex
	indexName string
	logger    *slog.Logger
}

// NewSearchIndexer connects to host, creates the index when missing and
// configures its searchable, filterable and sortable attributes.
func NewSearchIndexer(host, apiKey, indexName string, logger *slog.Logger) *SearchIndexer {
	logger = logging.NewComponentLogger(logger, "sinks")
	indexName = strings.TrimSpace(indexName)
	if indexName == "" {
		indexName = "detections"
	}
	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))

	if _, err := client.CreateIndex(&meilisearch.IndexConfig{Uid: indexName, PrimaryKey: searchPrimaryKey}); err != nil {
		logger.Info("meilisearch index not created", logging.String("index", indexName), logging.Error(err))
	}
	index := client.Index(indexName)
	if _, err := index.UpdateSearchableAttributes(&[]string{"streamer", "map"}); err != nil {
		logger.Info("meilisearch searchable attributes not updated", logging.Error(err))
	}
	filterable := []interface{}{"streamer", "map", "known"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		logger.Info("meilisearch filterable attributes not updated", logging.Error(err))
	}
	if _, err := index.UpdateSortableAttributes(&[]string{"detected_at", "score"}); err != nil {
		logger.Info("meilisearch sortable attributes not updated", logging.Error(err))
	}
	return &SearchIndexer{index: index, indexName: indexName, logger: logger}
}

// Name identifies the sink in logs.
func (s *SearchIndexer) Name() string { return "meilisearch" }

// Publish upserts d. The returned task is not awaited.
func (s *SearchIndexer) Publish(_ context.Context, d store.Detection) error {
	pk := searchPrimaryKey
	task, err := s.index.UpdateDocuments([]SearchDoc{NewSearchDoc(d)}, &meilisearch.DocumentOptions{PrimaryKey: &pk})
	if err != nil {
		return services.Wrap(services.ErrTransient, "sinks", "meilisearch upsert", s.indexName, err)
	}
	s.logger.Debug("detection indexed", logging.Int64("detection_id", d.ID), logging.Int64("task_uid", task.TaskUID))
	return nil
}

// Close is a no-op; the Meilisearch client holds no persistent connection.
func (s *SearchIndexer) Close() error { return nil }
