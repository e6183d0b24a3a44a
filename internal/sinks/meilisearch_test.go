package sinks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"mapwatch/internal/logging"
	"mapwatch/internal/mapdetect"
	"mapwatch/internal/store"
)

type stubIndex struct {
	docs []SearchDoc
	pk   string
	err  error
}

func (s *stubIndex) UpdateDocuments(documentsPtr interface{}, options *meilisearch.DocumentOptions) (*meilisearch.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.docs = append(s.docs, documentsPtr.([]SearchDoc)...)
	if options != nil && options.PrimaryKey != nil {
		s.pk = *options.PrimaryKey
	}
	return &meilisearch.TaskInfo{TaskUID: 7}, nil
}

func TestSearchIndexerUpsertsDocument(t *testing.T) {
	idx := &stubIndex{}
	indexer := &SearchIndexer{index: idx, indexName: "detections", logger: logging.NewNop()}
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	err := indexer.Publish(context.Background(), store.Detection{ID: 3, Streamer: "dezign", DetectedAt: at, MapLabel: mapdetect.UnknownMap})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if idx.pk != "id" || len(idx.docs) != 1 {
		t.Fatalf("unexpected upsert: pk=%q docs=%+v", idx.pk, idx.docs)
	}
	doc := idx.docs[0]
	if doc.ID != 3 || doc.Known || doc.DetectedAt != at.Unix() {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestSearchIndexerWrapsFailure(t *testing.T) {
	indexer := &SearchIndexer{index: &stubIndex{err: errors.New("503")}, indexName: "detections", logger: logging.NewNop()}
	if err := indexer.Publish(context.Background(), store.Detection{Streamer: "a"}); err == nil {
		t.Fatal("expected error")
	}
}
