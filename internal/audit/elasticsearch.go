package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/adminkit/toggle/internal/models"
)

// ElasticsearchSink indexes audit envelopes, one document per event.
type ElasticsearchSink struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticsearchSink creates a sink writing to index on the cluster at url.
func NewElasticsearchSink(url, index string) (*ElasticsearchSink, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}

	return &ElasticsearchSink{client: client, index: index}, nil
}

// Name implements Sink.
func (s *ElasticsearchSink) Name() string { return "elasticsearch" }

// RecordAudit indexes entry under its event id, so retries overwrite rather
// than duplicate.
func (s *ElasticsearchSink) RecordAudit(ctx context.Context, entry models.AuditEntry) error {
	data, err := json.Marshal(NewEnvelope(entry))
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: entry.EventID,
		Body:       bytes.NewReader(data),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("indexing audit event: %w", err)
	}
	defer res.Body.Close() //nolint:errcheck // read-only body

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}
