package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/fadedpez/tucocasino/internal/logging"
	"github.com/fadedpez/tucocasino/pkg/entities"
)

// ElasticsearchConfig holds configuration options for the Elasticsearch repository
type ElasticsearchConfig struct {
	URL         string
	Username    string
	Password    string
	IndexPrefix string
}

const settlementMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"session_id": { "type": "keyword" },
			"player_id": { "type": "keyword" },
			"game": { "type": "keyword" },
			"phase": { "type": "keyword" },
			"result": { "type": "keyword" },
			"wager": { "type": "long" },
			"payout": { "type": "long" },
			"multiplier": { "type": "double" },
			"detail": { "type": "text" },
			"settled_at": { "type": "date" }
		}
	}
}`

// ElasticsearchRepository mirrors settlements into an Elasticsearch index
// on top of a base repository, which stays the source of truth for statistics
type ElasticsearchRepository struct {
	baseRepo Repository
	client   *elasticsearch.Client
	index    string
	log      *logging.Logger
}

// NewElasticsearchRepository connects to Elasticsearch and creates the
// settlement index if it does not exist
func NewElasticsearchRepository(baseRepo Repository, config ElasticsearchConfig, logger *logging.Logger) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}

	// Add authentication if provided
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	if config.IndexPrefix == "" {
		config.IndexPrefix = "tucocasino"
	}
	if logger == nil {
		logger = logging.Default
	}

	repo := &ElasticsearchRepository{
		baseRepo: baseRepo,
		client:   client,
		index:    config.IndexPrefix + "_settlements",
		log:      logger.WithField("component", "es_history"),
	}

	if err := repo.initIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("error initializing index: %w", err)
	}
	return repo, nil
}

// initIndex creates the settlement index if it doesn't exist
func (r *ElasticsearchRepository) initIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error checking if index exists: %w", err)
	}
	res.Body.Close()

	if res.StatusCode != 404 {
		return nil
	}

	req := esapi.IndicesCreateRequest{
		Index: r.index,
		Body:  strings.NewReader(settlementMapping),
	}
	res, err = req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}
	r.log.Info("Created index %s", r.index)
	return nil
}

// Record saves to the base repository first, then indexes the settlement
// under its session ID so a repeat overwrites the same document
func (r *ElasticsearchRepository) Record(ctx context.Context, record *entities.SettlementRecord) error {
	if err := r.baseRepo.Record(ctx, record); err != nil {
		return fmt.Errorf("error saving settlement to base repository: %w", err)
	}
	return r.IndexSettlement(ctx, record)
}

// IndexSettlement writes one settlement document
func (r *ElasticsearchRepository) IndexSettlement(ctx context.Context, record *entities.SettlementRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error marshaling settlement: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: record.SessionID,
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("error indexing settlement: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing settlement: %s", res.String())
	}
	return nil
}

// ListByPlayer searches the index, falling back to the base repository
// when Elasticsearch is unavailable
func (r *ElasticsearchRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]*entities.SettlementRecord, error) {
	records, err := r.searchPlayer(ctx, playerID, limit)
	if err != nil {
		r.log.Warn("Search for %s failed, using base repository: %v", playerID, err)
		return r.baseRepo.ListByPlayer(ctx, playerID, limit)
	}
	return records, nil
}

func (r *ElasticsearchRepository) searchPlayer(ctx context.Context, playerID string, limit int) ([]*entities.SettlementRecord, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"player_id": playerID},
		},
		"sort": []map[string]interface{}{
			{"settled_at": map[string]interface{}{"order": "desc"}},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("error marshaling query: %w", err)
	}

	size := limit
	if size <= 0 {
		size = 1000
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(body)),
		r.client.Search.WithSize(size),
	)
	if err != nil {
		return nil, fmt.Errorf("error searching settlements: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching settlements: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source entities.SettlementRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error parsing settlements: %w", err)
	}

	records := make([]*entities.SettlementRecord, 0, len(result.Hits.Hits))
	for i := range result.Hits.Hits {
		records = append(records, &result.Hits.Hits[i].Source)
	}
	return records, nil
}

// PlayerStatistics implements Repository
func (r *ElasticsearchRepository) PlayerStatistics(ctx context.Context, playerID string, game entities.GameKind) (*entities.PlayerStatistics, error) {
	return r.baseRepo.PlayerStatistics(ctx, playerID, game)
}

// AllPlayerStatistics implements Repository
func (r *ElasticsearchRepository) AllPlayerStatistics(ctx context.Context, game entities.GameKind) ([]*entities.PlayerStatistics, error) {
	return r.baseRepo.AllPlayerStatistics(ctx, game)
}

// Close implements Repository
func (r *ElasticsearchRepository) Close() error {
	return r.baseRepo.Close()
}

// Index returns the name of the settlement index
func (r *ElasticsearchRepository) Index() string {
	return r.index
}
