package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const (
	idxIniciativas = "bitacora_iniciativas"
	idxRegistros   = "bitacora_registros"
)

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures indexes.
// Returns a degraded instance if the initial connection fails; the health
// loop keeps retrying in the background.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		primaryKey string
		filterable []string
		searchable []string
	}{
		{
			uid:        idxIniciativas,
			primaryKey: "id",
			filterable: []string{"etapa"},
			searchable: []string{"codigo", "nombre"},
		},
		{
			uid:        idxRegistros,
			primaryKey: "id",
			filterable: []string{"iniciativaId", "etapa"},
			searchable: []string{"descripcion"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: idx.primaryKey,
		}); err != nil {
			log.Printf("search: create index %s (may already exist): %v", idx.uid, err)
		}

		index := m.client.Index(idx.uid)
		filterableInterface := make([]interface{}, len(idx.filterable))
		for i, v := range idx.filterable {
			filterableInterface[i] = v
		}
		if _, err := index.UpdateFilterableAttributes(&filterableInterface); err != nil {
			log.Printf("search: update filterable attrs for %s: %v", idx.uid, err)
		}
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			log.Printf("search: update searchable attrs for %s: %v", idx.uid, err)
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries both indexes (or a filtered subset) and merges results.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit <= 0 {
		limit = 20
	}
	offset := int64(q.Offset)
	if offset < 0 {
		offset = 0
	}

	var queries []*meili.SearchRequest
	targetIndexes := []struct {
		uid  string
		rtyp ResultType
	}{
		{idxIniciativas, ResultIniciativa},
		{idxRegistros, ResultRegistro},
	}

	for _, ti := range targetIndexes {
		if q.FilterType != "" && q.FilterType != ti.rtyp {
			continue
		}
		sr := &meili.SearchRequest{
			IndexUID:              ti.uid,
			Query:                 q.Text,
			Limit:                 limit,
			Offset:                offset,
			AttributesToHighlight: []string{"*"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
			ShowRankingScore:      true,
		}

		if q.FilterEtapa != "" {
			sr.Filter = []string{fmt.Sprintf("etapa = %q", q.FilterEtapa)}
		}
		queries = append(queries, sr)
	}

	if len(queries) == 0 {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: queries,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}

	return results, total, nil
}

func indexToResultType(uid string) ResultType {
	switch uid {
	case idxIniciativas:
		return ResultIniciativa
	case idxRegistros:
		return ResultRegistro
	default:
		return ""
	}
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	r := Result{Type: rtyp}
	r.ID = decodeString(hit, "id")
	r.Etapa = decodeString(hit, "etapa")

	switch rtyp {
	case ResultIniciativa:
		r.Title = firstNonBlank(decodeFormattedString(hit, "nombre"), decodeString(hit, "nombre"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "codigo"), decodeString(hit, "codigo"))
		r.IniciativaID = r.ID
	case ResultRegistro:
		r.Title = firstNonBlank(decodeFormattedString(hit, "descripcion"), decodeString(hit, "descripcion"))
		r.Snippet = r.Title
		r.IniciativaID = decodeString(hit, "iniciativaId")
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexIniciativa adds or updates an initiative in the search index.
func (m *Meili) IndexIniciativa(rec IniciativaRecord) error {
	_, err := m.client.Index(idxIniciativas).AddDocuments([]IniciativaRecord{rec}, nil)
	return err
}

// IndexRegistro adds or updates a bitácora entry in the search index.
func (m *Meili) IndexRegistro(rec RegistroRecord) error {
	_, err := m.client.Index(idxRegistros).AddDocuments([]RegistroRecord{rec}, nil)
	return err
}

// DeleteIniciativa removes an initiative from the search index.
func (m *Meili) DeleteIniciativa(id string) error {
	_, err := m.client.Index(idxIniciativas).DeleteDocument(id, nil)
	return err
}

// DeleteRegistro removes a bitácora entry from the search index.
func (m *Meili) DeleteRegistro(id string) error {
	_, err := m.client.Index(idxRegistros).DeleteDocument(id, nil)
	return err
}

// IndexIniciativas bulk-indexes initiatives.
func (m *Meili) IndexIniciativas(records []IniciativaRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxIniciativas).AddDocuments(records, nil)
	return err
}

// IndexRegistros bulk-indexes bitácora entries.
func (m *Meili) IndexRegistros(records []RegistroRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxRegistros).AddDocuments(records, nil)
	return err
}
