package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexIniciativa indexes an initiative (fire-and-forget to Meilisearch).
func (s *Service) IndexIniciativa(rec IniciativaRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexIniciativa(rec); err != nil {
			log.Printf("search: index iniciativa %s: %v", rec.ID, err)
		}
	}()
}

// IndexRegistro indexes a bitácora entry (fire-and-forget to Meilisearch).
func (s *Service) IndexRegistro(rec RegistroRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexRegistro(rec); err != nil {
			log.Printf("search: index registro %s: %v", rec.ID, err)
		}
	}()
}

// DeleteIniciativa removes an initiative from the search index (fire-and-forget).
func (s *Service) DeleteIniciativa(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteIniciativa(id); err != nil {
			log.Printf("search: delete iniciativa %s: %v", id, err)
		}
	}()
}

// DeleteRegistro removes a bitácora entry from the search index (fire-and-forget).
func (s *Service) DeleteRegistro(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteRegistro(id); err != nil {
			log.Printf("search: delete registro %s: %v", id, err)
		}
	}()
}

// ReindexAll pushes the given records to Meilisearch in bulk.
func (s *Service) ReindexAll(iniciativas []IniciativaRecord, registros []RegistroRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}

	if len(iniciativas) > 0 {
		if err := s.meili.IndexIniciativas(iniciativas); err != nil {
			log.Printf("search: reindex iniciativas: %v", err)
		}
	}
	if len(registros) > 0 {
		if err := s.meili.IndexRegistros(registros); err != nil {
			log.Printf("search: reindex registros: %v", err)
		}
	}
}

// ReindexAllFromPG reindexes all searchable entities from PostgreSQL into Meilisearch.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pgfts == nil {
		return
	}
	iniciativas, registros, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	s.ReindexAll(iniciativas, registros)
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
