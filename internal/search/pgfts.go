package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across iniciativas and bitacora_registros
// using plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('spanish', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	// Iniciativas sub-query
	if q.FilterType == "" || q.FilterType == ResultIniciativa {
		iniWhere := "i.fts @@ " + tsQuery
		if q.FilterEtapa != "" {
			iniWhere += fmt.Sprintf(" AND i.etapa = $%d", argN)
			args = append(args, q.FilterEtapa)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'iniciativa'::text AS type, i.id, i.nombre AS title,
				ts_headline('spanish', coalesce(i.codigo, '') || ' ' || coalesce(i.nombre, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				i.id AS iniciativa_id, i.etapa,
				ts_rank(i.fts, %s) AS rank
			FROM iniciativas i
			WHERE %s`, tsQuery, tsQuery, iniWhere))
	}

	// Registros sub-query
	if q.FilterType == "" || q.FilterType == ResultRegistro {
		regWhere := "r.fts @@ " + tsQuery
		if q.FilterEtapa != "" {
			regWhere += fmt.Sprintf(" AND i.etapa = $%d", argN)
			args = append(args, q.FilterEtapa)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'registro'::text AS type, r.id, left(r.descripcion, 120) AS title,
				ts_headline('spanish', coalesce(r.descripcion, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				r.iniciativa_id, i.etapa,
				ts_rank(r.fts, %s) AS rank
			FROM bitacora_registros r
			JOIN iniciativas i ON i.id = r.iniciativa_id
			WHERE %s`, tsQuery, tsQuery, regWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, iniciativa_id, etapa
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.IniciativaID, &r.Etapa); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]IniciativaRecord, []RegistroRecord, error) {
	iniRows, err := p.db.QueryContext(ctx, `
		SELECT id, codigo, nombre, etapa
		FROM iniciativas
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load iniciativas: %w", err)
	}
	defer iniRows.Close()

	iniciativas := make([]IniciativaRecord, 0)
	for iniRows.Next() {
		var rec IniciativaRecord
		if err := iniRows.Scan(&rec.ID, &rec.Codigo, &rec.Nombre, &rec.Etapa); err != nil {
			return nil, nil, fmt.Errorf("scan iniciativa: %w", err)
		}
		iniciativas = append(iniciativas, rec)
	}
	if err := iniRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate iniciativas: %w", err)
	}

	regRows, err := p.db.QueryContext(ctx, `
		SELECT r.id, r.descripcion, r.iniciativa_id, i.etapa
		FROM bitacora_registros r
		JOIN iniciativas i ON i.id = r.iniciativa_id
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load registros: %w", err)
	}
	defer regRows.Close()

	registros := make([]RegistroRecord, 0)
	for regRows.Next() {
		var rec RegistroRecord
		if err := regRows.Scan(&rec.ID, &rec.Descripcion, &rec.IniciativaID, &rec.Etapa); err != nil {
			return nil, nil, fmt.Errorf("scan registro: %w", err)
		}
		registros = append(registros, rec)
	}
	if err := regRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate registros: %w", err)
	}

	return iniciativas, registros, nil
}
