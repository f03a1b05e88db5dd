package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultIniciativa ResultType = "iniciativa"
	ResultRegistro   ResultType = "registro"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type         ResultType `json:"type"`
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Snippet      string     `json:"snippet"`
	IniciativaID string     `json:"iniciativaId"`
	Etapa        string     `json:"etapa,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text        string
	FilterType  ResultType // empty = all types
	FilterEtapa string
	Limit       int
	Offset      int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexIniciativa(rec IniciativaRecord) error
	IndexRegistro(rec RegistroRecord) error
	DeleteIniciativa(id string) error
	DeleteRegistro(id string) error
}

// IniciativaRecord is the data we index for an initiative.
type IniciativaRecord struct {
	ID     string `json:"id"`
	Codigo string `json:"codigo"`
	Nombre string `json:"nombre"`
	Etapa  string `json:"etapa"`
}

// RegistroRecord is the data we index for a bitácora entry.
type RegistroRecord struct {
	ID           string `json:"id"`
	Descripcion  string `json:"descripcion"`
	IniciativaID string `json:"iniciativaId"`
	Etapa        string `json:"etapa"`
}
