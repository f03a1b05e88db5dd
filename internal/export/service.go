package export

import (
	"context"
	"fmt"
	"time"
)

// DataStore defines the interface for data access
type DataStore interface {
	GetIniciativa(ctx context.Context, id string) (IniciativaInfo, error)
	ListRegistros(ctx context.Context, iniciativaID string) ([]RegistroInfo, error)
	ListMembers(ctx context.Context, iniciativaID string) ([]MemberInfo, error)
}

// IniciativaInfo holds basic initiative metadata
type IniciativaInfo struct {
	ID     string
	Codigo string
	Nombre string
	Etapa  string
}

// RegistroInfo holds one bitácora entry
type RegistroInfo struct {
	Fecha       time.Time
	Descripcion string
	AdjuntoURL  string
}

// MemberInfo holds one member row
type MemberInfo struct {
	Email string
	Role  string
}

// Service provides bitácora export functionality
type Service struct {
	store DataStore
}

// NewService creates a new export service
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	ini, err := s.store.GetIniciativa(ctx, req.IniciativaID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}

	registros, err := s.store.ListRegistros(ctx, req.IniciativaID)
	if err != nil {
		return nil, fmt.Errorf("list registros: %w", err)
	}

	data := TemplateData{
		Codigo:      ini.Codigo,
		Nombre:      ini.Nombre,
		Etapa:       ini.Etapa,
		GeneratedAt: time.Now(),
		Registros:   make([]TemplateRegistro, 0, len(registros)),
		Miembros:    []TemplateMiembro{},
	}

	for _, r := range registros {
		data.Registros = append(data.Registros, TemplateRegistro{
			Fecha:       r.Fecha,
			Descripcion: r.Descripcion,
			AdjuntoURL:  r.AdjuntoURL,
		})
	}

	if req.IncludeMembers {
		members, err := s.store.ListMembers(ctx, req.IniciativaID)
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		for _, m := range members {
			data.Miembros = append(data.Miembros, TemplateMiembro{
				Email: m.Email,
				Role:  m.Role,
			})
		}
	}

	html, err := RenderBitacoraHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	title := ini.Codigo + " " + ini.Nombre
	switch req.Format {
	case FormatPDF:
		return exportPDF(html, title)
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
