package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"bitacora/api/internal/adjuntos"
	"bitacora/api/internal/auth"
	"bitacora/api/internal/authpw"
	"bitacora/api/internal/config"
	"bitacora/api/internal/email"
	"bitacora/api/internal/export"
	"bitacora/api/internal/rbac"
	"bitacora/api/internal/search"
	"bitacora/api/internal/store"
	"bitacora/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Email        string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

// Lifecycle stages, in order. EtapaEscalamiento is terminal.
const (
	EtapaIdentificacion = "Identificación de oportunidad"
	EtapaDiseno         = "Diseño Integral"
	EtapaPiloto         = "Implementación de piloto"
	EtapaEscalamiento   = "Escalamiento y mejora continua"
)

// EtapaTodas is the sentinel filter value that matches every stage.
const EtapaTodas = "Todas"

var Etapas = []string{
	EtapaIdentificacion,
	EtapaDiseno,
	EtapaPiloto,
	EtapaEscalamiento,
}

func ValidEtapa(etapa string) bool {
	for _, e := range Etapas {
		if e == etapa {
			return true
		}
	}
	return false
}

type CreateIniciativaInput struct {
	Codigo string `json:"codigo"`
	Nombre string `json:"nombre"`
	Etapa  string `json:"etapa"`
}

type UpdateIniciativaInput struct {
	Codigo string `json:"codigo"`
	Nombre string `json:"nombre"`
	Etapa  string `json:"etapa"`
}

type CreateRegistroInput struct {
	Fecha       string  `json:"fecha"`
	Descripcion string  `json:"descripcion"`
	AdjuntoURL  *string `json:"adjuntoUrl"`
}

type UpdateRegistroInput struct {
	Fecha       string  `json:"fecha"`
	Descripcion string  `json:"descripcion"`
	AdjuntoURL  *string `json:"adjuntoUrl"`
}

type InviteMemberInput struct {
	Email string `json:"email"`
}

type dataStore interface {
	GetProfileByID(context.Context, string) (store.Profile, error)
	GetProfileByEmail(context.Context, string) (store.Profile, error)
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	ListIniciativas(context.Context) ([]store.Iniciativa, error)
	GetIniciativa(context.Context, string) (store.Iniciativa, error)
	InsertIniciativa(context.Context, store.Iniciativa) (store.Iniciativa, error)
	UpdateIniciativa(context.Context, string, string, string, string) (store.Iniciativa, error)
	UpdateIniciativaEtapa(context.Context, string, string) (store.Iniciativa, error)
	DeleteIniciativa(context.Context, string) error
	ListRegistros(context.Context, string) ([]store.BitacoraRegistro, error)
	InsertRegistro(context.Context, store.BitacoraRegistro) (store.BitacoraRegistro, error)
	UpdateRegistro(context.Context, string, string, time.Time, string, *string) (store.BitacoraRegistro, error)
	DeleteRegistro(context.Context, string, string) error
	ListMembers(context.Context, string) ([]store.MemberWithProfile, error)
	InsertMember(context.Context, store.InitiativeMember) (store.InitiativeMember, error)
	DeleteMember(context.Context, string, string) error
	IsMember(context.Context, string, string) (bool, error)
	Ping(ctx context.Context) error
}

// sessionStore is satisfied by both the Redis store and the Postgres
// fallback.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (string, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type attachmentStorage interface {
	Upload(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) (string, error)
}

type Service struct {
	cfg         config.Config
	store       dataStore
	sessions    sessionStore
	authpw      *authpw.Service
	email       *email.Service
	search      *search.Service
	export      *export.Service
	attachments attachmentStorage
}

func New(cfg config.Config, dataStore *store.PostgresStore, searchService *search.Service, exportService *export.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: dataStore,
		search:   searchService,
		export:   exportService,
	}
}

func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions sessionStore, searchService *search.Service, exportService *export.Service) *Service {
	svc := New(cfg, dataStore, searchService, exportService)
	svc.sessions = sessions
	return svc
}

// SetAuthPasswordService wires the email/password auth service.
func (s *Service) SetAuthPasswordService(svc *authpw.Service) {
	s.authpw = svc
}

// AuthPasswordService returns the configured auth service, or nil.
func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

// SetEmailService wires the SMTP notification service.
func (s *Service) SetEmailService(svc *email.Service) {
	s.email = svc
}

// SMTPConfigured reports whether outbound email is available.
func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

// SetAttachmentStorage wires the object store for bitácora attachments.
func (s *Service) SetAttachmentStorage(storage attachmentStorage) {
	s.attachments = storage
}

// Bootstrap pushes existing rows into the search index when Meilisearch is
// available. Safe to retry on every start.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.search != nil {
		s.search.ReindexAllFromPG(ctx)
	}
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// ---- Sessions ----

func (s *Service) CreateSession(ctx context.Context, profileID string) (Session, error) {
	profile, err := s.store.GetProfileByID(ctx, profileID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, profile)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	userID, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	// Re-fetch the profile so role changes take effect on rotation.
	profile, err := s.store.GetProfileByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, profile)
}

func (s *Service) issueSession(ctx context.Context, profile store.Profile) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   profile.ID,
		Email: profile.Email,
		Role:  profile.Role,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), profile.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       profile.ID,
		Email:        profile.Email,
		Role:         profile.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	profile, err := s.store.GetProfileByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    profile.ID,
		Email:     profile.Email,
		Role:      profile.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// ---- Iniciativas ----

// FilterIniciativas applies the list filters: an exact stage match (or the
// "Todas" sentinel / empty filter), plus a case-insensitive substring match
// against nombre and codigo.
func FilterIniciativas(items []store.Iniciativa, etapa, query string) []store.Iniciativa {
	needle := strings.ToLower(strings.TrimSpace(query))
	filtered := make([]store.Iniciativa, 0, len(items))
	for _, item := range items {
		if etapa != "" && etapa != EtapaTodas && item.Etapa != etapa {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(item.Nombre), needle) &&
			!strings.Contains(strings.ToLower(item.Codigo), needle) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

// ListIniciativas returns initiatives visible to the session. Admins see
// everything; regular users only see initiatives they own or belong to.
func (s *Service) ListIniciativas(ctx context.Context, session Session, etapa, query string) ([]store.Iniciativa, error) {
	items, err := s.store.ListIniciativas(ctx)
	if err != nil {
		return nil, err
	}
	items = FilterIniciativas(items, etapa, query)

	if s.Can(session.Role, rbac.ActionManage) {
		return items, nil
	}

	visible := make([]store.Iniciativa, 0, len(items))
	for _, item := range items {
		member, err := s.store.IsMember(ctx, item.ID, session.UserID)
		if err != nil {
			return nil, err
		}
		if member {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

func (s *Service) requireAccess(ctx context.Context, session Session, iniciativaID string) error {
	if s.Can(session.Role, rbac.ActionManage) {
		return nil
	}
	member, err := s.store.IsMember(ctx, iniciativaID, session.UserID)
	if err != nil {
		return err
	}
	if !member {
		return domainError(http.StatusForbidden, "FORBIDDEN", "No eres miembro de esta iniciativa", nil)
	}
	return nil
}

func (s *Service) GetIniciativaDetail(ctx context.Context, session Session, iniciativaID string) (map[string]any, error) {
	if err := s.requireAccess(ctx, session, iniciativaID); err != nil {
		return nil, err
	}
	item, err := s.store.GetIniciativa(ctx, iniciativaID)
	if err != nil {
		return nil, err
	}
	registros, err := s.store.ListRegistros(ctx, iniciativaID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, iniciativaID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"iniciativa": item,
		"registros":  registros,
		"miembros":   members,
	}, nil
}

func (s *Service) CreateIniciativa(ctx context.Context, session Session, input CreateIniciativaInput) (store.Iniciativa, error) {
	codigo := strings.ToUpper(strings.TrimSpace(input.Codigo))
	nombre := strings.TrimSpace(input.Nombre)
	if codigo == "" {
		return store.Iniciativa{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "codigo es obligatorio", nil)
	}
	if nombre == "" {
		return store.Iniciativa{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "nombre es obligatorio", nil)
	}
	etapa := strings.TrimSpace(input.Etapa)
	if etapa == "" {
		etapa = EtapaIdentificacion
	}
	if !ValidEtapa(etapa) {
		return store.Iniciativa{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "etapa inválida", map[string]any{"etapas": Etapas})
	}

	stored, err := s.store.InsertIniciativa(ctx, store.Iniciativa{
		ID:      util.NewID("ini"),
		Codigo:  codigo,
		Nombre:  nombre,
		Etapa:   etapa,
		OwnerID: session.UserID,
	})
	if err != nil {
		return store.Iniciativa{}, err
	}

	if s.search != nil {
		s.search.IndexIniciativa(search.IniciativaRecord{
			ID:     stored.ID,
			Codigo: stored.Codigo,
			Nombre: stored.Nombre,
			Etapa:  stored.Etapa,
		})
	}
	return stored, nil
}

func (s *Service) UpdateIniciativa(ctx context.Context, session Session, iniciativaID string, input UpdateIniciativaInput) (store.Iniciativa, error) {
	current, err := s.store.GetIniciativa(ctx, iniciativaID)
	if err != nil {
		return store.Iniciativa{}, err
	}

	codigo := strings.ToUpper(strings.TrimSpace(input.Codigo))
	if codigo == "" {
		codigo = current.Codigo
	}
	nombre := strings.TrimSpace(input.Nombre)
	if nombre == "" {
		nombre = current.Nombre
	}
	etapa := strings.TrimSpace(input.Etapa)
	if etapa == "" {
		etapa = current.Etapa
	}
	if !ValidEtapa(etapa) {
		return store.Iniciativa{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "etapa inválida", map[string]any{"etapas": Etapas})
	}

	stored, err := s.store.UpdateIniciativa(ctx, iniciativaID, codigo, nombre, etapa)
	if err != nil {
		return store.Iniciativa{}, err
	}

	if s.search != nil {
		s.search.IndexIniciativa(search.IniciativaRecord{
			ID:     stored.ID,
			Codigo: stored.Codigo,
			Nombre: stored.Nombre,
			Etapa:  stored.Etapa,
		})
	}
	return stored, nil
}

// FinalizeIniciativa jumps the initiative straight to the terminal stage.
func (s *Service) FinalizeIniciativa(ctx context.Context, session Session, iniciativaID string) (store.Iniciativa, error) {
	if _, err := s.store.GetIniciativa(ctx, iniciativaID); err != nil {
		return store.Iniciativa{}, err
	}
	stored, err := s.store.UpdateIniciativaEtapa(ctx, iniciativaID, EtapaEscalamiento)
	if err != nil {
		return store.Iniciativa{}, err
	}
	if s.search != nil {
		s.search.IndexIniciativa(search.IniciativaRecord{
			ID:     stored.ID,
			Codigo: stored.Codigo,
			Nombre: stored.Nombre,
			Etapa:  stored.Etapa,
		})
	}
	return stored, nil
}

func (s *Service) DeleteIniciativa(ctx context.Context, session Session, iniciativaID string) error {
	if _, err := s.store.GetIniciativa(ctx, iniciativaID); err != nil {
		return err
	}
	registros, err := s.store.ListRegistros(ctx, iniciativaID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteIniciativa(ctx, iniciativaID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteIniciativa(iniciativaID)
		for _, reg := range registros {
			s.search.DeleteRegistro(reg.ID)
		}
	}
	return nil
}

// ---- Bitácora registros ----

func (s *Service) ListRegistros(ctx context.Context, session Session, iniciativaID string) ([]store.BitacoraRegistro, error) {
	if err := s.requireAccess(ctx, session, iniciativaID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetIniciativa(ctx, iniciativaID); err != nil {
		return nil, err
	}
	return s.store.ListRegistros(ctx, iniciativaID)
}

func (s *Service) CreateRegistro(ctx context.Context, session Session, iniciativaID string, input CreateRegistroInput) (store.BitacoraRegistro, error) {
	if err := s.requireAccess(ctx, session, iniciativaID); err != nil {
		return store.BitacoraRegistro{}, err
	}
	ini, err := s.store.GetIniciativa(ctx, iniciativaID)
	if err != nil {
		return store.BitacoraRegistro{}, err
	}

	descripcion := strings.TrimSpace(input.Descripcion)
	if descripcion == "" {
		return store.BitacoraRegistro{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "descripcion es obligatoria", nil)
	}

	fecha, err := parseFecha(input.Fecha)
	if err != nil {
		return store.BitacoraRegistro{}, err
	}

	stored, err := s.store.InsertRegistro(ctx, store.BitacoraRegistro{
		ID:           util.NewID("reg"),
		IniciativaID: iniciativaID,
		Fecha:        fecha,
		Descripcion:  descripcion,
		AdjuntoURL:   input.AdjuntoURL,
	})
	if err != nil {
		return store.BitacoraRegistro{}, err
	}

	if s.search != nil {
		s.search.IndexRegistro(search.RegistroRecord{
			ID:           stored.ID,
			Descripcion:  stored.Descripcion,
			IniciativaID: stored.IniciativaID,
			Etapa:        ini.Etapa,
		})
	}
	return stored, nil
}

func (s *Service) UpdateRegistro(ctx context.Context, session Session, iniciativaID, registroID string, input UpdateRegistroInput) (store.BitacoraRegistro, error) {
	if err := s.requireAccess(ctx, session, iniciativaID); err != nil {
		return store.BitacoraRegistro{}, err
	}
	ini, err := s.store.GetIniciativa(ctx, iniciativaID)
	if err != nil {
		return store.BitacoraRegistro{}, err
	}

	descripcion := strings.TrimSpace(input.Descripcion)
	if descripcion == "" {
		return store.BitacoraRegistro{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "descripcion es obligatoria", nil)
	}
	fecha, err := parseFecha(input.Fecha)
	if err != nil {
		return store.BitacoraRegistro{}, err
	}

	// The store scopes the write by iniciativa, so a registro id from another
	// initiative surfaces as sql.ErrNoRows without touching the row.
	stored, err := s.store.UpdateRegistro(ctx, registroID, iniciativaID, fecha, descripcion, input.AdjuntoURL)
	if err != nil {
		return store.BitacoraRegistro{}, err
	}

	if s.search != nil {
		s.search.IndexRegistro(search.RegistroRecord{
			ID:           stored.ID,
			Descripcion:  stored.Descripcion,
			IniciativaID: stored.IniciativaID,
			Etapa:        ini.Etapa,
		})
	}
	return stored, nil
}

func (s *Service) DeleteRegistro(ctx context.Context, session Session, iniciativaID, registroID string) error {
	if err := s.requireAccess(ctx, session, iniciativaID); err != nil {
		return err
	}
	if err := s.store.DeleteRegistro(ctx, registroID, iniciativaID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteRegistro(registroID)
	}
	return nil
}

// parseFecha accepts "YYYY-MM-DD"; empty means today.
func parseFecha(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	fecha, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "fecha debe tener formato YYYY-MM-DD", nil)
	}
	return fecha, nil
}

// ---- Members ----

func (s *Service) ListMembers(ctx context.Context, session Session, iniciativaID string) ([]store.MemberWithProfile, error) {
	if err := s.requireAccess(ctx, session, iniciativaID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetIniciativa(ctx, iniciativaID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, iniciativaID)
}

// InviteMember adds an existing profile to the initiative by email. The
// profile lookup happens first so a typo'd address never creates a row.
func (s *Service) InviteMember(ctx context.Context, session Session, iniciativaID string, input InviteMemberInput) (store.InitiativeMember, error) {
	ini, err := s.store.GetIniciativa(ctx, iniciativaID)
	if err != nil {
		return store.InitiativeMember{}, err
	}

	address := strings.ToLower(strings.TrimSpace(input.Email))
	if address == "" {
		return store.InitiativeMember{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email es obligatorio", nil)
	}

	profile, err := s.store.GetProfileByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.InitiativeMember{}, domainError(http.StatusNotFound, "MEMBER_NOT_FOUND", "No existe un usuario con ese correo", nil)
		}
		return store.InitiativeMember{}, err
	}

	member, err := s.store.InsertMember(ctx, store.InitiativeMember{
		ID:           util.NewID("mem"),
		IniciativaID: iniciativaID,
		UserID:       profile.ID,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateMember) {
			return store.InitiativeMember{}, domainError(http.StatusConflict, "ALREADY_MEMBER", "El usuario ya es miembro de la iniciativa", nil)
		}
		return store.InitiativeMember{}, err
	}

	if s.SMTPConfigured() {
		iniciativaURL := fmt.Sprintf("%s/iniciativas/%s", strings.TrimRight(s.cfg.AppBaseURL, "/"), ini.ID)
		go func() {
			if err := s.email.SendMemberAddedEmail(profile.Email, ini.Nombre, ini.Codigo, iniciativaURL); err != nil {
				log.Printf("email: member added notification to %s: %v", profile.Email, err)
			}
		}()
	}

	return member, nil
}

func (s *Service) RemoveMember(ctx context.Context, session Session, iniciativaID, memberID string) error {
	if _, err := s.store.GetIniciativa(ctx, iniciativaID); err != nil {
		return err
	}
	return s.store.DeleteMember(ctx, memberID, iniciativaID)
}

// ---- Adjuntos ----

// UploadAdjunto stores an attachment and returns its public URL. The caller
// links it to a registro via adjuntoUrl.
func (s *Service) UploadAdjunto(ctx context.Context, session Session, iniciativaID, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if err := s.requireAccess(ctx, session, iniciativaID); err != nil {
		return "", err
	}
	if s.attachments == nil {
		return "", domainError(http.StatusServiceUnavailable, "ADJUNTOS_UNAVAILABLE", "El almacenamiento de adjuntos no está configurado", nil)
	}
	if _, err := s.store.GetIniciativa(ctx, iniciativaID); err != nil {
		return "", err
	}
	objectPath := adjuntos.BuildObjectPath(iniciativaID, filename)
	return s.attachments.Upload(ctx, objectPath, reader, size, contentType)
}

// ---- Search ----

func (s *Service) Search(ctx context.Context, q, filterType, etapa string, limit, offset int) (search.Response, error) {
	if etapa != "" && etapa != EtapaTodas && !ValidEtapa(etapa) {
		return search.Response{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "etapa inválida", map[string]any{"etapas": Etapas})
	}
	if etapa == EtapaTodas {
		etapa = ""
	}
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q}, nil
	}
	return s.search.Search(search.Query{
		Text:        q,
		FilterType:  search.ResultType(filterType),
		FilterEtapa: etapa,
		Limit:       limit,
		Offset:      offset,
	}), nil
}

// ---- Export ----

func (s *Service) Export(ctx context.Context, session Session, iniciativaID string, format export.Format) (*export.Result, error) {
	if err := s.requireAccess(ctx, session, iniciativaID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetIniciativa(ctx, iniciativaID); err != nil {
		return nil, err
	}
	return s.export.Export(ctx, export.Request{
		IniciativaID:   iniciativaID,
		Format:         format,
		IncludeMembers: true,
	})
}
