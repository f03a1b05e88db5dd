package store

import "time"

// Profile is the authenticated identity record. Its id matches the session
// subject; role is the single source of truth for permission checks.
type Profile struct {
	ID                    string
	Email                 string
	Role                  string
	PasswordHash          string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
}

type Iniciativa struct {
	ID        string
	Codigo    string
	Nombre    string
	Etapa     string
	OwnerID   string
	CreatedAt time.Time
}

type BitacoraRegistro struct {
	ID           string
	IniciativaID string
	Fecha        time.Time
	Descripcion  string
	AdjuntoURL   *string
	CreatedAt    time.Time
}

type InitiativeMember struct {
	ID           string
	IniciativaID string
	UserID       string
	AddedAt      time.Time
}

// MemberWithProfile joins a membership row with its profile for API responses.
type MemberWithProfile struct {
	InitiativeMember
	Email string
	Role  string
}
