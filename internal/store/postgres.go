package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateMember signals a unique-constraint violation on
// (iniciativa_id, user_id). Callers must be able to tell it apart from
// other write failures.
var ErrDuplicateMember = errors.New("already a member")

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- Profiles ----

func (s *PostgresStore) GetProfileByID(ctx context.Context, profileID string) (Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, role, password_hash, is_email_verified, created_at
		FROM profiles
		WHERE id=$1
	`, profileID).Scan(&p.ID, &p.Email, &p.Role, &p.PasswordHash, &p.IsEmailVerified, &p.CreatedAt)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *PostgresStore) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, role, password_hash, is_email_verified, created_at
		FROM profiles
		WHERE lower(email)=lower($1)
	`, email).Scan(&p.ID, &p.Email, &p.Role, &p.PasswordHash, &p.IsEmailVerified, &p.CreatedAt)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *PostgresStore) CreateProfile(ctx context.Context, p Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, role, password_hash, is_email_verified, verification_token)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Email, p.Role, p.PasswordHash, p.IsEmailVerified, p.VerificationToken)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountProfiles(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM profiles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) UpdateVerificationToken(ctx context.Context, profileID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET verification_token=$2, verification_expires_at=$3 WHERE id=$1
	`, profileID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("update verification token: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyProfileEmail(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET is_email_verified=TRUE, verification_token='', verification_expires_at=NULL
		WHERE verification_token=$1
			AND verification_token <> ''
			AND (verification_expires_at IS NULL OR verification_expires_at > NOW())
	`, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify email rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) UpdateProfilePassword(ctx context.Context, profileID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE profiles SET password_hash=$2 WHERE id=$1`, profileID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, profileID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, profile_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, profileID, expiresAt)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	var profileID string
	err := s.db.QueryRowContext(ctx, `
		SELECT profile_id FROM password_resets
		WHERE token=$1 AND used_at IS NULL AND expires_at > NOW()
	`, token).Scan(&profileID)
	if err != nil {
		return "", err
	}
	return profileID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE token=$1`, token)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	return nil
}

// ---- Refresh sessions / token revocation (Postgres fallback when Redis is absent) ----

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM refresh_sessions
		WHERE token_hash=$1 AND revoked_at IS NULL AND expires_at > NOW()
	`, tokenHash).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// ---- Iniciativas ----

func (s *PostgresStore) ListIniciativas(ctx context.Context) ([]Iniciativa, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, codigo, nombre, etapa, owner_id, created_at
		FROM iniciativas
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list iniciativas: %w", err)
	}
	defer rows.Close()

	items := make([]Iniciativa, 0)
	for rows.Next() {
		var item Iniciativa
		if err := rows.Scan(&item.ID, &item.Codigo, &item.Nombre, &item.Etapa, &item.OwnerID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan iniciativa: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate iniciativas: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetIniciativa(ctx context.Context, iniciativaID string) (Iniciativa, error) {
	var item Iniciativa
	err := s.db.QueryRowContext(ctx, `
		SELECT id, codigo, nombre, etapa, owner_id, created_at
		FROM iniciativas
		WHERE id=$1
	`, iniciativaID).Scan(&item.ID, &item.Codigo, &item.Nombre, &item.Etapa, &item.OwnerID, &item.CreatedAt)
	if err != nil {
		return Iniciativa{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertIniciativa(ctx context.Context, item Iniciativa) (Iniciativa, error) {
	var stored Iniciativa
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO iniciativas (id, codigo, nombre, etapa, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, codigo, nombre, etapa, owner_id, created_at
	`, item.ID, item.Codigo, item.Nombre, item.Etapa, item.OwnerID).Scan(
		&stored.ID, &stored.Codigo, &stored.Nombre, &stored.Etapa, &stored.OwnerID, &stored.CreatedAt)
	if err != nil {
		return Iniciativa{}, fmt.Errorf("insert iniciativa: %w", err)
	}
	return stored, nil
}

// UpdateIniciativa commits staged edits in a single statement and returns the
// authoritative row, so callers never merge partial local state.
func (s *PostgresStore) UpdateIniciativa(ctx context.Context, iniciativaID, codigo, nombre, etapa string) (Iniciativa, error) {
	var stored Iniciativa
	err := s.db.QueryRowContext(ctx, `
		UPDATE iniciativas
		SET codigo=$2, nombre=$3, etapa=$4
		WHERE id=$1
		RETURNING id, codigo, nombre, etapa, owner_id, created_at
	`, iniciativaID, codigo, nombre, etapa).Scan(
		&stored.ID, &stored.Codigo, &stored.Nombre, &stored.Etapa, &stored.OwnerID, &stored.CreatedAt)
	if err != nil {
		return Iniciativa{}, err
	}
	return stored, nil
}

func (s *PostgresStore) UpdateIniciativaEtapa(ctx context.Context, iniciativaID, etapa string) (Iniciativa, error) {
	var stored Iniciativa
	err := s.db.QueryRowContext(ctx, `
		UPDATE iniciativas
		SET etapa=$2
		WHERE id=$1
		RETURNING id, codigo, nombre, etapa, owner_id, created_at
	`, iniciativaID, etapa).Scan(
		&stored.ID, &stored.Codigo, &stored.Nombre, &stored.Etapa, &stored.OwnerID, &stored.CreatedAt)
	if err != nil {
		return Iniciativa{}, err
	}
	return stored, nil
}

// DeleteIniciativa removes the registros, the memberships, and the iniciativa
// row in one transaction. Either everything goes or nothing does.
func (s *PostgresStore) DeleteIniciativa(ctx context.Context, iniciativaID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete iniciativa: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bitacora_registros WHERE iniciativa_id=$1`, iniciativaID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete registros: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM initiative_members WHERE iniciativa_id=$1`, iniciativaID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM iniciativas WHERE id=$1`, iniciativaID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete iniciativa: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete iniciativa: %w", err)
	}
	return nil
}

// ---- Bitácora registros ----

// ListRegistros orders newest-first; created_at breaks fecha ties so the most
// recently inserted entry wins.
func (s *PostgresStore) ListRegistros(ctx context.Context, iniciativaID string) ([]BitacoraRegistro, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, iniciativa_id, fecha, descripcion, adjunto_url, created_at
		FROM bitacora_registros
		WHERE iniciativa_id=$1
		ORDER BY fecha DESC, created_at DESC
	`, iniciativaID)
	if err != nil {
		return nil, fmt.Errorf("list registros: %w", err)
	}
	defer rows.Close()

	items := make([]BitacoraRegistro, 0)
	for rows.Next() {
		var item BitacoraRegistro
		if err := rows.Scan(&item.ID, &item.IniciativaID, &item.Fecha, &item.Descripcion, &item.AdjuntoURL, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registro: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registros: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertRegistro(ctx context.Context, item BitacoraRegistro) (BitacoraRegistro, error) {
	var stored BitacoraRegistro
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO bitacora_registros (id, iniciativa_id, fecha, descripcion, adjunto_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, iniciativa_id, fecha, descripcion, adjunto_url, created_at
	`, item.ID, item.IniciativaID, item.Fecha, item.Descripcion, item.AdjuntoURL).Scan(
		&stored.ID, &stored.IniciativaID, &stored.Fecha, &stored.Descripcion, &stored.AdjuntoURL, &stored.CreatedAt)
	if err != nil {
		return BitacoraRegistro{}, fmt.Errorf("insert registro: %w", err)
	}
	return stored, nil
}

// UpdateRegistro is scoped to the owning iniciativa so a registro can never
// be mutated through another initiative's URL; a scope miss reads as
// sql.ErrNoRows with no row touched.
func (s *PostgresStore) UpdateRegistro(ctx context.Context, registroID, iniciativaID string, fecha time.Time, descripcion string, adjuntoURL *string) (BitacoraRegistro, error) {
	var stored BitacoraRegistro
	err := s.db.QueryRowContext(ctx, `
		UPDATE bitacora_registros
		SET fecha=$3, descripcion=$4, adjunto_url=$5
		WHERE id=$1 AND iniciativa_id=$2
		RETURNING id, iniciativa_id, fecha, descripcion, adjunto_url, created_at
	`, registroID, iniciativaID, fecha, descripcion, adjuntoURL).Scan(
		&stored.ID, &stored.IniciativaID, &stored.Fecha, &stored.Descripcion, &stored.AdjuntoURL, &stored.CreatedAt)
	if err != nil {
		return BitacoraRegistro{}, err
	}
	return stored, nil
}

func (s *PostgresStore) DeleteRegistro(ctx context.Context, registroID, iniciativaID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM bitacora_registros WHERE id=$1 AND iniciativa_id=$2
	`, registroID, iniciativaID)
	if err != nil {
		return fmt.Errorf("delete registro: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete registro rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ---- Initiative members ----

func (s *PostgresStore) ListMembers(ctx context.Context, iniciativaID string) ([]MemberWithProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.iniciativa_id, m.user_id, m.added_at, p.email, p.role
		FROM initiative_members m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.iniciativa_id=$1
		ORDER BY m.added_at ASC
	`, iniciativaID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	items := make([]MemberWithProfile, 0)
	for rows.Next() {
		var item MemberWithProfile
		if err := rows.Scan(&item.ID, &item.IniciativaID, &item.UserID, &item.AddedAt, &item.Email, &item.Role); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertMember(ctx context.Context, item InitiativeMember) (InitiativeMember, error) {
	var stored InitiativeMember
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO initiative_members (id, iniciativa_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, iniciativa_id, user_id, added_at
	`, item.ID, item.IniciativaID, item.UserID).Scan(
		&stored.ID, &stored.IniciativaID, &stored.UserID, &stored.AddedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return InitiativeMember{}, ErrDuplicateMember
		}
		return InitiativeMember{}, fmt.Errorf("insert member: %w", err)
	}
	return stored, nil
}

func (s *PostgresStore) DeleteMember(ctx context.Context, memberID, iniciativaID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM initiative_members WHERE id=$1 AND iniciativa_id=$2
	`, memberID, iniciativaID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete member rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ---- Membership visibility ----

func (s *PostgresStore) IsMember(ctx context.Context, iniciativaID, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM initiative_members WHERE iniciativa_id=$1 AND user_id=$2
			UNION
			SELECT 1 FROM iniciativas WHERE id=$1 AND owner_id=$2
		)
	`, iniciativaID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}
