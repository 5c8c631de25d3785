package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/phrazzld/handset/internal/contacts"
	"github.com/phrazzld/handset/internal/platform/logger"
	"github.com/phrazzld/handset/internal/store"
)

const contactColumns = `id, given_name, family_name, name, tel, email, org, note, updated_at`

// ContactStore implements contacts.Store on the contacts table. Normalised
// phone numbers and e-mails are stored alongside the originals so duplicate
// lookups run on indexed arrays.
type ContactStore struct {
	db     store.DBTX
	logger *slog.Logger
	types  *pgtype.Map
}

var _ contacts.Store = (*ContactStore)(nil)

// NewContactStore creates a ContactStore. If logger is nil, a default
// logger will be used.
func NewContactStore(db store.DBTX, logger *slog.Logger) *ContactStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactStore{
		db:     db,
		logger: logger.With(slog.String("component", "contact_store")),
		types:  pgtype.NewMap(),
	}
}

// WithTx returns a store running its queries in tx.
func (s *ContactStore) WithTx(tx *sql.Tx) *ContactStore {
	return &ContactStore{db: tx, logger: s.logger, types: s.types}
}

// FindDuplicate mirrors contacts.Contact.Matches: phone or e-mail overlap,
// or the display name when the incoming record has neither.
func (s *ContactStore) FindDuplicate(ctx context.Context, c contacts.Contact) (contacts.Contact, bool, error) {
	tel, email := c.NormalizedTel(), c.NormalizedEmail()

	var row *sql.Row
	if len(tel) == 0 && len(email) == 0 {
		name := strings.ToLower(c.DisplayName())
		if name == "" {
			return contacts.Contact{}, false, nil
		}
		row = s.db.QueryRowContext(ctx, `
			SELECT `+contactColumns+` FROM contacts
			WHERE display_name = $1
			ORDER BY seq LIMIT 1`, name)
	} else {
		row = s.db.QueryRowContext(ctx, `
			SELECT `+contactColumns+` FROM contacts
			WHERE tel_normalized && $1 OR email_normalized && $2
			ORDER BY seq LIMIT 1`, tel, email)
	}

	found, err := s.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contacts.Contact{}, false, nil
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("duplicate lookup failed",
			slog.String("error", err.Error()))
		return contacts.Contact{}, false, store.NewStoreError("contact", "find_duplicate", "query failed", MapError(err))
	}
	return found, true, nil
}

func (s *ContactStore) Create(ctx context.Context, c contacts.Contact) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if c.ID == uuid.Nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, contacts.ErrContactIDEmpty)
	}

	const query = `
		INSERT INTO contacts (id, given_name, family_name, name, display_name,
			tel, email, tel_normalized, email_normalized, org, note, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query, s.args(c)...)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("contact already exists", slog.String("contact_id", c.ID.String()))
			return fmt.Errorf("%w: %w", store.ErrContactExists, err)
		}
		log.Error("failed to create contact",
			slog.String("contact_id", c.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("contact", "create", "insert failed", MapError(err))
	}
	log.Debug("contact created", slog.String("contact_id", c.ID.String()))
	return nil
}

func (s *ContactStore) Update(ctx context.Context, c contacts.Contact) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	const query = `
		UPDATE contacts SET given_name = $2, family_name = $3, name = $4,
			display_name = $5, tel = $6, email = $7, tel_normalized = $8,
			email_normalized = $9, org = $10, note = $11, updated_at = $12
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, s.args(c)...)
	if err != nil {
		log.Error("failed to update contact",
			slog.String("contact_id", c.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("contact", "update", "update failed", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrContactNotFound); err != nil {
		return err
	}
	log.Debug("contact updated", slog.String("contact_id", c.ID.String()))
	return nil
}

func (s *ContactStore) Get(ctx context.Context, id uuid.UUID) (contacts.Contact, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	c, err := s.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contacts.Contact{}, store.ErrContactNotFound
		}
		return contacts.Contact{}, store.NewStoreError("contact", "get", "query failed", MapError(err))
	}
	return c, nil
}

func (s *ContactStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM contacts`).Scan(&n); err != nil {
		return 0, store.NewStoreError("contact", "count", "query failed", MapError(err))
	}
	return n, nil
}

func (s *ContactStore) args(c contacts.Contact) []any {
	return []any{
		c.ID,
		c.GivenName,
		c.FamilyName,
		c.Name,
		strings.ToLower(c.DisplayName()),
		nonNil(c.Tel),
		nonNil(c.Email),
		c.NormalizedTel(),
		c.NormalizedEmail(),
		c.Org,
		c.Note,
		c.UpdatedAt,
	}
}

func (s *ContactStore) scan(row *sql.Row) (contacts.Contact, error) {
	var c contacts.Contact
	err := row.Scan(
		&c.ID,
		&c.GivenName,
		&c.FamilyName,
		&c.Name,
		s.types.SQLScanner(&c.Tel),
		s.types.SQLScanner(&c.Email),
		&c.Org,
		&c.Note,
		&c.UpdatedAt,
	)
	if err != nil {
		return contacts.Contact{}, err
	}
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
