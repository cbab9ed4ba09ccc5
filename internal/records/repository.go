package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aslanbek/fieldlog/internal/media"
)

const repoTimeout = 5 * time.Second

// Repository provides access to activity record storage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new records repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new activity record.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	attachments, err := marshalAttachments(rec.Attachments)
	if err != nil {
		return Record{}, err
	}

	query := `
INSERT INTO activity_records (id, owner_id, title, notes, activity_type, occurred_at, attachments)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, owner_id, title, notes, activity_type, occurred_at, attachments, created_at, updated_at;`

	row := r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.OwnerID,
		rec.Title,
		rec.Notes,
		rec.ActivityType,
		rec.OccurredAt,
		attachments,
	)

	stored, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("create record: %w", err)
	}
	return stored, nil
}

// List returns the user's records, most recent activity first.
func (r *Repository) List(ctx context.Context, ownerID uuid.UUID) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, owner_id, title, notes, activity_type, occurred_at, attachments, created_at, updated_at
FROM activity_records
WHERE owner_id = $1
ORDER BY occurred_at DESC;`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var list []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return list, nil
}

// Get fetches a single record ensuring ownership.
func (r *Repository) Get(ctx context.Context, ownerID, recordID uuid.UUID) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, owner_id, title, notes, activity_type, occurred_at, attachments, created_at, updated_at
FROM activity_records
WHERE id = $1 AND owner_id = $2;`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, recordID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// AppendAttachments appends entries to the record's attachment list. The
// append happens inside the UPDATE itself, so concurrent batches on the same
// record cannot overwrite each other's merges.
func (r *Repository) AppendAttachments(ctx context.Context, ownerID, recordID uuid.UUID, attachments []media.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	payload, err := marshalAttachments(attachments)
	if err != nil {
		return err
	}

	query := `
UPDATE activity_records
SET attachments = attachments || $1::jsonb, updated_at = NOW()
WHERE id = $2 AND owner_id = $3;`

	tag, err := r.pool.Exec(ctx, query, payload, recordID, ownerID)
	if err != nil {
		return fmt.Errorf("append attachments: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// UpdateAttachments replaces the record's attachment list.
func (r *Repository) UpdateAttachments(ctx context.Context, ownerID, recordID uuid.UUID, attachments []media.Attachment) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	payload, err := marshalAttachments(attachments)
	if err != nil {
		return err
	}

	query := `
UPDATE activity_records
SET attachments = $1, updated_at = NOW()
WHERE id = $2 AND owner_id = $3;`

	tag, err := r.pool.Exec(ctx, query, payload, recordID, ownerID)
	if err != nil {
		return fmt.Errorf("update attachments: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Delete removes a record and returns the deleted row.
func (r *Repository) Delete(ctx context.Context, ownerID, recordID uuid.UUID) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
DELETE FROM activity_records
WHERE id = $1 AND owner_id = $2
RETURNING id, owner_id, title, notes, activity_type, occurred_at, attachments, created_at, updated_at;`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, recordID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, fmt.Errorf("delete record: %w", err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var attachments []byte
	if err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Title,
		&rec.Notes,
		&rec.ActivityType,
		&rec.OccurredAt,
		&attachments,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return Record{}, err
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &rec.Attachments); err != nil {
			return Record{}, fmt.Errorf("decode attachments: %w", err)
		}
		for i := range rec.Attachments {
			kind, ok := media.ParseKind(string(rec.Attachments[i].Kind))
			if !ok {
				kind = media.KindOther
			}
			rec.Attachments[i].Kind = kind
		}
	}
	return rec, nil
}

func marshalAttachments(attachments []media.Attachment) ([]byte, error) {
	if attachments == nil {
		attachments = []media.Attachment{}
	}
	payload, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}
	return payload, nil
}
