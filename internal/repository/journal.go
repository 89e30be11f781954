package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/entity"
)

// JournalRepository persists journal entry legs. Entries are insert-only;
// the sole mutation is deletion, either explicit (reprocess) or cascading
// from document deletion.
type JournalRepository interface {
	// InsertBatch writes all legs, skipping any that already exist for the
	// same (document, group, account); this is the guard against
	// double-posting races. Returns the number actually inserted.
	InsertBatch(ctx context.Context, entries []entity.JournalEntry) (int64, error)
	CountByDocument(ctx context.Context, documentID uuid.UUID) (int, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.JournalEntry, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]entity.JournalEntry, error)
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) (int64, error)
}

type journalRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewJournalRepository(pool *pgxpool.Pool, logger *slog.Logger) JournalRepository {
	return &journalRepository{pool: pool, logger: logger}
}

const journalColumns = `id, journal_group_id, entry_date, account_code, account_name,
	debit_amount, credit_amount, narration, document_id, tenant_id, created_by, created_at`

const insertEntrySQL = `
	INSERT INTO journal_entries (id, journal_group_id, entry_date, account_code, account_name,
		debit_amount, credit_amount, narration, document_id, tenant_id, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (document_id, journal_group_id, account_code) DO NOTHING`

func (r *journalRepository) InsertBatch(ctx context.Context, entries []entity.JournalEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(insertEntrySQL,
			e.ID, e.JournalGroupID, e.EntryDate, e.AccountCode, e.AccountName,
			e.DebitAmount, e.CreditAmount, e.Narration, e.DocumentID, e.TenantID, e.CreatedBy, e.CreatedAt,
		)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer func() {
		if cerr := br.Close(); cerr != nil {
			r.logger.Warn("journal.insert.batch_close_error", "error", cerr)
		}
	}()

	var inserted int64
	for range entries {
		tag, err := br.Exec()
		if err != nil {
			r.logger.Error("journal.insert.failed", "error", err)
			return inserted, common.NewAppError("STORAGE_ERROR", "insert journal entries", common.ErrDatabase)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func (r *journalRepository) CountByDocument(ctx context.Context, documentID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM journal_entries WHERE document_id = $1`, documentID,
	).Scan(&n)
	if err != nil {
		r.logger.Error("journal.count.failed", "document_id", documentID, "error", err)
		return 0, common.NewAppError("STORAGE_ERROR", "count journal entries", common.ErrDatabase)
	}
	return n, nil
}

func (r *journalRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.JournalEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+journalColumns+` FROM journal_entries WHERE document_id = $1 ORDER BY created_at, account_code`,
		documentID,
	)
	if err != nil {
		return nil, common.NewAppError("STORAGE_ERROR", "list journal entries", common.ErrDatabase)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *journalRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]entity.JournalEntry, error) {
	q := `SELECT ` + journalColumns + ` FROM journal_entries WHERE tenant_id = $1`
	args := []any{tenantID}
	if from != nil {
		args = append(args, *from)
		q += ` AND entry_date >= $2`
	}
	if to != nil {
		args = append(args, *to)
		if from != nil {
			q += ` AND entry_date <= $3`
		} else {
			q += ` AND entry_date <= $2`
		}
	}
	q += ` ORDER BY entry_date, journal_group_id, account_code`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, common.NewAppError("STORAGE_ERROR", "list journal entries", common.ErrDatabase)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *journalRepository) DeleteByDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM journal_entries WHERE document_id = $1`, documentID)
	if err != nil {
		r.logger.Error("journal.delete.failed", "document_id", documentID, "error", err)
		return 0, common.NewAppError("STORAGE_ERROR", "delete journal entries", common.ErrDatabase)
	}
	return tag.RowsAffected(), nil
}

func scanEntries(rows pgx.Rows) ([]entity.JournalEntry, error) {
	var out []entity.JournalEntry
	for rows.Next() {
		var e entity.JournalEntry
		if err := rows.Scan(
			&e.ID, &e.JournalGroupID, &e.EntryDate, &e.AccountCode, &e.AccountName,
			&e.DebitAmount, &e.CreditAmount, &e.Narration, &e.DocumentID, &e.TenantID, &e.CreatedBy, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
