package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/newsletter-manager/internal/catalog"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
)

const recordColumns = "number, title, subject, body, status, created_at, updated_at"

// storedRecord is a records row.
type storedRecord struct {
	model.EmailRecord
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// checkRecord validates the fields the schema constrains and fills in a
// derived status when none is set.
func checkRecord(rec model.EmailRecord) (model.EmailRecord, error) {
	if rec.Number < model.MinNumber || rec.Number > model.MaxNumber {
		return rec, &record.RangeError{Number: rec.Number}
	}
	if rec.Status == "" {
		rec.Status = record.DeriveStatus(rec.Body)
	}
	if !rec.Status.Valid() {
		return rec, fmt.Errorf("invalid status %q for record %d", rec.Status, rec.Number)
	}
	return rec, nil
}

// CreateRecord inserts a new record. It returns ErrExists when the number
// is taken.
func (s *SQLiteStore) CreateRecord(ctx context.Context, rec model.EmailRecord) error {
	rec, err := checkRecord(rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRecord(ctx, tx, rec, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func insertRecord(ctx context.Context, tx *sqlx.Tx, rec model.EmailRecord, now time.Time) error {
	exists, err := recordExists(ctx, tx, rec.Number)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("creating record %d: %w", rec.Number, ErrExists)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (
			number, title, subject, body, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Number, rec.Title, rec.Subject, rec.Body, rec.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("creating record %d: %w", rec.Number, err)
	}
	return nil
}

func recordExists(ctx context.Context, tx *sqlx.Tx, number int) (bool, error) {
	var count int
	err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM records WHERE number = ?", number)
	if err != nil {
		return false, fmt.Errorf("checking record %d: %w", number, err)
	}
	return count > 0, nil
}

// UpdateRecord replaces number, title, subject, body and status of the
// record currently stored under number. Moving a record to a number that is
// already taken returns ErrExists.
func (s *SQLiteStore) UpdateRecord(
	ctx context.Context,
	number int,
	rec model.EmailRecord,
) error {
	rec, err := checkRecord(rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if rec.Number != number {
		exists, err := recordExists(ctx, tx, rec.Number)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("moving record %d to %d: %w", number, rec.Number, ErrExists)
		}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE records SET
			number = ?, title = ?, subject = ?, body = ?, status = ?,
			updated_at = ?
		WHERE number = ?`,
		rec.Number, rec.Title, rec.Subject, rec.Body, rec.Status,
		time.Now().UTC(),
		number,
	)
	if err != nil {
		return fmt.Errorf("updating record %d: %w", number, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating record %d: %w", number, ErrNotFound)
	}
	return tx.Commit()
}

// SetStatus overrides the stored status of a record.
func (s *SQLiteStore) SetStatus(
	ctx context.Context,
	number int,
	status model.Status,
) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE records SET status = ?, updated_at = ? WHERE number = ?",
		status, time.Now().UTC(), number,
	)
	if err != nil {
		return fmt.Errorf("setting status of record %d: %w", number, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("setting status of record %d: %w", number, ErrNotFound)
	}
	return nil
}

// DeleteRecords removes the given records and returns how many were
// deleted. It returns ErrNotFound when none of them existed.
func (s *SQLiteStore) DeleteRecords(ctx context.Context, numbers ...int) (int, error) {
	if len(numbers) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In("DELETE FROM records WHERE number IN (?)", numbers)
	if err != nil {
		return 0, fmt.Errorf("building delete query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, fmt.Errorf("deleting records %v: %w", numbers, ErrNotFound)
	}
	return int(rows), nil
}

// GetRecord retrieves a single record by number.
func (s *SQLiteStore) GetRecord(
	ctx context.Context,
	number int,
) (*model.EmailRecord, error) {
	var row storedRecord
	err := s.db.GetContext(ctx, &row,
		"SELECT "+recordColumns+" FROM records WHERE number = ?", number,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting record %d: %w", number, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting record %d: %w", number, err)
	}
	return &row.EmailRecord, nil
}

// ListRecords retrieves records matching the filter.
func (s *SQLiteStore) ListRecords(
	ctx context.Context,
	filter RecordFilter,
) ([]model.EmailRecord, error) {
	query, args := buildRecordQuery("SELECT "+recordColumns, filter, true)

	var rows []storedRecord
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}

	records := make([]model.EmailRecord, len(rows))
	for i, r := range rows {
		records[i] = r.EmailRecord
	}
	return records, nil
}

// CountRecords returns the count of records matching the filter.
func (s *SQLiteStore) CountRecords(
	ctx context.Context,
	filter RecordFilter,
) (int, error) {
	query, args := buildRecordQuery("SELECT COUNT(*)", filter, false)

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// ImportRecords stores records in one transaction. Numbers already present
// are replaced when overwrite is set and skipped otherwise. Status is
// derived from each body.
func (s *SQLiteStore) ImportRecords(
	ctx context.Context,
	records []model.EmailRecord,
	overwrite bool,
) (ImportSummary, error) {
	var summary ImportSummary

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, rec := range records {
		rec.Status = ""
		rec, err := checkRecord(rec)
		if err != nil {
			return ImportSummary{}, err
		}

		exists, err := recordExists(ctx, tx, rec.Number)
		if err != nil {
			return ImportSummary{}, err
		}
		switch {
		case !exists:
			if err := insertRecord(ctx, tx, rec, now); err != nil {
				return ImportSummary{}, err
			}
			summary.Imported++
		case overwrite:
			_, err := tx.ExecContext(ctx, `
				UPDATE records SET
					title = ?, subject = ?, body = ?, status = ?, updated_at = ?
				WHERE number = ?`,
				rec.Title, rec.Subject, rec.Body, rec.Status, now, rec.Number,
			)
			if err != nil {
				return ImportSummary{}, fmt.Errorf("overwriting record %d: %w", rec.Number, err)
			}
			summary.Updated++
		default:
			summary.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportSummary{}, fmt.Errorf("committing import: %w", err)
	}
	return summary, nil
}

// SaveRecords writes title, subject, body and status of existing records in
// one transaction. A record that is not stored aborts the whole save with
// ErrNotFound.
func (s *SQLiteStore) SaveRecords(ctx context.Context, records []model.EmailRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, rec := range records {
		rec, err := checkRecord(rec)
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `
			UPDATE records SET
				title = ?, subject = ?, body = ?, status = ?, updated_at = ?
			WHERE number = ?`,
			rec.Title, rec.Subject, rec.Body, rec.Status, now, rec.Number,
		)
		if err != nil {
			return fmt.Errorf("saving record %d: %w", rec.Number, err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("saving record %d: %w", rec.Number, ErrNotFound)
		}
	}

	return tx.Commit()
}

// ReplaceAll swaps the stored collection for records, as when restoring a
// backup.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, records []model.EmailRecord) error {
	if err := record.CheckUnique(records); err != nil {
		return fmt.Errorf("replacing records: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}

	now := time.Now().UTC()
	for _, rec := range records {
		rec, err := checkRecord(rec)
		if err != nil {
			return err
		}
		if err := insertRecord(ctx, tx, rec, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// buildRecordQuery constructs the SQL query and args for a RecordFilter.
func buildRecordQuery(selectClause string, filter RecordFilter, paged bool) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	const emptyBody = "(TRIM(body, ' ' || char(9) || char(10) || char(13)) = '' OR " +
		"LOWER(TRIM(body, ' ' || char(9) || char(10) || char(13))) = '" + model.MissingMarker + "')"

	switch filter.Completion {
	case model.CompletionCompleted:
		conditions = append(conditions, "NOT "+emptyBody)
	case model.CompletionPending:
		conditions = append(conditions, emptyBody)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		// instr keeps % and _ literal; casefold matches catalog.Search.
		conditions = append(conditions,
			"(instr(CAST(number AS TEXT), ?) > 0 OR instr(casefold(title), ?) > 0 OR "+
				"instr(casefold(subject), ?) > 0 OR instr(casefold(body), ?) > 0)")
		needle := catalog.FoldCase(q)
		args = append(args, needle, needle, needle, needle)
	}

	query := selectClause + " FROM records"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if !paged {
		return query, args
	}

	// Sort.
	sortBy := "number"
	if filter.SortBy != "" {
		allowed := map[string]string{
			"number":     "number",
			"title":      "title COLLATE NOCASE",
			"subject":    "subject COLLATE NOCASE",
			"status":     "status",
			"created_at": "created_at",
			"updated_at": "updated_at",
		}
		if col, ok := allowed[filter.SortBy]; ok {
			sortBy = col
		}
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, number ASC", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}
