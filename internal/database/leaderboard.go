package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"uocsclub.net/hrlb/internal/types"
)

// StoreSnapshot saves an exported row table as the newest snapshot of a contest.
func (d *DatabaseInst) StoreSnapshot(contestSlug string, rows []types.Row) (*types.Snapshot, error) {
	d.dbLock.Lock()
	defer d.dbLock.Unlock()

	snapshot := &types.Snapshot{
		Id:          uuid.NewString(),
		ContestSlug: contestSlug,
		CreatedAt:   time.Now().UTC(),
		Rows:        rows,
	}

	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec("INSERT INTO snapshot (id, contest_slug, created_at) VALUES (?, ?, ?);", snapshot.Id, contestSlug, snapshot.CreatedAt.UnixNano())
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	stmt, err := tx.Prepare("INSERT INTO snapshot_row (snapshot_id, position, rank, user_name, solved_count, time_taken) VALUES (?, ?, ?, ?, ?, ?);")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	defer stmt.Close()

	for i, row := range rows {
		_, err = stmt.Exec(snapshot.Id, i, nullInt(row.Rank), nullString(row.User), nullInt(row.SolvedCount), nullString(row.TimeTaken))
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// GetLatestSnapshot returns nil without an error when the contest has never
// been stored.
func (d *DatabaseInst) GetLatestSnapshot(contestSlug string) (*types.Snapshot, error) {
	d.dbLock.Lock()
	defer d.dbLock.Unlock()

	snapshot := &types.Snapshot{ContestSlug: contestSlug, Rows: []types.Row{}}
	var createdAt int64

	row := d.db.QueryRow("SELECT id, created_at FROM snapshot WHERE contest_slug = ? ORDER BY created_at DESC LIMIT 1", contestSlug)
	if err := row.Scan(&snapshot.Id, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	snapshot.CreatedAt = time.Unix(0, createdAt).UTC()

	rows, err := d.db.Query("SELECT rank, user_name, solved_count, time_taken FROM snapshot_row WHERE snapshot_id = ? ORDER BY position", snapshot.Id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rank, solved sql.NullInt64
		var user, timeTaken sql.NullString

		if err = rows.Scan(&rank, &user, &solved, &timeTaken); err != nil {
			return nil, err
		}

		snapshot.Rows = append(snapshot.Rows, types.Row{
			Rank:        intOrNA(rank),
			User:        stringOrNA(user),
			SolvedCount: intOrNA(solved),
			TimeTaken:   stringOrNA(timeTaken),
		})
	}

	return snapshot, rows.Err()
}

// ListSnapshots describes the newest snapshot of every stored contest.
func (d *DatabaseInst) ListSnapshots() ([]*types.SnapshotInfo, error) {
	d.dbLock.Lock()
	defer d.dbLock.Unlock()

	rows, err := d.db.Query(`SELECT
			s.id,
			s.contest_slug,
			s.created_at,
			(SELECT COUNT(*) FROM snapshot_row r WHERE r.snapshot_id = s.id)
		FROM snapshot AS s
		WHERE s.created_at = (SELECT MAX(created_at) FROM snapshot WHERE contest_slug = s.contest_slug)
		ORDER BY s.contest_slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	output := []*types.SnapshotInfo{}

	for rows.Next() {
		info := &types.SnapshotInfo{}
		var createdAt int64

		if err = rows.Scan(&info.Id, &info.ContestSlug, &createdAt, &info.RowCount); err != nil {
			return nil, err
		}
		info.CreatedAt = time.Unix(0, createdAt).UTC()

		output = append(output, info)
	}

	return output, rows.Err()
}

func nullInt(v any) sql.NullInt64 {
	if i, ok := v.(int); ok {
		return sql.NullInt64{Int64: int64(i), Valid: true}
	}
	return sql.NullInt64{}
}

func nullString(v any) sql.NullString {
	s, ok := v.(string)
	if !ok || s == types.NotAvailable {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func intOrNA(v sql.NullInt64) any {
	if !v.Valid {
		return types.NotAvailable
	}
	return int(v.Int64)
}

func stringOrNA(v sql.NullString) any {
	if !v.Valid {
		return types.NotAvailable
	}
	return v.String
}
