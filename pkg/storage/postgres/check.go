package postgres

import (
	"context"
	"fmt"

	"anagram/pkg/domain"
	"anagram/pkg/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	checksTable = "checks"
)

// Ensure PgSQL implements storage.Storage and storage.TxStorage.
var (
	_ storage.Storage   = (*PgSQL)(nil)
	_ storage.TxStorage = (*PgSQL)(nil)
)

func (p *PgSQL) StoreChecks(ctx context.Context, checks ...domain.Check) ([]domain.Check, error) {
	if len(checks) == 0 {
		return nil, nil
	}

	pgChecks, err := domainChecksToPg(checks)
	if err != nil {
		return nil, err
	}

	var result []PgCheck
	if err := p.Builder.Insert(checksTable).
		Rows(pgChecks).
		Returning(&PgCheck{}).
		Executor().ScanStructsContext(ctx, &result); err != nil {
		return nil, fmt.Errorf("could not store checks into pg: %w", err)
	}

	return pgChecksToDomain(result)
}

// UpdateCheckByID updates a single check. Attempts is incremented by 1 and
// updated_at is set on every call.
func (p *PgSQL) UpdateCheckByID(ctx context.Context,
	id domain.CheckID,
	updates storage.CheckUpdates) (*domain.Check, error) {
	rec := goqu.Record{
		"updated_at": goqu.L("CURRENT_TIMESTAMP"),
		"attempts":   goqu.L("attempts + 1"),
	}
	switch {
	case updates.Status == domain.CheckStatusFailed && updates.MaxAttempts > 0:
		// keep the current status until the attempts budget is used up
		rec["status"] = goqu.Case().
			When(goqu.L("attempts + 1").Gte(updates.MaxAttempts), string(domain.CheckStatusFailed)).
			Else(goqu.I("status"))
	case updates.Status != "":
		rec["status"] = string(updates.Status)
	}
	if updates.Result != nil {
		result, err := marshalResult(updates.Result)
		if err != nil {
			return nil, err
		}

		rec["result"] = result
	}
	if updates.LastError != nil {
		if *updates.LastError == "" {
			rec["last_error"] = goqu.L("NULL")
		} else {
			rec["last_error"] = *updates.LastError
		}
	}

	var row PgCheck
	found, err := p.Builder.Update(checksTable).
		Set(rec).
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("deleted_at").IsNull(),
		).
		Returning(&PgCheck{}).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not update check in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// DeleteCheck performs a soft delete by setting deleted_at.
func (p *PgSQL) DeleteCheck(ctx context.Context, userID domain.UserID, id domain.CheckID) (*domain.Check, error) {
	var row PgCheck
	found, err := p.Builder.Update(checksTable).
		Set(goqu.Record{
			"deleted_at": goqu.L("CURRENT_TIMESTAMP"),
		}).Where(
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("user_id").Eq(uuid.UUID(userID)),
		goqu.I("deleted_at").IsNull(),
	).Returning(&PgCheck{}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not delete check in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// UserChecks returns a page of a user's checks ordered by created_at DESC,
// id DESC.
func (p *PgSQL) UserChecks(ctx context.Context,
	userID domain.UserID,
	status domain.CheckStatus,
	cursor *storage.Cursor,
	limit uint) (storage.UserChecks, error) {
	w := []goqu.Expression{
		goqu.I("user_id").Eq(uuid.UUID(userID)),
		goqu.I("deleted_at").IsNull(),
	}
	if status != "" {
		w = append(w, goqu.I("status").Eq(string(status)))
	}
	if cursor != nil {
		// (created_at, id) < (cursor.CreatedAt, cursor.ID)
		w = append(w, goqu.Or(
			goqu.I("created_at").Lt(cursor.CreatedAt),
			goqu.And(
				goqu.I("created_at").Eq(cursor.CreatedAt),
				goqu.I("id").Lt(uuid.UUID(cursor.ID)),
			),
		))
	}

	// fetch one extra to determine if there is a next page
	ds := p.Builder.From(checksTable).
		Where(w...).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Limit(limit + 1)

	var rows []PgCheck
	if err := ds.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return storage.UserChecks{}, fmt.Errorf("could not fetch user checks from pg: %w", err)
	}

	var nextCursor *storage.Cursor
	if uint(len(rows)) > limit {
		rows = rows[:limit]
		if limit > 0 {
			last := rows[len(rows)-1]
			nextCursor = &storage.Cursor{CreatedAt: last.CreatedAt, ID: domain.CheckID(last.ID)}
		}
	}

	checks, err := pgChecksToDomain(rows)
	if err != nil {
		return storage.UserChecks{}, err
	}

	return storage.UserChecks{
		Checks:     checks,
		NextCursor: nextCursor,
	}, nil
}

// CheckByID returns a user's check, excluding soft-deleted rows.
func (p *PgSQL) CheckByID(ctx context.Context, userID domain.UserID, id domain.CheckID) (*domain.Check, error) {
	return p.findCheck(ctx,
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("user_id").Eq(uuid.UUID(userID)),
		goqu.I("deleted_at").IsNull(),
	)
}

// PendingCheckByID returns a pending check regardless of its owner.
func (p *PgSQL) PendingCheckByID(ctx context.Context, id domain.CheckID) (*domain.Check, error) {
	return p.findCheck(ctx,
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("status").Eq(string(domain.CheckStatusPending)),
		goqu.I("deleted_at").IsNull(),
	)
}

func (p *PgSQL) findCheck(ctx context.Context, where ...goqu.Expression) (*domain.Check, error) {
	var row PgCheck
	found, err := p.Builder.From(checksTable).
		Where(where...).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch check: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}
