package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"anagram/pkg/domain"

	"github.com/google/uuid"
)

// PgCheck is the row representation of a check in the checks table.
type PgCheck struct {
	ID     uuid.UUID `db:"id"      goqu:"skipinsert"`
	UserID uuid.UUID `db:"user_id"`

	A      string `db:"a"`
	B      string `db:"b"`
	Status string `db:"status"`
	// Result holds the JSON encoded domain.CheckResult; NULL while pending.
	Result sql.NullString `db:"result"`

	Attempts  uint           `db:"attempts"   goqu:"skipinsert"`
	LastError sql.NullString `db:"last_error" goqu:"skipinsert"`

	CreatedAt time.Time    `db:"created_at" goqu:"skipinsert"`
	UpdatedAt sql.NullTime `db:"updated_at" goqu:"skipinsert"`
	DeletedAt sql.NullTime `db:"deleted_at" goqu:"skipinsert"`
}

func (p *PgCheck) ToDomain() (*domain.Check, error) {
	var result *domain.CheckResult
	if p.Result.Valid {
		result = &domain.CheckResult{}
		if err := json.Unmarshal([]byte(p.Result.String), result); err != nil {
			return nil, fmt.Errorf("could not unmarshal check result: %w", err)
		}
	}

	return &domain.Check{
		ID:        domain.CheckID(p.ID),
		UserID:    domain.UserID(p.UserID),
		A:         p.A,
		B:         p.B,
		Status:    domain.CheckStatus(p.Status),
		Result:    result,
		Attempts:  p.Attempts,
		LastError: p.LastError.String,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt.Time,
		DeletedAt: p.DeletedAt.Time,
	}, nil
}

func (p *PgCheck) FromDomain(check domain.Check) error {
	result, err := marshalResult(check.Result)
	if err != nil {
		return err
	}

	*p = PgCheck{
		ID:       uuid.UUID(check.ID),
		UserID:   uuid.UUID(check.UserID),
		A:        check.A,
		B:        check.B,
		Status:   string(check.Status),
		Result:   result,
		Attempts: check.Attempts,
		LastError: sql.NullString{
			String: check.LastError,
			Valid:  check.LastError != "",
		},
		CreatedAt: check.CreatedAt,
		UpdatedAt: sql.NullTime{
			Time:  check.UpdatedAt,
			Valid: !check.UpdatedAt.IsZero(),
		},
		DeletedAt: sql.NullTime{
			Time:  check.DeletedAt,
			Valid: !check.DeletedAt.IsZero(),
		},
	}

	return nil
}

func marshalResult(result *domain.CheckResult) (sql.NullString, error) {
	if result == nil {
		return sql.NullString{}, nil
	}

	b, err := json.Marshal(result)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("could not marshal check result: %w", err)
	}

	return sql.NullString{String: string(b), Valid: true}, nil
}

func domainChecksToPg(checks []domain.Check) ([]PgCheck, error) {
	out := make([]PgCheck, len(checks))
	for i := range out {
		if err := out[i].FromDomain(checks[i]); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func pgChecksToDomain(checks []PgCheck) ([]domain.Check, error) {
	out := make([]domain.Check, 0, len(checks))
	for _, check := range checks {
		d, err := check.ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, nil
}
