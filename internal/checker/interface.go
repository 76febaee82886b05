package checker

import (
	"context"

	"anagram/pkg/anagram"
	"anagram/pkg/domain"
)

//go:generate mockgen -package mockchecker -source=interface.go -destination=mock/mockchecker.go *
type Checker interface {
	Compare(ctx context.Context, a, b string) (anagram.Comparison, error)
	Check(ctx context.Context, userID domain.UserID, a, b string) (*domain.Check, error)
	Enqueue(ctx context.Context, userID domain.UserID, a, b string) (*domain.Check, error)
	Process(ctx context.Context, checkID domain.CheckID) (*domain.Check, error)
	MarkFailed(ctx context.Context, checkID domain.CheckID, cause error) error
	UserChecks(ctx context.Context,
		userID domain.UserID,
		status domain.CheckStatus,
		cursor string,
		limit uint) ([]domain.Check, string, error)
	Result(ctx context.Context, userID domain.UserID, checkID domain.CheckID) (*domain.Check, error)
	Delete(ctx context.Context, userID domain.UserID, checkID domain.CheckID) error
}
