package categorize

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyPattern = errors.New("hint pattern must not be empty")

type Repository interface {
	FindHint(ctx context.Context, expenseName string) (string, error)
	CreateHint(ctx context.Context, pattern, categoryName string) error
}

// Service suggests categories for expenses based on learned name patterns.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the learned category name for the given expense name.
// Returns empty string if nothing matches.
func (s *Service) Suggest(ctx context.Context, expenseName string) (string, error) {
	expenseName = strings.TrimSpace(expenseName)
	if expenseName == "" {
		return "", nil
	}

	return s.repo.FindHint(ctx, expenseName)
}

// Learn remembers that expenses matching pattern belong to categoryName.
// Learning a pattern again overwrites the earlier category.
func (s *Service) Learn(ctx context.Context, pattern, categoryName string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return ErrEmptyPattern
	}

	return s.repo.CreateHint(ctx, pattern, strings.TrimSpace(categoryName))
}
