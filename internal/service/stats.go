package service

import (
	"context"
	"log/slog"
	"math"

	"github.com/sakif/skillgig-backend/internal/catalog"
	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/repository"
)

// StatsService derives platform-wide numbers and the category listing.
type StatsService struct {
	store      repository.Store
	categories []catalog.Category
	logger     *slog.Logger
}

func NewStatsService(store repository.Store, categories []catalog.Category, logger *slog.Logger) *StatsService {
	return &StatsService{store: store, categories: categories, logger: logger}
}

// Stats reports question and user totals and the share of resolved
// questions as a percentage rounded to two decimals.
//
// totalExperts counts every registered user, not only role "expert".
func (s *StatsService) Stats(ctx context.Context) (*dto.Stats, error) {
	c, err := s.store.PlatformCounts(ctx)
	if err != nil {
		return nil, wrap(err, "computing stats")
	}
	return &dto.Stats{
		TotalQuestions: c.TotalQuestions,
		TotalExperts:   c.TotalUsers,
		SuccessRate:    successRate(c.ResolvedQuestions, c.TotalQuestions),
	}, nil
}

// Categories lists the catalog with the number of questions filed under each
// category name.
func (s *StatsService) Categories(ctx context.Context) ([]dto.CategoryView, error) {
	totals, err := s.store.CountQuestionsByCategory(ctx)
	if err != nil {
		return nil, wrap(err, "counting questions by category")
	}
	out := make([]dto.CategoryView, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, dto.NewCategoryView(c, totals[c.Name]))
	}
	return out, nil
}

func successRate(resolved, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(resolved)/float64(total)*100*100) / 100
}
