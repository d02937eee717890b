package admin

import (
	"context"

	"github.com/tverdin/carrental/internal/repository"
)

type AdminUseCase interface {
	Dashboard(ctx context.Context) (*repository.DashboardStats, error)
}

type AdminService struct {
	stats repository.StatsRepository
}

func NewAdminService(stats repository.StatsRepository) *AdminService {
	return &AdminService{stats: stats}
}

func (s *AdminService) Dashboard(ctx context.Context) (*repository.DashboardStats, error) {
	return s.stats.Dashboard(ctx)
}

var _ AdminUseCase = (*AdminService)(nil)
