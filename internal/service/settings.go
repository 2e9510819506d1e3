package service

import (
	"context"
	"errors"

	"github.com/and161185/pontofacil/internal/clock"
	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
	"github.com/and161185/pontofacil/internal/repository"
)

// SettingsService reads and updates the configuration singletons.
type SettingsService interface {
	// Site returns nil while no site is configured.
	Site(ctx context.Context) (*model.SiteConfig, error)
	UpdateSite(ctx context.Context, lat, lng float64, radiusM int) (*model.SiteConfig, error)
	CorrectionWindow(ctx context.Context) (*model.CorrectionWindowConfig, error)
	UpdateCorrectionWindow(ctx context.Context, days int) (*model.CorrectionWindowConfig, error)
	Validation(ctx context.Context) (*model.ValidationConfig, error)
	UpdateValidation(ctx context.Context, requireFour bool) (*model.ValidationConfig, error)
}

type SettingsServiceImpl struct {
	repo repository.SettingsRepository
	clk  clock.Clock
}

// NewSettingsService constructs SettingsService.
func NewSettingsService(repo repository.SettingsRepository, clk clock.Clock) *SettingsServiceImpl {
	return &SettingsServiceImpl{repo: repo, clk: clk}
}

func (s *SettingsServiceImpl) Site(ctx context.Context) (*model.SiteConfig, error) {
	site, err := s.repo.Site(ctx)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	return site, err
}

func (s *SettingsServiceImpl) UpdateSite(ctx context.Context, lat, lng float64, radiusM int) (*model.SiteConfig, error) {
	if radiusM <= 0 {
		return nil, errs.Invalid("raio_m must be greater than zero")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, errs.Invalid("coordinates out of range")
	}
	return s.repo.UpsertSite(ctx, model.SiteConfig{Lat: lat, Lng: lng, RadiusM: radiusM, UpdatedAt: s.clk.Now().UTC()})
}

func (s *SettingsServiceImpl) CorrectionWindow(ctx context.Context) (*model.CorrectionWindowConfig, error) {
	return s.repo.CorrectionWindow(ctx)
}

func (s *SettingsServiceImpl) UpdateCorrectionWindow(ctx context.Context, days int) (*model.CorrectionWindowConfig, error) {
	if days <= 0 {
		return nil, errs.Invalid("window_days must be greater than zero")
	}
	return s.repo.SetCorrectionWindow(ctx, days, s.clk.Now().UTC())
}

func (s *SettingsServiceImpl) Validation(ctx context.Context) (*model.ValidationConfig, error) {
	return s.repo.Validation(ctx)
}

func (s *SettingsServiceImpl) UpdateValidation(ctx context.Context, requireFour bool) (*model.ValidationConfig, error) {
	return s.repo.SetValidation(ctx, requireFour, s.clk.Now().UTC())
}
