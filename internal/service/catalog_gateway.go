package service

import (
	"context"
	"fmt"

	"app/internal/cascade"
	"app/internal/model"
	"app/internal/repository"
)

// CatalogGateway adapts the catalog and coupon repositories to the
// selection engine's Gateway interface. It is stateless; every open dialog
// shares one instance.
type CatalogGateway struct {
	catalogRepo repository.CatalogRepository
	couponRepo  repository.CouponRepository
}

// NewCatalogGateway creates a new CatalogGateway
func NewCatalogGateway(catalogRepo repository.CatalogRepository, couponRepo repository.CouponRepository) *CatalogGateway {
	return &CatalogGateway{catalogRepo: catalogRepo, couponRepo: couponRepo}
}

var _ cascade.Gateway = (*CatalogGateway)(nil)

func (g *CatalogGateway) Specializations(ctx context.Context) ([]model.Option, error) {
	specializations, err := g.catalogRepo.ListSpecializations(ctx)
	if err != nil {
		return nil, err
	}
	opts := make([]model.Option, 0, len(specializations))
	for _, s := range specializations {
		opts = append(opts, model.SpecializationOption(s))
	}
	return opts, nil
}

func (g *CatalogGateway) CoursesBySpecialization(ctx context.Context, specializationID string) ([]model.Option, error) {
	courses, err := g.catalogRepo.ListCoursesBySpecialization(ctx, specializationID)
	if err != nil {
		return nil, err
	}
	opts := make([]model.Option, 0, len(courses))
	for _, c := range courses {
		opts = append(opts, model.CourseOption(c))
	}
	return opts, nil
}

func (g *CatalogGateway) InstructorsByCourse(ctx context.Context, courseID string) ([]model.Option, error) {
	instructors, err := g.catalogRepo.ListInstructorsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	opts := make([]model.Option, 0, len(instructors))
	for _, i := range instructors {
		opts = append(opts, model.InstructorOption(i))
	}
	return opts, nil
}

func (g *CatalogGateway) LevelsByCourse(ctx context.Context, courseID string) ([]model.Option, error) {
	levels, err := g.catalogRepo.ListLevelsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	opts := make([]model.Option, 0, len(levels))
	for _, l := range levels {
		opts = append(opts, model.LevelOption(l))
	}
	return opts, nil
}

func (g *CatalogGateway) CouponsByLevel(ctx context.Context, levelID string) ([]model.Coupon, error) {
	return g.couponRepo.ListActiveByLevel(ctx, levelID)
}

// Quote is the authoritative discount computation: it re-reads the coupon
// and level rows and applies the pricing formula server-side, so client
// rounding can never drift from what is charged.
func (g *CatalogGateway) Quote(ctx context.Context, couponID, levelID string) (model.PriceQuote, error) {
	level, err := g.catalogRepo.GetLevelByID(ctx, levelID)
	if err != nil {
		return model.PriceQuote{}, err
	}
	if level == nil {
		return model.PriceQuote{}, fmt.Errorf("level %s not found", levelID)
	}
	coupon, err := g.couponRepo.GetByID(ctx, couponID)
	if err != nil {
		return model.PriceQuote{}, err
	}
	if coupon == nil || !coupon.IsActive || coupon.LevelID != levelID {
		return model.PriceQuote{}, fmt.Errorf("coupon %s not valid for level %s", couponID, levelID)
	}
	return cascade.Resolve(level.PriceSYP, coupon), nil
}
