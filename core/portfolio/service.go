package portfolio

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kifolio/backend/core"
)

var (
	// errors
	ErrNotFound   = errors.New("portfolio not found")
	ErrSlugExists = errors.New("a portfolio with this handle already exists")
	ErrCacheMiss  = errors.New("cache miss")
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excluded ...Portfolio) error
		CreatePortfolio(ctx context.Context, pf Portfolio) (Portfolio, error)
		// QueryPortfolios applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of ChildName or Title.
		QueryPortfolios(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Portfolio, error)
		GetPortfolio(ctx context.Context, filter GetFilter) (Portfolio, error)
		UpdatePortfolio(ctx context.Context, pf Portfolio) (Portfolio, error)
		DeletePortfoliosByID(ctx context.Context, ids ...string) (int, error)
	}

	// Cache caches rendered public portfolio pages keyed by slug.
	// Implementations return ErrCacheMiss when a key is absent.
	Cache interface {
		GetPublicPage(ctx context.Context, slug string) ([]byte, error)
		SetPublicPage(ctx context.Context, slug string, payload []byte) error
		DeletePublicPage(ctx context.Context, slug string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, ownerID string, np NewPortfolio) (Portfolio, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Portfolio, error)
		GetByID(ctx context.Context, id string) (Portfolio, error)
		GetBySlug(ctx context.Context, slug string) (Portfolio, error)
		Update(ctx context.Context, orig Portfolio, up UpdatePortfolio) (Portfolio, error)
		Delete(ctx context.Context, pfs ...Portfolio) error
	}

	Service struct {
		repo   Repository
		cache  Cache
		conf   *core.Config
		logger core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, cache Cache, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		conf:   conf,
		logger: logger,
	}
}

// makeSlug derives a unique URL handle from the child's name.
func (svc *Service) makeSlug(ctx context.Context, childName string) (string, error) {
	slug := core.Slugify(childName)
	if slug == "" {
		slug = "portfolio"
	}

	err := svc.repo.CheckSlugUniqueness(ctx, slug)
	if err == nil {
		return slug, nil
	}
	if errors.Cause(err) != ErrSlugExists {
		return "", err
	}

	// disambiguate with a short random suffix
	slug = slug + "-" + uuid.New().String()[:8]
	if err = svc.repo.CheckSlugUniqueness(ctx, slug); err != nil {
		return "", err
	}
	return slug, nil
}

func (svc *Service) Create(ctx context.Context, ownerID string, np NewPortfolio) (Portfolio, error) {
	slug, err := svc.makeSlug(ctx, np.ChildName)
	if err != nil {
		return Portfolio{}, errors.Wrap(err, "making slug")
	}

	tmpl := np.Template
	if tmpl == "" {
		tmpl = TemplateClassic
	}

	now := time.Now().UTC()
	pf := Portfolio{
		OwnerID:   ownerID,
		ChildName: np.ChildName,
		Title:     np.Title,
		Slug:      slug,
		Template:  tmpl,
		CreatedAt: now,
		UpdatedAt: now,
	}
	pf.SetPublic(np.IsPublic != nil && *np.IsPublic)
	return svc.repo.CreatePortfolio(ctx, pf)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Portfolio, error) {
	return svc.repo.QueryPortfolios(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Portfolio, error) {
	return svc.repo.GetPortfolio(ctx, GetFilter{ID: id})
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Portfolio, error) {
	return svc.repo.GetPortfolio(ctx, GetFilter{Slug: core.CleanString(slug, true /* lower */)})
}

func (svc *Service) Update(ctx context.Context, orig Portfolio, up UpdatePortfolio) (Portfolio, error) {
	pf := Portfolio{
		ID:        orig.ID,
		OwnerID:   orig.OwnerID,
		ChildName: up.ChildName,
		Title:     up.Title,
		Slug:      orig.Slug, // slugs are permanent; public links must not break
		Template:  up.Template,
		IsPublic:  up.IsPublic,
		UpdatedAt: time.Now().UTC(),
	}
	pf, err := svc.repo.UpdatePortfolio(ctx, pf)
	if err != nil {
		return Portfolio{}, err
	}

	svc.invalidatePublicPage(ctx, pf.Slug)
	return pf, nil
}

func (svc *Service) Delete(ctx context.Context, pfs ...Portfolio) error {
	ids := make([]string, 0, len(pfs))
	for _, pf := range pfs {
		ids = append(ids, pf.ID)
	}
	if _, err := svc.repo.DeletePortfoliosByID(ctx, ids...); err != nil {
		return err
	}
	for _, pf := range pfs {
		svc.invalidatePublicPage(ctx, pf.Slug)
	}
	return nil
}

func (svc *Service) invalidatePublicPage(ctx context.Context, slug string) {
	if svc.cache == nil {
		return
	}
	if err := svc.cache.DeletePublicPage(ctx, slug); err != nil && errors.Cause(err) != ErrCacheMiss {
		svc.logger.Warn("invalidating public page cache", errors.Wrap(err, slug))
	}
}
