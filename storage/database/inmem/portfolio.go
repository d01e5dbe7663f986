package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kifolio/backend/core"
	"github.com/kifolio/backend/core/portfolio"
)

type portfolioRepository struct {
	db *portfolioTable
}

var _ portfolio.Repository = (*portfolioRepository)(nil) // interface compliance check

func NewPortfolioRepository(db *DB) *portfolioRepository {
	return &portfolioRepository{db: db.portfolio}
}

func (repo *portfolioRepository) query() []portfolio.Portfolio {
	pfs := make([]portfolio.Portfolio, 0, len(repo.db.table))
	for _, pf := range repo.db.table {
		pfs = append(pfs, *pf)
	}
	sort.Slice(pfs, func(i, j int) bool { return pfs[i].CreatedAt.Before(pfs[j].CreatedAt) })
	return pfs
}

func (repo *portfolioRepository) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...portfolio.Portfolio) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excl := make(map[string]struct{}, len(excluded))
	for _, pf := range excluded {
		excl[pf.ID] = struct{}{}
	}

	for _, pf := range repo.query() {
		if _, ok := excl[pf.ID]; ok {
			continue
		}
		if pf.Slug == slug {
			return portfolio.ErrSlugExists
		}
	}
	return nil
}

func (repo *portfolioRepository) CreatePortfolio(ctx context.Context, pf portfolio.Portfolio) (portfolio.Portfolio, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	pf.ID = uuid.New().String()
	repo.db.table[pf.ID] = &pf
	return pf, nil
}

func (repo *portfolioRepository) QueryPortfolios(ctx context.Context, filter *portfolio.QueryFilter, ordering ...core.DBOrdering) ([]portfolio.Portfolio, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	pfs := repo.query()
	if filter != nil {
		matched := make([]portfolio.Portfolio, 0, len(pfs))
		for _, pf := range pfs {
			if matchPortfolio(pf, filter) {
				matched = append(matched, pf)
			}
		}
		pfs = matched
	}
	// only created_at ordering is supported here
	if len(ordering) > 0 && !ordering[0].Ascending {
		sort.Slice(pfs, func(i, j int) bool { return pfs[i].CreatedAt.After(pfs[j].CreatedAt) })
	}
	return pfs, nil
}

func matchPortfolio(pf portfolio.Portfolio, filter *portfolio.QueryFilter) bool {
	if filter.OwnerID != "" && pf.OwnerID != filter.OwnerID {
		return false
	}
	if filter.Search != "" {
		kw := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(pf.ChildName), kw) &&
			!strings.Contains(strings.ToLower(pf.Title), kw) {
			return false
		}
	}
	if filter.Template != "" && pf.Template != filter.Template {
		return false
	}
	if filter.IsPublic != nil && pf.Public() != *filter.IsPublic {
		return false
	}
	if !filter.CreatedFrom.IsZero() && pf.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && pf.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (repo *portfolioRepository) GetPortfolio(ctx context.Context, filter portfolio.GetFilter) (portfolio.Portfolio, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if pf, ok := repo.db.table[filter.ID]; ok {
			return *pf, nil
		}
		return portfolio.Portfolio{}, portfolio.ErrNotFound
	}
	if filter.Slug != "" {
		for _, pf := range repo.query() {
			if pf.Slug == filter.Slug {
				return pf, nil
			}
		}
	}
	return portfolio.Portfolio{}, portfolio.ErrNotFound
}

func (repo *portfolioRepository) UpdatePortfolio(ctx context.Context, pf portfolio.Portfolio) (portfolio.Portfolio, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.table[pf.ID]
	if !ok {
		return portfolio.Portfolio{}, portfolio.ErrNotFound
	}
	if pf.ChildName != "" {
		orig.ChildName = pf.ChildName
	}
	if pf.Title != "" {
		orig.Title = pf.Title
	}
	if pf.Template != "" {
		orig.Template = pf.Template
	}
	if pf.IsPublic != nil {
		orig.IsPublic = pf.IsPublic
	}
	if !pf.UpdatedAt.IsZero() {
		orig.UpdatedAt = pf.UpdatedAt
	}
	return *orig, nil
}

func (repo *portfolioRepository) DeletePortfoliosByID(ctx context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}
