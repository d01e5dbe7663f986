package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kifolio/backend/core"
	"github.com/kifolio/backend/core/highlight"
)

type highlightRepository struct {
	db *highlightTable
}

var _ highlight.Repository = (*highlightRepository)(nil) // interface compliance check

func NewHighlightRepository(db *DB) *highlightRepository {
	return &highlightRepository{db: db.highlight}
}

func (repo *highlightRepository) query() []highlight.Highlight {
	hls := make([]highlight.Highlight, 0, len(repo.db.table))
	for _, hl := range repo.db.table {
		hls = append(hls, copyHighlight(*hl))
	}
	sort.Slice(hls, func(i, j int) bool { return hls[i].CreatedAt.Before(hls[j].CreatedAt) })
	return hls
}

// copyHighlight detaches the media slice so callers cannot mutate stored rows.
func copyHighlight(hl highlight.Highlight) highlight.Highlight {
	if hl.Media != nil {
		media := make([]highlight.MediaItem, len(hl.Media))
		copy(media, hl.Media)
		hl.Media = media
	}
	return hl
}

func (repo *highlightRepository) CreateHighlight(ctx context.Context, hl highlight.Highlight) (highlight.Highlight, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	hl.ID = uuid.New().String()
	for i := range hl.Media {
		hl.Media[i].ID = uuid.New().String()
		hl.Media[i].HighlightID = hl.ID
	}
	stored := copyHighlight(hl)
	repo.db.table[hl.ID] = &stored
	return hl, nil
}

func (repo *highlightRepository) QueryHighlights(ctx context.Context, filter *highlight.QueryFilter, ordering ...core.DBOrdering) ([]highlight.Highlight, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	hls := repo.query()
	if filter != nil {
		matched := make([]highlight.Highlight, 0, len(hls))
		for _, hl := range hls {
			if matchHighlight(hl, filter) {
				matched = append(matched, hl)
			}
		}
		hls = matched
	}
	// only date ordering is supported here
	if len(ordering) > 0 && !ordering[0].Ascending {
		sort.Slice(hls, func(i, j int) bool { return hls[i].Date > hls[j].Date })
	}
	return hls, nil
}

func matchHighlight(hl highlight.Highlight, filter *highlight.QueryFilter) bool {
	if filter.PortfolioID != "" && hl.PortfolioID != filter.PortfolioID {
		return false
	}
	if filter.Search != "" {
		kw := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(hl.Title), kw) &&
			!strings.Contains(strings.ToLower(hl.Description), kw) {
			return false
		}
	}
	if filter.Category != "" && hl.Category != filter.Category {
		return false
	}
	if filter.IsMilestone != nil && hl.IsMilestone != *filter.IsMilestone {
		return false
	}
	// YYYY-MM-DD strings compare chronologically
	if filter.DateFrom != "" && hl.Date < filter.DateFrom {
		return false
	}
	if filter.DateTo != "" && hl.Date > filter.DateTo {
		return false
	}
	return true
}

func (repo *highlightRepository) GetHighlight(ctx context.Context, id string) (highlight.Highlight, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if hl, ok := repo.db.table[id]; ok {
		return copyHighlight(*hl), nil
	}
	return highlight.Highlight{}, highlight.ErrNotFound
}

func (repo *highlightRepository) UpdateHighlight(ctx context.Context, hl highlight.Highlight, replaceMedia bool) (highlight.Highlight, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.table[hl.ID]
	if !ok {
		return highlight.Highlight{}, highlight.ErrNotFound
	}
	if hl.Title != "" {
		orig.Title = hl.Title
	}
	orig.Description = hl.Description
	orig.Category = hl.Category
	orig.IsMilestone = hl.IsMilestone
	if hl.Date != "" {
		orig.Date = hl.Date
	}
	if replaceMedia {
		for i := range hl.Media {
			hl.Media[i].ID = uuid.New().String()
			hl.Media[i].HighlightID = hl.ID
		}
		orig.Media = hl.Media
	}
	if !hl.UpdatedAt.IsZero() {
		orig.UpdatedAt = hl.UpdatedAt
	}
	return copyHighlight(*orig), nil
}

func (repo *highlightRepository) DeleteHighlightsByID(ctx context.Context, ids ...string) (int, error) {
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
