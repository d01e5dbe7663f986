package highlight

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kifolio/backend/core"
	"github.com/kifolio/backend/core/media"
	"github.com/kifolio/backend/core/portfolio"
)

var (
	// errors
	ErrNotFound = errors.New("highlight not found")
)

type (
	Repository interface {
		CreateHighlight(ctx context.Context, hl Highlight) (Highlight, error)
		// QueryHighlights applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Title or Description.
		QueryHighlights(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Highlight, error)
		GetHighlight(ctx context.Context, id string) (Highlight, error)
		// UpdateHighlight persists hl; attachments are replaced only when
		// replaceMedia is set.
		UpdateHighlight(ctx context.Context, hl Highlight, replaceMedia bool) (Highlight, error)
		DeleteHighlightsByID(ctx context.Context, ids ...string) (int, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, portfolioID string, nh NewHighlight) (Highlight, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Highlight, error)
		GetByID(ctx context.Context, id string) (Highlight, error)
		Update(ctx context.Context, orig Highlight, uh UpdateHighlight) (Highlight, error)
		Delete(ctx context.Context, hls ...Highlight) error
		Timeline(ctx context.Context, portfolioID string, now ...time.Time) ([]TimelineGroup, int, error)
	}

	Service struct {
		repo   Repository
		pfRepo portfolio.Repository
		cache  portfolio.Cache
		conf   *core.Config
		logger core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, pfRepo portfolio.Repository, cache portfolio.Cache, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:   repo,
		pfRepo: pfRepo,
		cache:  cache,
		conf:   conf,
		logger: logger,
	}
}

func (svc *Service) Create(ctx context.Context, portfolioID string, nh NewHighlight) (Highlight, error) {
	now := time.Now().UTC()
	hl := Highlight{
		PortfolioID: portfolioID,
		Title:       nh.Title,
		Description: nh.Description,
		Date:        nh.Date,
		Category:    nh.Category,
		IsMilestone: nh.IsMilestone,
		Media:       buildMedia(nh.Media),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	hl, err := svc.repo.CreateHighlight(ctx, hl)
	if err != nil {
		return Highlight{}, err
	}

	svc.invalidatePublicPage(ctx, portfolioID)
	return hl, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Highlight, error) {
	hls, err := svc.repo.QueryHighlights(ctx, filter, ordering...)
	if err != nil {
		return nil, err
	}
	for i := range hls {
		svc.classifyLegacyMedia(&hls[i])
	}
	return hls, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Highlight, error) {
	hl, err := svc.repo.GetHighlight(ctx, id)
	if err != nil {
		return Highlight{}, err
	}
	svc.classifyLegacyMedia(&hl)
	return hl, nil
}

func (svc *Service) Update(ctx context.Context, orig Highlight, uh UpdateHighlight) (Highlight, error) {
	hl := Highlight{
		ID:          orig.ID,
		PortfolioID: orig.PortfolioID,
		Title:       uh.Title,
		Description: uh.Description,
		Date:        uh.Date,
		Category:    uh.Category,
		IsMilestone: orig.IsMilestone,
		UpdatedAt:   time.Now().UTC(),
	}
	if uh.IsMilestone != nil {
		hl.IsMilestone = *uh.IsMilestone
	}

	replaceMedia := uh.Media != nil
	if replaceMedia {
		hl.Media = buildMedia(uh.Media)
		for i := range hl.Media {
			hl.Media[i].HighlightID = hl.ID
		}
	}

	hl, err := svc.repo.UpdateHighlight(ctx, hl, replaceMedia)
	if err != nil {
		return Highlight{}, err
	}

	svc.invalidatePublicPage(ctx, hl.PortfolioID)
	return hl, nil
}

func (svc *Service) Delete(ctx context.Context, hls ...Highlight) error {
	ids := make([]string, 0, len(hls))
	for _, hl := range hls {
		ids = append(ids, hl.ID)
	}
	if _, err := svc.repo.DeleteHighlightsByID(ctx, ids...); err != nil {
		return err
	}
	for _, hl := range hls {
		svc.invalidatePublicPage(ctx, hl.PortfolioID)
	}
	return nil
}

// Timeline returns a portfolio's highlights bucketed by calendar month along
// with the number of records dropped for unparseable dates.
func (svc *Service) Timeline(ctx context.Context, portfolioID string, now ...time.Time) ([]TimelineGroup, int, error) {
	hls, err := svc.Query(ctx, &QueryFilter{PortfolioID: portfolioID})
	if err != nil {
		return nil, 0, err
	}

	groups, skipped := GroupByMonth(hls, now...)
	if skipped > 0 {
		svc.logger.Warn("timeline skipped records with invalid dates",
			"portfolio_id", portfolioID, "skipped", skipped)
	}
	return groups, skipped, nil
}

// buildMedia derives stored attachments from the incoming payload. The upload
// event's MIME type wins over URL heuristics when present.
func buildMedia(items []NewMediaItem) []MediaItem {
	if items == nil {
		return nil
	}
	res := make([]MediaItem, 0, len(items))
	for i, it := range items {
		var cls media.Classification
		if it.ContentType != "" {
			cls = media.Classify(it.URL, it.ContentType)
		} else {
			cls = media.Classify(it.URL)
		}

		name := it.FileName
		if name == "" {
			name = cls.DisplayName
		}
		res = append(res, MediaItem{
			URL:      it.URL,
			Kind:     cls.Kind,
			FileName: name,
			FileSize: it.FileSize,
			Position: i,
		})
	}
	return res
}

// classifyLegacyMedia fills in kinds for records persisted before kinds were
// stored. The derived kind is not written back; the stored value stays
// authoritative once a migration backfills it.
func (svc *Service) classifyLegacyMedia(hl *Highlight) {
	for i, m := range hl.Media {
		if m.Kind != "" {
			continue
		}
		cls := media.Classify(m.URL)
		hl.Media[i].Kind = cls.Kind
		if hl.Media[i].FileName == "" {
			hl.Media[i].FileName = cls.DisplayName
		}
		svc.logger.Warn("classified legacy media item from URL",
			"highlight_id", hl.ID, "media_id", m.ID, "kind", cls.Kind)
	}
}

func (svc *Service) invalidatePublicPage(ctx context.Context, portfolioID string) {
	if svc.cache == nil {
		return
	}
	pf, err := svc.pfRepo.GetPortfolio(ctx, portfolio.GetFilter{ID: portfolioID})
	if err != nil {
		svc.logger.Warn("looking up portfolio for cache invalidation", errors.Wrap(err, portfolioID))
		return
	}
	if err = svc.cache.DeletePublicPage(ctx, pf.Slug); err != nil && errors.Cause(err) != portfolio.ErrCacheMiss {
		svc.logger.Warn("invalidating public page cache", errors.Wrap(err, pf.Slug))
	}
}
