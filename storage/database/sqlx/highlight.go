package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kifolio/backend/core"
	"github.com/kifolio/backend/core/highlight"
	"github.com/kifolio/backend/core/media"
)

const (
	highlightTable = "highlight"
	mediaTable     = "media_item"
)

type highlightRow struct {
	ID          string    `db:"id"`
	PortfolioID string    `db:"portfolio_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Date        time.Time `db:"date"`
	Category    string    `db:"category"`
	IsMilestone bool      `db:"is_milestone"`
	CreatedAt   null.Time `db:"created_at"`
	UpdatedAt   null.Time `db:"updated_at"`
}

type mediaRow struct {
	ID          string `db:"id"`
	HighlightID string `db:"highlight_id"`
	URL         string `db:"url"`
	Kind        string `db:"kind"`
	FileName    string `db:"file_name"`
	FileSize    int64  `db:"file_size"`
	Position    int    `db:"position"`
}

type highlightRepository struct {
	db *sqlx.DB
}

var _ highlight.Repository = (*highlightRepository)(nil) // interface compliance check

func NewHighlightRepository(db *sqlx.DB) *highlightRepository {
	return &highlightRepository{db: db}
}

func (repo highlightRepository) unrow(row highlightRow, items []mediaRow) highlight.Highlight {
	hl := highlight.Highlight{
		ID:          row.ID,
		PortfolioID: row.PortfolioID,
		Title:       row.Title,
		Description: row.Description,
		Date:        core.FormatDate(row.Date),
		Category:    row.Category,
		IsMilestone: row.IsMilestone,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
	for _, it := range items {
		hl.Media = append(hl.Media, highlight.MediaItem{
			ID:          it.ID,
			HighlightID: it.HighlightID,
			URL:         it.URL,
			Kind:        media.Kind(it.Kind),
			FileName:    it.FileName,
			FileSize:    it.FileSize,
			Position:    it.Position,
		})
	}
	return hl
}

// trapNoRowsErr maps psql "no rows" err to highlight.ErrNotFound
func (repo highlightRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return highlight.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo highlightRepository) CreateHighlight(ctx context.Context, hl highlight.Highlight) (highlight.Highlight, error) {
	hl.ID = uuid.New().String()

	date, err := core.ParseDate(hl.Date)
	if err != nil {
		return highlight.Highlight{}, errors.Wrap(err, "parsing highlight date")
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return highlight.Highlight{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, args, err := psql.Insert(highlightTable).
		Columns("id", "portfolio_id", "title", "description", "date", "category", "is_milestone", "created_at", "updated_at").
		Values(hl.ID, hl.PortfolioID, hl.Title, hl.Description, date, hl.Category, hl.IsMilestone, hl.CreatedAt.UTC(), hl.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return highlight.Highlight{}, errors.Wrap(err, "building highlight insert")
	}
	if _, err = tx.ExecContext(ctx, stmt, args...); err != nil {
		return highlight.Highlight{}, errors.Wrap(err, "inserting highlight")
	}

	for i := range hl.Media {
		hl.Media[i].ID = uuid.New().String()
		hl.Media[i].HighlightID = hl.ID
	}
	if err = repo.insertMedia(ctx, tx, hl.Media); err != nil {
		return highlight.Highlight{}, err
	}

	if err = tx.Commit(); err != nil {
		return highlight.Highlight{}, errors.Wrap(err, "committing highlight insert")
	}
	return hl, nil
}

func (repo highlightRepository) insertMedia(ctx context.Context, tx *sqlx.Tx, items []highlight.MediaItem) error {
	if len(items) == 0 {
		return nil
	}

	q := psql.Insert(mediaTable).
		Columns("id", "highlight_id", "url", "kind", "file_name", "file_size", "position")
	for _, it := range items {
		q = q.Values(it.ID, it.HighlightID, it.URL, string(it.Kind), it.FileName, it.FileSize, it.Position)
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building media insert")
	}
	if _, err = tx.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "inserting media items")
	}
	return nil
}

func (repo highlightRepository) QueryHighlights(ctx context.Context, filter *highlight.QueryFilter, ordering ...core.DBOrdering) ([]highlight.Highlight, error) {
	q := psql.Select("*").From(highlightTable)

	if filter != nil {
		if filter.PortfolioID != "" {
			q = q.Where(sq.Eq{"portfolio_id": filter.PortfolioID})
		}
		// highlights with Title or Description matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where(sq.Expr("(title ILIKE ? OR description ILIKE ?)", val, val))
		}
		if filter.Category != "" {
			q = q.Where(sq.Eq{"category": filter.Category})
		}
		if filter.IsMilestone != nil {
			q = q.Where(sq.Eq{"is_milestone": *filter.IsMilestone})
		}
		if filter.DateFrom != "" {
			q = q.Where(sq.GtOrEq{"date": filter.DateFrom})
		}
		if filter.DateTo != "" {
			q = q.Where(sq.LtOrEq{"date": filter.DateTo})
		}
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q = q.OrderBy(strings.Join(orderList, ", "))
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building highlight query")
	}

	var rows []highlightRow
	if err = repo.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "querying highlights")
	}
	if len(rows) == 0 {
		return []highlight.Highlight{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	mediaByHl, err := repo.queryMedia(ctx, ids)
	if err != nil {
		return nil, err
	}

	hls := make([]highlight.Highlight, 0, len(rows))
	for _, row := range rows {
		hls = append(hls, repo.unrow(row, mediaByHl[row.ID]))
	}
	return hls, nil
}

func (repo highlightRepository) queryMedia(ctx context.Context, highlightIDs []string) (map[string][]mediaRow, error) {
	stmt, args, err := psql.Select("*").From(mediaTable).
		Where(sq.Eq{"highlight_id": highlightIDs}).
		OrderBy("highlight_id", "position").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building media query")
	}

	var rows []mediaRow
	if err = repo.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "querying media items")
	}

	byHl := make(map[string][]mediaRow, len(highlightIDs))
	for _, row := range rows {
		byHl[row.HighlightID] = append(byHl[row.HighlightID], row)
	}
	return byHl, nil
}

func (repo highlightRepository) GetHighlight(ctx context.Context, id string) (highlight.Highlight, error) {
	if _, err := uuid.Parse(id); err != nil {
		return highlight.Highlight{}, highlight.ErrNotFound
	}

	stmt, args, err := psql.Select("*").From(highlightTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return highlight.Highlight{}, errors.Wrap(err, "building highlight get query")
	}

	var row highlightRow
	if err = repo.db.GetContext(ctx, &row, stmt, args...); err != nil {
		return highlight.Highlight{}, repo.trapNoRowsErr(err, "finding highlight")
	}

	mediaByHl, err := repo.queryMedia(ctx, []string{row.ID})
	if err != nil {
		return highlight.Highlight{}, err
	}
	return repo.unrow(row, mediaByHl[row.ID]), nil
}

func (repo highlightRepository) UpdateHighlight(ctx context.Context, hl highlight.Highlight, replaceMedia bool) (highlight.Highlight, error) {
	q := psql.Update(highlightTable).Where(sq.Eq{"id": hl.ID})

	if hl.Title != "" {
		q = q.Set("title", hl.Title)
	}
	q = q.Set("description", hl.Description)
	q = q.Set("category", hl.Category)
	q = q.Set("is_milestone", hl.IsMilestone)
	if hl.Date != "" {
		date, err := core.ParseDate(hl.Date)
		if err != nil {
			return highlight.Highlight{}, errors.Wrap(err, "parsing highlight date")
		}
		q = q.Set("date", date)
	}
	if !hl.UpdatedAt.IsZero() {
		q = q.Set("updated_at", hl.UpdatedAt.UTC())
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return highlight.Highlight{}, errors.Wrap(err, "building highlight update")
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return highlight.Highlight{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, stmt, args...); err != nil {
		return highlight.Highlight{}, errors.Wrap(err, "updating highlight")
	}

	if replaceMedia {
		stmt, args, err = psql.Delete(mediaTable).Where(sq.Eq{"highlight_id": hl.ID}).ToSql()
		if err != nil {
			return highlight.Highlight{}, errors.Wrap(err, "building media delete")
		}
		if _, err = tx.ExecContext(ctx, stmt, args...); err != nil {
			return highlight.Highlight{}, errors.Wrap(err, "deleting media items")
		}

		for i := range hl.Media {
			hl.Media[i].ID = uuid.New().String()
			hl.Media[i].HighlightID = hl.ID
		}
		if err = repo.insertMedia(ctx, tx, hl.Media); err != nil {
			return highlight.Highlight{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return highlight.Highlight{}, errors.Wrap(err, "committing highlight update")
	}
	return repo.GetHighlight(ctx, hl.ID)
}

func (repo highlightRepository) DeleteHighlightsByID(ctx context.Context, ids ...string) (int, error) {
	// media items go with them via ON DELETE CASCADE
	stmt, args, err := psql.Delete(highlightTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building highlight delete")
	}
	res, err := repo.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting highlights")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting highlights")
	}
	return int(cnt), nil
}
