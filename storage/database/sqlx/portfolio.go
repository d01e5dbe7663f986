package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kifolio/backend/core"
	"github.com/kifolio/backend/core/portfolio"
)

const portfolioTable = "portfolio"

type portfolioRow struct {
	ID        string      `db:"id"`
	OwnerID   string      `db:"owner_id"`
	ChildName string      `db:"child_name"`
	Title     string      `db:"title"`
	Slug      string      `db:"slug"`
	Template  string      `db:"template"`
	IsPublic  null.Bool   `db:"is_public"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

type portfolioRepository struct {
	db *sqlx.DB
}

var _ portfolio.Repository = (*portfolioRepository)(nil) // interface compliance check

func NewPortfolioRepository(db *sqlx.DB) *portfolioRepository {
	return &portfolioRepository{db: db}
}

func (repo portfolioRepository) row(pf portfolio.Portfolio) portfolioRow {
	return portfolioRow{
		ID:        pf.ID,
		OwnerID:   pf.OwnerID,
		ChildName: pf.ChildName,
		Title:     pf.Title,
		Slug:      pf.Slug,
		Template:  pf.Template,
		IsPublic:  null.BoolFromPtr(pf.IsPublic),
		CreatedAt: null.NewTime(pf.CreatedAt.UTC(), !pf.CreatedAt.IsZero()),
		UpdatedAt: null.NewTime(pf.UpdatedAt.UTC(), !pf.UpdatedAt.IsZero()),
	}
}

func (repo portfolioRepository) unrow(row portfolioRow) portfolio.Portfolio {
	return portfolio.Portfolio{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		ChildName: row.ChildName,
		Title:     row.Title,
		Slug:      row.Slug,
		Template:  row.Template,
		IsPublic:  row.IsPublic.Ptr(),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func (repo portfolioRepository) unrowSlice(rows []portfolioRow) []portfolio.Portfolio {
	pfs := make([]portfolio.Portfolio, 0, len(rows))
	for _, row := range rows {
		pfs = append(pfs, repo.unrow(row))
	}
	return pfs
}

// trapNoRowsErr maps psql "no rows" err to portfolio.ErrNotFound
func (repo portfolioRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return portfolio.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo portfolioRepository) CheckSlugUniqueness(ctx context.Context, slug string, excluded ...portfolio.Portfolio) error {
	q := psql.Select("COUNT(*)").From(portfolioTable).Where(sq.Eq{"slug": slug})

	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, pf := range excluded {
			ids = append(ids, pf.ID)
		}
		q = q.Where(sq.NotEq{"id": ids})
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building slug uniqueness query")
	}

	var cnt int
	if err = repo.db.GetContext(ctx, &cnt, stmt, args...); err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if cnt > 0 {
		return portfolio.ErrSlugExists
	}
	return nil
}

func (repo portfolioRepository) CreatePortfolio(ctx context.Context, pf portfolio.Portfolio) (portfolio.Portfolio, error) {
	pf.ID = uuid.New().String()
	row := repo.row(pf)

	stmt, args, err := psql.Insert(portfolioTable).
		Columns("id", "owner_id", "child_name", "title", "slug", "template", "is_public", "created_at", "updated_at").
		Values(row.ID, row.OwnerID, row.ChildName, row.Title, row.Slug, row.Template, row.IsPublic, row.CreatedAt, row.UpdatedAt).
		ToSql()
	if err != nil {
		return portfolio.Portfolio{}, errors.Wrap(err, "building portfolio insert")
	}
	if _, err = repo.db.ExecContext(ctx, stmt, args...); err != nil {
		return portfolio.Portfolio{}, errors.Wrap(err, "inserting portfolio")
	}
	return pf, nil
}

func (repo portfolioRepository) QueryPortfolios(ctx context.Context, filter *portfolio.QueryFilter, ordering ...core.DBOrdering) ([]portfolio.Portfolio, error) {
	q := psql.Select("*").From(portfolioTable)

	if filter != nil {
		if filter.OwnerID != "" {
			q = q.Where(sq.Eq{"owner_id": filter.OwnerID})
		}
		// portfolios with ChildName or Title matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where(sq.Expr("(child_name ILIKE ? OR title ILIKE ?)", val, val))
		}
		if filter.Template != "" {
			q = q.Where(sq.Eq{"template": filter.Template})
		}
		if filter.IsPublic != nil {
			q = q.Where(sq.Eq{"is_public": *filter.IsPublic})
		}
		if !filter.CreatedFrom.IsZero() {
			q = q.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
		}
		if !filter.CreatedTo.IsZero() {
			q = q.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
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
		return nil, errors.Wrap(err, "building portfolio query")
	}

	var rows []portfolioRow
	if err = repo.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "querying portfolios")
	}
	return repo.unrowSlice(rows), nil
}

func (repo portfolioRepository) GetPortfolio(ctx context.Context, filter portfolio.GetFilter) (portfolio.Portfolio, error) {
	q := psql.Select("*").From(portfolioTable)

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return portfolio.Portfolio{}, portfolio.ErrNotFound
		}
		q = q.Where(sq.Eq{"id": filter.ID})
	case filter.Slug != "":
		q = q.Where(sq.Eq{"slug": filter.Slug})
	default:
		return portfolio.Portfolio{}, portfolio.ErrNotFound
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return portfolio.Portfolio{}, errors.Wrap(err, "building portfolio get query")
	}

	var row portfolioRow
	if err = repo.db.GetContext(ctx, &row, stmt, args...); err != nil {
		return portfolio.Portfolio{}, repo.trapNoRowsErr(err, "finding portfolio")
	}
	return repo.unrow(row), nil
}

func (repo portfolioRepository) UpdatePortfolio(ctx context.Context, pf portfolio.Portfolio) (portfolio.Portfolio, error) {
	q := psql.Update(portfolioTable).Where(sq.Eq{"id": pf.ID})

	if pf.ChildName != "" {
		q = q.Set("child_name", pf.ChildName)
	}
	if pf.Title != "" {
		q = q.Set("title", pf.Title)
	}
	if pf.Template != "" {
		q = q.Set("template", pf.Template)
	}
	if pf.IsPublic != nil {
		q = q.Set("is_public", *pf.IsPublic)
	}
	if !pf.UpdatedAt.IsZero() {
		q = q.Set("updated_at", pf.UpdatedAt.UTC())
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return portfolio.Portfolio{}, errors.Wrap(err, "building portfolio update")
	}
	if _, err = repo.db.ExecContext(ctx, stmt, args...); err != nil {
		return portfolio.Portfolio{}, errors.Wrap(err, "updating portfolio")
	}
	return repo.GetPortfolio(ctx, portfolio.GetFilter{ID: pf.ID})
}

func (repo portfolioRepository) DeletePortfoliosByID(ctx context.Context, ids ...string) (int, error) {
	stmt, args, err := psql.Delete(portfolioTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building portfolio delete")
	}
	res, err := repo.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting portfolios")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting portfolios")
	}
	return int(cnt), nil
}
