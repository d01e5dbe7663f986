package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kifolio/backend/core/portfolio"
)

var errPfNotFoundInCtx = errors.New("portfolio object not found in echo.Context")

type portfolioApi struct {
	deps ServerDeps
}

func registerPortfolioAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := portfolioApi{deps: deps}

	pg := g.Group("/portfolios", jwt)
	pg.POST("", api.create)
	pg.GET("", api.query)

	// detail endpoints
	dg := pg.Group("/:id", ctxPortfolioMiddleware(deps))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/timeline", api.timeline)
}

// Handlers

func (api *portfolioApi) create(ctx echo.Context) error {
	var data portfolio.NewPortfolio
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPortfolio")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	pf, err := api.deps.PortfolioSvc.Create(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating portfolio")
	}
	return ctx.JSON(http.StatusCreated, pf)
}

func (api *portfolioApi) query(ctx echo.Context) error {
	filter := new(portfolio.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []portfolio.Portfolio{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	// non-admins only see their own portfolios
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() {
		filter.OwnerID = ctxUsr.ID
	}

	pfs, err := api.deps.PortfolioSvc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying portfolios")
	}
	if pfs == nil {
		pfs = []portfolio.Portfolio{}
	}
	return ctx.JSON(http.StatusOK, pfs)
}

func (api *portfolioApi) retrieve(ctx echo.Context) error {
	pf, ok := ctx.Get("object").(portfolio.Portfolio)
	if !ok {
		return errors.Wrap(errPfNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, pf)
}

func (api *portfolioApi) update(ctx echo.Context) error {
	pf, ok := ctx.Get("object").(portfolio.Portfolio)
	if !ok {
		return errors.Wrap(errPfNotFoundInCtx, "retrieving object from context")
	}

	var data portfolio.UpdatePortfolio
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePortfolio")
	}
	if err := data.Validate(pf, api.deps.Validate); err != nil {
		return err
	}

	pf, err := api.deps.PortfolioSvc.Update(ctx.Request().Context(), pf, data)
	if err != nil {
		return errors.Wrap(err, "updating portfolio")
	}
	return ctx.JSON(http.StatusOK, pf)
}

func (api *portfolioApi) destroy(ctx echo.Context) error {
	pf, ok := ctx.Get("object").(portfolio.Portfolio)
	if !ok {
		return errors.Wrap(errPfNotFoundInCtx, "retrieving object from context")
	}

	if err := api.deps.PortfolioSvc.Delete(ctx.Request().Context(), pf); err != nil {
		return errors.Wrap(err, "deleting portfolio")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *portfolioApi) timeline(ctx echo.Context) error {
	pf, ok := ctx.Get("object").(portfolio.Portfolio)
	if !ok {
		return errors.Wrap(errPfNotFoundInCtx, "retrieving object from context")
	}

	groups, skipped, err := api.deps.HighlightSvc.Timeline(ctx.Request().Context(), pf.ID)
	if err != nil {
		return errors.Wrap(err, "building timeline")
	}
	return ctx.JSON(http.StatusOK, TimelineResponse{Skipped: skipped, Groups: groups})
}

// ctxPortfolioMiddleware loads the portfolio under :id into the context when
// the requester owns it or is an admin; others get a 404.
func ctxPortfolioMiddleware(deps ServerDeps) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, deps.UserSvc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			pf, err := deps.PortfolioSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == portfolio.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding portfolio by ID")
			}

			if pf.OwnerID == ctxUsr.ID || ctxUsr.IsAdmin() {
				ctx.Set("object", pf)
				return next(ctx)
			}
			return errHttpNotFound
		}
	}
}
