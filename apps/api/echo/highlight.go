package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kifolio/backend/core/highlight"
	"github.com/kifolio/backend/core/portfolio"
)

var errHlNotFoundInCtx = errors.New("highlight object not found in echo.Context")

type highlightApi struct {
	deps ServerDeps
}

func registerHighlightAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := highlightApi{deps: deps}

	// collection endpoints, nested under the owning portfolio
	hg := g.Group("/portfolios/:id/highlights", jwt, ctxPortfolioMiddleware(deps))
	hg.POST("", api.create)
	hg.GET("", api.query)

	// detail endpoints
	dg := g.Group("/highlights/:id", jwt, ctxHighlightMiddleware(deps))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *highlightApi) create(ctx echo.Context) error {
	pf, ok := ctx.Get("object").(portfolio.Portfolio)
	if !ok {
		return errors.Wrap(errPfNotFoundInCtx, "retrieving object from context")
	}

	var data highlight.NewHighlight
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewHighlight")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	hl, err := api.deps.HighlightSvc.Create(ctx.Request().Context(), pf.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating highlight")
	}
	return ctx.JSON(http.StatusCreated, hl)
}

func (api *highlightApi) query(ctx echo.Context) error {
	pf, ok := ctx.Get("object").(portfolio.Portfolio)
	if !ok {
		return errors.Wrap(errPfNotFoundInCtx, "retrieving object from context")
	}

	filter := new(highlight.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []highlight.Highlight{})
	}
	if err := filter.Validate(api.deps.Validate); err != nil {
		return err
	}
	filter.PortfolioID = pf.ID
	ordering := new(Ordering)
	ordering.Bind(ctx)

	hls, err := api.deps.HighlightSvc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying highlights")
	}
	if hls == nil {
		hls = []highlight.Highlight{}
	}
	return ctx.JSON(http.StatusOK, hls)
}

func (api *highlightApi) retrieve(ctx echo.Context) error {
	hl, ok := ctx.Get("object").(highlight.Highlight)
	if !ok {
		return errors.Wrap(errHlNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, hl)
}

func (api *highlightApi) update(ctx echo.Context) error {
	hl, ok := ctx.Get("object").(highlight.Highlight)
	if !ok {
		return errors.Wrap(errHlNotFoundInCtx, "retrieving object from context")
	}

	var data highlight.UpdateHighlight
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateHighlight")
	}
	if err := data.Validate(hl, api.deps.Validate); err != nil {
		return err
	}

	hl, err := api.deps.HighlightSvc.Update(ctx.Request().Context(), hl, data)
	if err != nil {
		return errors.Wrap(err, "updating highlight")
	}
	return ctx.JSON(http.StatusOK, hl)
}

func (api *highlightApi) destroy(ctx echo.Context) error {
	hl, ok := ctx.Get("object").(highlight.Highlight)
	if !ok {
		return errors.Wrap(errHlNotFoundInCtx, "retrieving object from context")
	}

	if err := api.deps.HighlightSvc.Delete(ctx.Request().Context(), hl); err != nil {
		return errors.Wrap(err, "deleting highlight")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ctxHighlightMiddleware loads the highlight under :id into the context when
// the requester owns its portfolio or is an admin; others get a 404.
func ctxHighlightMiddleware(deps ServerDeps) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, deps.UserSvc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			hl, err := deps.HighlightSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == highlight.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding highlight by ID")
			}

			pf, err := deps.PortfolioSvc.GetByID(ctx.Request().Context(), hl.PortfolioID)
			if err != nil {
				return errors.Wrap(err, "finding owning portfolio")
			}
			if pf.OwnerID == ctxUsr.ID || ctxUsr.IsAdmin() {
				ctx.Set("object", hl)
				return next(ctx)
			}
			return errHttpNotFound
		}
	}
}

type TimelineResponse struct {
	Skipped int                       `json:"skipped"`
	Groups  []highlight.TimelineGroup `json:"groups"`
}
