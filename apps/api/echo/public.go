package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kifolio/backend/core/portfolio"
)

type publicApi struct {
	deps ServerDeps
}

// registerPublicAPI mounts the un-authed public portfolio pages.
func registerPublicAPI(e *echo.Echo, deps ServerDeps) {
	api := publicApi{deps: deps}
	e.GET("/p/:slug", api.page)
}

type (
	PublicPortfolio struct {
		ChildName string `json:"child_name"`
		Title     string `json:"title"`
		Slug      string `json:"slug"`
		Template  string `json:"template"`
	}

	PublicPageResponse struct {
		Portfolio PublicPortfolio  `json:"portfolio"`
		Timeline  TimelineResponse `json:"timeline"`
	}
)

func (api *publicApi) page(ctx echo.Context) error {
	slug := ctx.Param("slug")
	reqCtx := ctx.Request().Context()

	if api.deps.Cache != nil {
		if payload, err := api.deps.Cache.GetPublicPage(reqCtx, slug); err == nil {
			return ctx.JSONBlob(http.StatusOK, payload)
		} else if errors.Cause(err) != portfolio.ErrCacheMiss {
			api.deps.Logger.Warn("reading public page cache", err)
		}
	}

	pf, err := api.deps.PortfolioSvc.GetBySlug(reqCtx, slug)
	if err != nil {
		if errors.Cause(err) == portfolio.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding portfolio by slug")
	}
	// private portfolios are indistinguishable from missing ones
	if !pf.Public() {
		return errHttpNotFound
	}

	groups, skipped, err := api.deps.HighlightSvc.Timeline(reqCtx, pf.ID)
	if err != nil {
		return errors.Wrap(err, "building timeline")
	}

	page := PublicPageResponse{
		Portfolio: PublicPortfolio{
			ChildName: pf.ChildName,
			Title:     pf.Title,
			Slug:      pf.Slug,
			Template:  pf.Template,
		},
		Timeline: TimelineResponse{Skipped: skipped, Groups: groups},
	}

	payload, err := json.Marshal(page)
	if err != nil {
		return errors.Wrap(err, "marshaling public page")
	}
	if api.deps.Cache != nil {
		if err = api.deps.Cache.SetPublicPage(reqCtx, pf.Slug, payload); err != nil {
			api.deps.Logger.Warn("writing public page cache", err)
		}
	}
	return ctx.JSONBlob(http.StatusOK, payload)
}
