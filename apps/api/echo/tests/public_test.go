package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kifolio/backend/core/portfolio"
	"github.com/kifolio/backend/core/user"
)

func Test_publicApi_page(t *testing.T) {
	app := setup(t)

	guardian := createUser(t, "Guardian", "guard", "guard@test.cd", "", []string{user.RoleGuardian}, true)
	pub := createPortfolio(t, guardian, "Mia Awe", "Mia's Portfolio", "mia-awe", true)
	_ = createPortfolio(t, guardian, "Ben Dia", "Ben's Portfolio", "ben-dia", false)

	createHighlight(t, pub, "First steps", "2024-03-10")
	createHighlight(t, pub, "First words", "2024-02-01")

	t.Run("unknown slug", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/p/ghost")
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("private pages look missing", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/p/ben-dia")
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("public page", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/p/mia-awe")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}

		var page struct {
			Portfolio struct {
				ChildName string `json:"child_name"`
				Title     string `json:"title"`
				Slug      string `json:"slug"`
				Template  string `json:"template"`
			} `json:"portfolio"`
			Timeline struct {
				Skipped int `json:"skipped"`
				Groups  []struct {
					Label string `json:"label"`
				} `json:"groups"`
			} `json:"timeline"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if page.Portfolio.ChildName != "Mia Awe" || page.Portfolio.Slug != "mia-awe" {
			t.Errorf("portfolio = %+v; want Mia Awe / mia-awe", page.Portfolio)
		}
		if page.Portfolio.Template != portfolio.TemplateClassic {
			t.Errorf("Template = %v; want %v", page.Portfolio.Template, portfolio.TemplateClassic)
		}
		if len(page.Timeline.Groups) != 2 {
			t.Errorf("len(Groups) = %v; want 2", len(page.Timeline.Groups))
		}
	})

	t.Run("pages are cached and served from the cache", func(t *testing.T) {
		payload, err := pageCache.GetPublicPage(context.Background(), "mia-awe")
		if err != nil {
			t.Fatalf("expected the page to be cached; err %v", err)
		}

		req, rec := newRequest(http.MethodGet, "/p/mia-awe")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		if !bytes.Equal(bytes.TrimSpace(rec.Body.Bytes()), payload) {
			t.Error("expected the cached payload to be served as-is")
		}
	})

	t.Run("updates invalidate the cache", func(t *testing.T) {
		body := marchallObj(t, echo.Map{"title": "Mia's Journey"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/portfolios/"+pub.ID, getToken(t, guardian), body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("update code = %v; wantCode %v", rec.Code, http.StatusOK)
		}

		if _, err := pageCache.GetPublicPage(context.Background(), "mia-awe"); errors.Cause(err) != portfolio.ErrCacheMiss {
			t.Fatalf("expected a cache miss after update; err %v", err)
		}

		req, rec = newRequest(http.MethodGet, "/p/mia-awe")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var page struct {
			Portfolio struct {
				Title string `json:"title"`
			} `json:"portfolio"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if page.Portfolio.Title != "Mia's Journey" {
			t.Errorf("Title = %v; want the freshly rendered page", page.Portfolio.Title)
		}
	})
}
