package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/kifolio/backend/core/portfolio"
	"github.com/kifolio/backend/core/user"
)

func Test_portfolioApi_create(t *testing.T) {
	app := setup(t)

	guardian := createUser(t, "Guardian", "guard", "guard@test.cd", "", []string{user.RoleGuardian}, true)
	token := getToken(t, guardian)

	tests := []httpTest{
		{
			name: "Auth required", body: marchallObj(t, echo.Map{}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "empty payload", body: marchallObj(t, echo.Map{}), token: token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"child_name": "this field is required", "title": "this field is required"}),
		},
		{
			name: "unknown template", token: token,
			body:     marchallObj(t, echo.Map{"child_name": "Mia Awe", "title": "Mia's Portfolio", "template": "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"template": "invalid template"}),
		},
		{
			name: "create", token: token,
			body:     marchallObj(t, echo.Map{"child_name": "Mia Awe", "title": "Mia's Portfolio"}),
			wantCode: http.StatusCreated, extra: "created",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/portfolios", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.extra == "created" {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var pf portfolio.Portfolio
				if err := json.Unmarshal(rec.Body.Bytes(), &pf); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if pf.OwnerID != guardian.ID {
					t.Errorf("OwnerID = %v; want %v", pf.OwnerID, guardian.ID)
				}
				if pf.Slug != "mia-awe" {
					t.Errorf("Slug = %v; want mia-awe", pf.Slug)
				}
				if pf.Template != portfolio.TemplateClassic {
					t.Errorf("Template = %v; want %v", pf.Template, portfolio.TemplateClassic)
				}
				if pf.Public() {
					t.Error("new portfolios must be private by default")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_portfolioApi_query(t *testing.T) {
	app := setup(t)

	guardian := createUser(t, "Guardian", "guard", "guard@test.cd", "", []string{user.RoleGuardian}, true)
	other := createUser(t, "Other", "other", "other@test.cd", "", []string{user.RoleGuardian}, true)
	admin := createUser(t, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	pf1 := createPortfolio(t, guardian, "Mia Awe", "Mia's Portfolio", "mia-awe", true)
	pf2 := createPortfolio(t, other, "Ben Dia", "Ben's Portfolio", "ben-dia", false)

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/portfolios",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "owners only see their own", path: "/v1/portfolios", token: getToken(t, guardian),
			wantCode: http.StatusOK, wantData: marchallList(t, pf1),
		},
		{
			name: "admin sees all", path: "/v1/portfolios", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, pf1, pf2),
		},
		{
			name: "search", path: "/v1/portfolios?search=ben", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, pf2),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_portfolioApi_detail(t *testing.T) {
	app := setup(t)

	guardian := createUser(t, "Guardian", "guard", "guard@test.cd", "", []string{user.RoleGuardian}, true)
	other := createUser(t, "Other", "other", "other@test.cd", "", []string{user.RoleGuardian}, true)

	pf := createPortfolio(t, guardian, "Mia Awe", "Mia's Portfolio", "mia-awe", true)
	token := getToken(t, guardian)

	t.Run("others get a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/portfolios/"+pf.ID, getToken(t, other))
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("owner retrieves", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/portfolios/"+pf.ID, token)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, pf)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("update keeps the slug", func(t *testing.T) {
		body := marchallObj(t, echo.Map{"child_name": "Mia A. Awe", "template": portfolio.TemplateModern})
		req, rec := newAuthRequest(http.MethodPut, "/v1/portfolios/"+pf.ID, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var updated portfolio.Portfolio
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if updated.ChildName != "Mia A. Awe" {
			t.Errorf("ChildName = %v; want Mia A. Awe", updated.ChildName)
		}
		if updated.Template != portfolio.TemplateModern {
			t.Errorf("Template = %v; want %v", updated.Template, portfolio.TemplateModern)
		}
		if updated.Slug != pf.Slug {
			t.Errorf("Slug = %v; slugs must never change", updated.Slug)
		}
	})

	t.Run("destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/portfolios/"+pf.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/portfolios/"+pf.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("retrieving deleted portfolio code = %v; want %v", rec.Code, http.StatusNotFound)
		}
	})
}
