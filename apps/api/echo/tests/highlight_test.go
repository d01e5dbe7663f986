package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/kifolio/backend/core/highlight"
	"github.com/kifolio/backend/core/media"
	"github.com/kifolio/backend/core/user"
)

func Test_highlightApi_create(t *testing.T) {
	app := setup(t)

	guardian := createUser(t, "Guardian", "guard", "guard@test.cd", "", []string{user.RoleGuardian}, true)
	other := createUser(t, "Other", "other", "other@test.cd", "", []string{user.RoleGuardian}, true)
	pf := createPortfolio(t, guardian, "Mia Awe", "Mia's Portfolio", "mia-awe", true)
	token := getToken(t, guardian)
	path := "/v1/portfolios/" + pf.ID + "/highlights"

	tests := []httpTest{
		{
			name: "Auth required", body: marchallObj(t, echo.Map{}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "someone else's portfolio", body: marchallObj(t, echo.Map{}), token: getToken(t, other),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "empty payload", body: marchallObj(t, echo.Map{}), token: token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"title": "this field is required", "date": "this field is required"}),
		},
		{
			name: "impossible date", token: token,
			body:     marchallObj(t, echo.Map{"title": "First steps", "date": "2024-02-30"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"date": "not a valid calendar date"}),
		},
		{
			name: "malformed date", token: token,
			body:     marchallObj(t, echo.Map{"title": "First steps", "date": "02/30/2024"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"date": "invalid format; expected YYYY-MM-DD"}),
		},
		{
			name: "year too far back", token: token,
			body:     marchallObj(t, echo.Map{"title": "First steps", "date": "1899-12-31"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"date": "year must be 1900 or later"}),
		},
		{
			name: "create", token: token,
			body: marchallObj(t, echo.Map{
				"title":        "First steps",
				"description":  "She walked!",
				"date":         "2024-03-10",
				"category":     "Motor Skills",
				"is_milestone": true,
				"media": []echo.Map{
					{"url": "https://cdn.test.cd/uploads/steps.mp4", "content_type": "video/mp4", "file_size": 1024},
					{"url": "https://cdn.test.cd/uploads/steps.jpg"},
					{"url": "https://cdn.test.cd/uploads/blob-1234", "content_type": "image/png"},
				},
			}),
			wantCode: http.StatusCreated, extra: "created",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.extra == "created" {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var hl highlight.Highlight
				if err := json.Unmarshal(rec.Body.Bytes(), &hl); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if hl.PortfolioID != pf.ID {
					t.Errorf("PortfolioID = %v; want %v", hl.PortfolioID, pf.ID)
				}
				if hl.Category != "motor skills" {
					t.Errorf("Category = %v; want motor skills", hl.Category)
				}
				if !hl.IsMilestone {
					t.Error("IsMilestone = false; want true")
				}
				if len(hl.Media) != 3 {
					t.Fatalf("len(Media) = %v; want 3", len(hl.Media))
				}
				wantKinds := []media.Kind{media.Video, media.Image, media.Image}
				wantNames := []string{"steps.mp4", "steps.jpg", "Media file"}
				for i, item := range hl.Media {
					if item.Kind != wantKinds[i] {
						t.Errorf("Media[%d].Kind = %v; want %v", i, item.Kind, wantKinds[i])
					}
					if item.FileName != wantNames[i] {
						t.Errorf("Media[%d].FileName = %v; want %v", i, item.FileName, wantNames[i])
					}
					if item.Position != i {
						t.Errorf("Media[%d].Position = %v; want %v", i, item.Position, i)
					}
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_highlightApi_query(t *testing.T) {
	app := setup(t)

	guardian := createUser(t, "Guardian", "guard", "guard@test.cd", "", []string{user.RoleGuardian}, true)
	pf := createPortfolio(t, guardian, "Mia Awe", "Mia's Portfolio", "mia-awe", true)
	token := getToken(t, guardian)
	path := "/v1/portfolios/" + pf.ID + "/highlights"

	steps := createHighlight(t, pf, "First steps", "2024-03-10")
	steps.Category = "motor skills"
	steps.IsMilestone = true
	steps, err := hlRepo.UpdateHighlight(context.Background(), steps, false)
	if err != nil {
		t.Fatalf("UpdateHighlight() failed: %v", err)
	}
	words := createHighlight(t, pf, "First words", "2024-05-02")

	tests := []httpTest{
		{
			name: "get all", path: path, token: token,
			wantCode: http.StatusOK, wantData: marchallList(t, steps, words),
		},
		{
			name: "search", path: path + "?search=steps", token: token,
			wantCode: http.StatusOK, wantData: marchallList(t, steps),
		},
		{
			name: "category filter", path: path + "?category=Motor+Skills", token: token,
			wantCode: http.StatusOK, wantData: marchallList(t, steps),
		},
		{
			name: "milestones only", path: path + "?is_milestone=true", token: token,
			wantCode: http.StatusOK, wantData: marchallList(t, steps),
		},
		{
			name: "date range", path: path + "?date_from=2024-04-01&date_to=2024-06-01", token: token,
			wantCode: http.StatusOK, wantData: marchallList(t, words),
		},
		{
			name: "bad date filter", path: path + "?date_from=lol", token: token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"date_from": "enter a valid date in YYYY-MM-DD format"}),
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

func Test_highlightApi_detail(t *testing.T) {
	app := setup(t)

	guardian := createUser(t, "Guardian", "guard", "guard@test.cd", "", []string{user.RoleGuardian}, true)
	other := createUser(t, "Other", "other", "other@test.cd", "", []string{user.RoleGuardian}, true)
	pf := createPortfolio(t, guardian, "Mia Awe", "Mia's Portfolio", "mia-awe", true)
	token := getToken(t, guardian)

	hl := createHighlight(t, pf, "First steps", "2024-03-10", highlight.MediaItem{
		ID: "media-1", HighlightID: "x", URL: "https://cdn.test.cd/steps.jpg",
		Kind: media.Image, FileName: "steps.jpg",
	})

	t.Run("others get a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/highlights/"+hl.ID, getToken(t, other))
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("owner retrieves", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/highlights/"+hl.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
	})

	t.Run("update without media keeps attachments", func(t *testing.T) {
		body := marchallObj(t, echo.Map{"title": "First unaided steps"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/highlights/"+hl.ID, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var updated highlight.Highlight
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if updated.Title != "First unaided steps" {
			t.Errorf("Title = %v; want First unaided steps", updated.Title)
		}
		if updated.Date != hl.Date {
			t.Errorf("Date = %v; want %v", updated.Date, hl.Date)
		}
		if len(updated.Media) != 1 || updated.Media[0].URL != hl.Media[0].URL {
			t.Errorf("Media = %v; attachments must be untouched", updated.Media)
		}
	})

	t.Run("update with media replaces attachments", func(t *testing.T) {
		body := marchallObj(t, echo.Map{
			"media": []echo.Map{{"url": "https://cdn.test.cd/steps.mp4", "content_type": "video/mp4"}},
		})
		req, rec := newAuthRequest(http.MethodPut, "/v1/highlights/"+hl.ID, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var updated highlight.Highlight
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(updated.Media) != 1 {
			t.Fatalf("len(Media) = %v; want 1", len(updated.Media))
		}
		if updated.Media[0].Kind != media.Video {
			t.Errorf("Media[0].Kind = %v; want %v", updated.Media[0].Kind, media.Video)
		}
	})

	t.Run("update with a bad date", func(t *testing.T) {
		body := marchallObj(t, echo.Map{"date": "2024-02-30"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/highlights/"+hl.ID, token, body)
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"date": "not a valid calendar date"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/highlights/"+hl.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/highlights/"+hl.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("retrieving deleted highlight code = %v; want %v", rec.Code, http.StatusNotFound)
		}
	})
}

func Test_portfolioApi_timeline(t *testing.T) {
	app := setup(t)

	guardian := createUser(t, "Guardian", "guard", "guard@test.cd", "", []string{user.RoleGuardian}, true)
	pf := createPortfolio(t, guardian, "Mia Awe", "Mia's Portfolio", "mia-awe", true)
	token := getToken(t, guardian)

	createHighlight(t, pf, "First steps", "2024-03-10")
	createHighlight(t, pf, "First drawing", "2024-03-05")
	createHighlight(t, pf, "First words", "2024-02-01")
	createHighlight(t, pf, "Corrupt record", "2024-02-30") // repo-direct; skips validation

	req, rec := newAuthRequest(http.MethodGet, "/v1/portfolios/"+pf.ID+"/timeline", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}

	var res struct {
		Skipped int `json:"skipped"`
		Groups  []struct {
			Label string `json:"label"`
			Month string `json:"month"`
			Items []highlight.Highlight
		} `json:"groups"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if res.Skipped != 1 {
		t.Errorf("Skipped = %v; want 1", res.Skipped)
	}
	if len(res.Groups) != 2 {
		t.Fatalf("len(Groups) = %v; want 2", len(res.Groups))
	}
	if res.Groups[0].Label != "March 2024" || res.Groups[1].Label != "February 2024" {
		t.Errorf("labels = %v, %v; want March 2024, February 2024", res.Groups[0].Label, res.Groups[1].Label)
	}
	if len(res.Groups[0].Items) != 2 || len(res.Groups[1].Items) != 1 {
		t.Errorf("group sizes = %v, %v; want 2, 1", len(res.Groups[0].Items), len(res.Groups[1].Items))
	}
	if res.Groups[0].Items[0].Title != "First steps" {
		t.Errorf("Groups[0].Items[0].Title = %v; newest first within a month", res.Groups[0].Items[0].Title)
	}
}
