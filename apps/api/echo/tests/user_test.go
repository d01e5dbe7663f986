package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/kifolio/backend/core/user"
	emailsvc "github.com/kifolio/backend/services/email"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	usr := createUser(t, "Jane Awe", "jane", "jane@test.cd", "LeP@ssw0rd", nil, true)
	_ = createUser(t, "N Dog", "ndog", "ndog@test.cd", "LeP@ssw0rd", nil, false)

	tests := []httpTest{
		{
			name: "empty payload", body: marchallObj(t, echo.Map{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echo.Map{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown user", body: marchallObj(t, echo.Map{"username": "lol", "password": "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: marchallObj(t, echo.Map{"username": usr.Username, "password": "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: marchallObj(t, echo.Map{"username": "ndog", "password": "LeP@ssw0rd"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login with username", body: marchallObj(t, echo.Map{"username": usr.Username, "password": "LeP@ssw0rd"}),
			wantCode: http.StatusOK, extra: "token",
		},
		{
			name: "login with email", body: marchallObj(t, echo.Map{"username": usr.Email, "password": "LeP@ssw0rd"}),
			wantCode: http.StatusOK, extra: "token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)

			if tt.extra == "token" {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var res struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if res.Token == "" {
					t.Error("expected a token in the response")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	guardian := createUser(t, "Guardian", "guard", "guard@test.cd", "", []string{user.RoleGuardian}, true)
	admin := createUser(t, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, guardian),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", path: "/v1/users", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, guardian, admin),
		},
		{
			name: "search", path: "/v1/users?search=guard", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, guardian),
		},
		{
			name: "role filter", path: "/v1/users?role=admin:", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, admin),
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

func Test_userApi_retrieve(t *testing.T) {
	app := setup(t)

	usr := createUser(t, "Jane Awe", "jane", "jane@test.cd", "", []string{user.RoleGuardian}, true)
	other := createUser(t, "Other", "other", "other@test.cd", "", []string{user.RoleGuardian}, true)
	admin := createUser(t, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/users/" + usr.ID,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "others cannot see someone else's account", path: "/v1/users/" + usr.ID, token: getToken(t, other),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "own account", path: "/v1/users/" + usr.ID, token: getToken(t, usr),
			wantCode: http.StatusOK, wantData: marchallObj(t, usr),
		},
		{
			name: "admin sees any account", path: "/v1/users/" + usr.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, usr),
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

func Test_userApi_passwordResetFlow(t *testing.T) {
	app := setup(t)

	usr := createUser(t, "Jane Awe", "jane", "jane@test.cd", "LeP@ssw0rd", nil, true)

	// request a reset; the response never leaks account existence
	body := marchallObj(t, echo.Map{"email": usr.Email})
	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("password-reset code = %v; want %v", rec.Code, http.StatusOK)
	}

	req, rec = newRequest(http.MethodPost, "/v1/users/password-reset", marchallObj(t, echo.Map{"email": "ghost@test.cd"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("password-reset (unknown email) code = %v; want %v", rec.Code, http.StatusOK)
	}

	if len(emailsvc.SentMessages) == 0 {
		t.Fatal("expected a password reset email to have been sent")
	}
}
