package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/kifolio/backend/apps/api/echo"
	"github.com/kifolio/backend/core"
	"github.com/kifolio/backend/core/highlight"
	"github.com/kifolio/backend/core/portfolio"
	"github.com/kifolio/backend/core/user"
	emailsvc "github.com/kifolio/backend/services/email"
	logsvc "github.com/kifolio/backend/services/logger"
	"github.com/kifolio/backend/storage/cache"
	inmemdb "github.com/kifolio/backend/storage/database/inmem"
)

var (
	conf *core.Config

	usrRepo user.Repository
	pfRepo  portfolio.Repository
	hlRepo  highlight.Repository

	usrSvc user.ServiceInterface
	pfSvc  portfolio.ServiceInterface
	hlSvc  highlight.ServiceInterface

	pageCache portfolio.Cache

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func newTestConfig() *core.Config {
	return &core.Config{
		AppName:   "Kifolio",
		Env:       "TEST",
		TestMode:  true,
		SecretKey: []byte("test-secret-key"),
		Server: core.ServerConfig{
			JWTExpirationDelta:        30 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
}

func setup(t *testing.T) Server {
	t.Helper()

	conf = newTestConfig()
	logger := logsvc.NewZapLogger(conf)
	logger.Enable(false)

	// set up DB & repos
	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	pfRepo = inmemdb.NewPortfolioRepository(db)
	hlRepo = inmemdb.NewHighlightRepository(db)
	pageCache = cache.NewLocalCache()

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc = user.NewService(usrRepo, mailSvc, conf, logger)
	pfSvc = portfolio.NewService(pfRepo, pageCache, conf, logger)
	hlSvc = highlight.NewService(hlRepo, pfRepo, pageCache, conf, logger)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	portfolio.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(logger)

	// set up server
	return NewServer(
		ServerDeps{
			Conf:         conf,
			Logger:       logger,
			UserSvc:      usrSvc,
			PortfolioSvc: pfSvc,
			HighlightSvc: hlSvc,
			Cache:        pageCache,
			Validate:     validate,
			Translator:   translator,
		},
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func createUser(t *testing.T, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword() failed: %v", err)
		}
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func createPortfolio(t *testing.T, owner user.User, childName, title, slug string, isPublic bool) portfolio.Portfolio {
	t.Helper()

	now := time.Now().UTC()
	pf := portfolio.Portfolio{
		OwnerID:   owner.ID,
		ChildName: childName,
		Title:     title,
		Slug:      slug,
		Template:  portfolio.TemplateClassic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	pf.SetPublic(isPublic)
	pf, err := pfRepo.CreatePortfolio(context.Background(), pf)
	if err != nil {
		t.Fatalf("CreatePortfolio() failed: %v", err)
	}
	return pf
}

func createHighlight(t *testing.T, pf portfolio.Portfolio, title, date string, media ...highlight.MediaItem) highlight.Highlight {
	t.Helper()

	now := time.Now().UTC()
	hl := highlight.Highlight{
		PortfolioID: pf.ID,
		Title:       title,
		Date:        date,
		Media:       media,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	hl, err := hlRepo.CreateHighlight(context.Background(), hl)
	if err != nil {
		t.Fatalf("CreateHighlight() failed: %v", err)
	}
	return hl
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
