package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"likesio/config"
	"likesio/internal/auth"
	"likesio/internal/domain"
	"likesio/internal/middleware"
	"likesio/internal/models"
	"likesio/internal/repository"
	"likesio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type adminAuthFixture struct {
	db     *gorm.DB
	cfg    *config.Config
	engine *gin.Engine
}

func newAdminAuthFixture(t *testing.T) *adminAuthFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "likesio",
	}

	authSvc := service.NewAuthService(cfg, repository.NewUserRepository(db))
	h := NewAdminHandler(nil, nil, nil, nil, nil, nil, nil, nil, authSvc, nil, nil)

	engine := gin.New()
	engine.POST("/admin/login", h.Login)
	engine.POST("/admin/refresh", h.Refresh)
	protected := engine.Group("/admin", middleware.AuthRequired(&cfg.JWT), middleware.AdminRequired())
	protected.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": middleware.GetUserID(c)})
	})

	return &adminAuthFixture{db: db, cfg: cfg, engine: engine}
}

func (f *adminAuthFixture) seedUser(t *testing.T, email, password, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Email: email, Username: email, PasswordHash: string(hash), Role: role}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *adminAuthFixture) postJSON(t *testing.T, path string, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *adminAuthFixture) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func TestAdminLoginRefreshCycle(t *testing.T) {
	f := newAdminAuthFixture(t)
	f.seedUser(t, "admin@likes.io", "hunter2", domain.RoleAdmin)

	w := f.postJSON(t, "/admin/login", map[string]any{"email": "admin@likes.io", "password": "hunter2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login tokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.RefreshToken)

	w = f.postJSON(t, "/admin/refresh", map[string]any{"refresh_token": login.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var refreshed tokenPair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEmpty(t, refreshed.RefreshToken)

	// The refreshed access token must open the protected group.
	assert.Equal(t, http.StatusOK, f.get("/admin/ping", refreshed.AccessToken).Code)
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	f := newAdminAuthFixture(t)
	f.seedUser(t, "admin@likes.io", "hunter2", domain.RoleAdmin)

	w := f.postJSON(t, "/admin/login", map[string]any{"email": "admin@likes.io", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLoginRejectsCustomerRole(t *testing.T) {
	f := newAdminAuthFixture(t)
	f.seedUser(t, "buyer@example.com", "hunter2", domain.RoleCustomer)

	w := f.postJSON(t, "/admin/login", map[string]any{"email": "buyer@example.com", "password": "hunter2"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	f := newAdminAuthFixture(t)

	w := f.postJSON(t, "/admin/refresh", map[string]any{"refresh_token": "not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRejectsNonAdmin(t *testing.T) {
	f := newAdminAuthFixture(t)
	buyer := f.seedUser(t, "buyer@example.com", "hunter2", domain.RoleCustomer)

	token, err := auth.GenerateRefreshToken(&f.cfg.JWT, buyer.ID)
	require.NoError(t, err)
	w := f.postJSON(t, "/admin/refresh", map[string]any{"refresh_token": token})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRefreshRejectsDeletedUser(t *testing.T) {
	f := newAdminAuthFixture(t)
	admin := f.seedUser(t, "admin@likes.io", "hunter2", domain.RoleAdmin)

	token, err := auth.GenerateRefreshToken(&f.cfg.JWT, admin.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Delete(admin).Error)

	w := f.postJSON(t, "/admin/refresh", map[string]any{"refresh_token": token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRouteGuards(t *testing.T) {
	f := newAdminAuthFixture(t)
	buyer := f.seedUser(t, "buyer@example.com", "hunter2", domain.RoleCustomer)

	assert.Equal(t, http.StatusUnauthorized, f.get("/admin/ping", "").Code)

	buyerToken, err := auth.GenerateAccessToken(&f.cfg.JWT, buyer.ID, buyer.Email, buyer.Role)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, f.get("/admin/ping", buyerToken).Code)
}
