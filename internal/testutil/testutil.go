package testutil

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/gallery-cms/internal/api"
	"github.com/dom/gallery-cms/internal/config"
	"github.com/dom/gallery-cms/internal/csrf"
	"github.com/dom/gallery-cms/internal/logging"
	"github.com/dom/gallery-cms/internal/repository"
	"github.com/dom/gallery-cms/internal/repository/gormstore"
	"github.com/dom/gallery-cms/internal/repository/memory"
	"github.com/dom/gallery-cms/internal/service"
	"github.com/dom/gallery-cms/internal/session"
	"github.com/dom/gallery-cms/internal/web"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcMySQL "github.com/testcontainers/testcontainers-go/modules/mysql"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers MySQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new MySQL testcontainer and returns a migrated connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcMySQL.Run(ctx,
		"mysql:8.0.36",
		tcMySQL.WithDatabase("test_gallery_cms"),
		tcMySQL.WithUsername("test"),
		tcMySQL.WithPassword("test"),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("failed to start mysql container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "parseTime=true", "charset=utf8mb4", "loc=UTC")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gormstore.NewConnection(config.DriverMySQL, dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	return &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}
}

// Truncate clears all tables for test isolation. Children go first so
// foreign keys never block the delete.
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"gallery_images",
		"galleries",
		"articles",
		"images",
		"categories",
		"sessions",
		"users",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec("DELETE FROM " + table).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// NewTestRedis starts a Redis testcontainer and returns a connected client.
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	container, err := tcRedis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis connection string: %v", err)
	}

	client, err := session.Connect(ctx, url)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                "0", // Random port
		Environment:         "test",
		DatabaseDriver:      config.DriverMySQL,
		SessionStore:        config.SessionStoreDatabase,
		SessionSecret:       "test-session-secret-key-for-testing-only",
		SessionTTL:          time.Hour,
		SessionCookieName:   "cms_session",
		CSRFTokenTTLSeconds: 600,
		CSRFMaxTokens:       10,
		CSRFValidateOrigin:  true,
		CSRFValidateReferer: true,
		CSRFFieldName:       "csrf_token",
		ArticlesPerPage:     5,
		LogLevel:            "error",
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Client   *http.Client
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Sessions *session.Manager
	Config   *config.Config
}

// NewTestServer runs the full router over in-memory repositories.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return newTestServer(t, memory.New().Repositories(), nil)
}

// NewMySQLTestServer runs the full router over a MySQL testcontainer.
func NewMySQLTestServer(t *testing.T) *TestServer {
	t.Helper()
	testDB := NewTestDB(t)
	return newTestServer(t, gormstore.NewRepositories(testDB.DB), testDB)
}

func newTestServer(t *testing.T, repos *repository.Repositories, testDB *TestDB) *TestServer {
	t.Helper()

	cfg := TestConfig()
	log := logging.Discard()

	services := service.NewServices(repos, cfg, log)
	sessions := session.NewManager(repos.Session, cfg.Session(), log)
	guard := csrf.New(cfg.CSRF(), log)
	views, err := web.NewViews(guard, log)
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	router := api.NewRouter(services, sessions, guard, views, log)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:   server,
		Client:   NewClient(t),
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Sessions: sessions,
		Config:   cfg,
	}
}

// NewClient returns a browser-like client: it keeps cookies and hands
// redirects back to the caller instead of following them.
func NewClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// URL returns the full URL for a given path
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}
