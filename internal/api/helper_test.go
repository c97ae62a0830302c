package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"auditdna/internal/db"
	"auditdna/internal/db/repository"
	"auditdna/internal/domain"
	"auditdna/internal/engine"
	"auditdna/internal/notify"
	"auditdna/internal/service/analytics"
	"auditdna/internal/service/branding"
	"auditdna/internal/service/sso"
	"auditdna/internal/tenant"
)

var testSecret = []byte("api-test-secret")

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testServer bundles the wired HTTP surface with direct access to the
// stores behind it.
type testServer struct {
	srv         *httptest.Server
	defaults    *domain.Stores
	tenants     domain.TenantRepository
	registry    *tenant.Registry
	provisioner *tenant.Provisioner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	writeDB, readDB := db.OpenTestControl(t)
	tenants := repository.NewTenantRepo(writeDB, readDB)
	ssoConfigs := repository.NewSSOConfigRepo(writeDB, readDB)
	schedules := repository.NewScheduleRepo(writeDB, readDB)

	tenantRegistry := tenant.NewRegistry(tenants, t.TempDir(), testLogger())
	t.Cleanup(func() { _ = tenantRegistry.Close() })
	provisioner := tenant.NewProvisioner(tenants, tenantRegistry, "auditdna.com", testLogger())
	resolver := tenant.NewResolver(tenantRegistry, "auditdna.com", string(testSecret), testLogger())

	defaults := repository.NewStores(db.OpenTestNamespace(t))
	stores := engine.DefaultStoreFunc(defaults)

	engines := engine.NewRegistry(testLogger())
	require.NoError(t, engine.LoadAll(engines, stores, testLogger()))

	brandingSvc := branding.NewService(tenants, nil, tenantRegistry, testLogger())
	ssoSvc := sso.NewService(ssoConfigs, tenants, testLogger())
	analyticsSvc := analytics.NewService(schedules, tenantRegistry, notify.NewLogSender(testLogger()), testLogger())
	scheduler := analytics.NewScheduler(analyticsSvc, testLogger())

	h := NewHandler(Deps{
		Registry:    engines,
		Stores:      stores,
		Provisioner: provisioner,
		Tenants:     tenants,
		Branding:    brandingSvc,
		SSO:         ssoSvc,
		Analytics:   analyticsSvc,
		Scheduler:   scheduler,
		Notifier:    notify.NewLogSender(testLogger()),
		UploadDir:   t.TempDir(),
		Logger:      testLogger(),
	})
	router := NewRouter(h, resolver, RouterConfig{
		JWTSecret:          testSecret,
		CORSAllowedOrigins: []string{"*"},
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		srv:         srv,
		defaults:    defaults,
		tenants:     tenants,
		registry:    tenantRegistry,
		provisioner: provisioner,
	}
}

func (ts *testServer) provision(t *testing.T, company string) *domain.ProvisionResult {
	t.Helper()
	result, err := ts.provisioner.CreateTenant(context.Background(), domain.CreateTenantParams{
		CompanyName: company,
		AdminUser: domain.AdminUserSpec{
			Email:    "admin@" + company + ".example",
			Password: "hunter2hunter2",
		},
	})
	require.NoError(t, err)
	return result
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "test-admin",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

// do performs one request and decodes the JSON envelope.
func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, ts.srv.URL+path, body)
	require.NoError(t, err)
	if body != nil && headers["Content-Type"] == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var envelope map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp.StatusCode, envelope
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// multipartBody builds a multipart body with one file part plus extra fields.
func multipartBody(t *testing.T, field, filename string, content []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func seedDefaultRecord(t *testing.T, ts *testServer, engineName, name string) *domain.EngineRecord {
	t.Helper()
	rec := domain.NewEngineRecord(engineName, name, 4.2, "ppm", "Iowa")
	require.NoError(t, ts.defaults.Records.Insert(context.Background(), rec))
	return rec
}
