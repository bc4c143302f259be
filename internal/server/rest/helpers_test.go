package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/onboardkit/internal/logging"
	"github.com/dmitrijs2005/onboardkit/internal/server/auth"
	"github.com/dmitrijs2005/onboardkit/internal/server/objectstore"
	"github.com/dmitrijs2005/onboardkit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/onboardkit/internal/server/services"
	"github.com/steinfletcher/apitest"
)

const (
	testSecret = "rest-test-secret"
	adminEmail = "admin@example.com"
)

type stubStore struct{}

func (stubStore) DeleteObject(ctx context.Context, key string) error { return nil }

func (stubStore) PresignUpload(ctx context.Context, resourceID string) (*objectstore.PresignedUpload, error) {
	return &objectstore.PresignedUpload{
		Key:       "resources/" + resourceID + "/upload",
		URL:       "http://127.0.0.1:9000/bucket/resources/" + resourceID + "/upload?X-Amz-Signature=x",
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

type testEnv struct {
	manager *repomanager.MemoryRepositoryManager
	tokens  *auth.TokenIssuer
	metrics *Metrics
	server  *Server
	handler http.Handler
}

func newTestEnv(t *testing.T, secret string) *testEnv {
	t.Helper()

	m := repomanager.NewMemoryRepositoryManager()
	logger := logging.NewNopLogger()
	tokens := auth.NewTokenIssuer(secret, time.Hour)
	admins := auth.ParseAdminList(adminEmail)
	metrics := NewMetrics()

	us := services.NewUserService(m, auth.NewHasher(4), tokens, admins, logger)
	ps := services.NewProgressService(m, logger)
	rs := services.NewResourceService(m, stubStore{}, logger)
	a := NewAuthenticator(tokens, m.Users(), admins, logger, metrics, false)

	s := NewServer(Options{Address: ":0", CORSOrigins: []string{"*"}}, logger, us, ps, rs, a, metrics)
	return &testEnv{manager: m, tokens: tokens, metrics: metrics, server: s, handler: s.Handler()}
}

func bearer(token string) string {
	return "Bearer " + token
}

// captureToken reads the login response body and stores its token.
func captureToken(dst *string) func(*http.Response, *http.Request) error {
	return func(res *http.Response, _ *http.Request) error {
		var body loginResponse
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return err
		}
		if body.Token == "" {
			return fmt.Errorf("empty token in login response")
		}
		*dst = body.Token
		return nil
	}
}

func (e *testEnv) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	apitest.New().
		Handler(e.handler).
		Post("/api/auth/register").
		JSON(fmt.Sprintf(`{"email":%q,"password":"secret123"}`, email)).
		Expect(t).
		Status(http.StatusCreated).
		End()

	var token string
	apitest.New().
		Handler(e.handler).
		Post("/api/auth/login").
		JSON(fmt.Sprintf(`{"email":%q,"password":"secret123"}`, email)).
		Expect(t).
		Status(http.StatusOK).
		Assert(captureToken(&token)).
		End()
	return token
}
