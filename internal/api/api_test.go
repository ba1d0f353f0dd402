package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msarchive/msarchive/internal/auth"
	"github.com/msarchive/msarchive/internal/captcha"
	"github.com/msarchive/msarchive/internal/config"
	"github.com/msarchive/msarchive/internal/db"
)

type testEnv struct {
	srv  *httptest.Server
	db   *db.DB
	auth *auth.Auth
	cfg  *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	a := auth.New("test-secret", 60)
	// No secret configured and permissive mode: a present token passes, a
	// missing one is still rejected.
	verifier := captcha.New("", cfg.Captcha.VerifyURL, "permissive")

	// Tests share one process; give each env a fresh intake limiter.
	CorrectionRateLimiter = NewRateLimiter(1000, time.Minute)

	mux := http.NewServeMux()
	New(database, a, verifier, cfg).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, db: database, auth: a, cfg: cfg}
}

// adminToken registers the email as a user, allowlists it, and returns a
// bearer token for it.
func (e *testEnv) adminToken(t *testing.T, email string) string {
	t.Helper()
	user, err := e.db.CreateUser(db.CreateUserInput{Email: email, PasswordHash: "x"})
	require.NoError(t, err)
	require.NoError(t, e.db.AddAllowlistEntry(email, "test"))
	token, err := e.auth.GenerateToken(user.ID, email)
	require.NoError(t, err)
	return token
}

// userToken returns a valid token for an email that is NOT allowlisted.
func (e *testEnv) userToken(t *testing.T, email string) string {
	t.Helper()
	user, err := e.db.CreateUser(db.CreateUserInput{Email: email, PasswordHash: "x"})
	require.NoError(t, err)
	token, err := e.auth.GenerateToken(user.ID, email)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func validIncidentBody() map[string]interface{} {
	return map[string]interface{}{
		"date":          "2024-03-15",
		"city":          "Springfield",
		"state":         "IL",
		"location_type": "public_space",
		"fatalities":    5,
		"injuries":      3,
		"context":       "Shooting at a downtown festival",
		"description":   "Gunfire broke out during an evening street festival.",
	}
}

func TestAdminRoutesRejectOutsiders(t *testing.T) {
	env := newTestEnv(t)
	outsider := env.userToken(t, "outsider@example.com")

	routes := []struct {
		method, path string
	}{
		{"GET", "/api/admin/incidents"},
		{"POST", "/api/admin/incidents"},
		{"PUT", "/api/admin/incidents/x"},
		{"DELETE", "/api/admin/incidents/x"},
		{"GET", "/api/admin/suspects/x"},
		{"POST", "/api/admin/suspects"},
		{"POST", "/api/admin/weapons"},
		{"GET", "/api/admin/legislation"},
		{"POST", "/api/admin/legislation"},
		{"GET", "/api/admin/corrections"},
		{"PUT", "/api/admin/corrections/1"},
		{"GET", "/api/admin/users"},
		{"POST", "/api/admin/users"},
		{"DELETE", "/api/admin/users/x@example.com"},
		{"GET", "/api/admin/audit"},
		{"GET", "/api/admin/export/incidents.xlsx"},
		{"POST", "/api/admin/incidents/x/sources"},
	}

	for _, rt := range routes {
		t.Run("NoToken_"+rt.method+"_"+rt.path, func(t *testing.T) {
			resp, body := env.do(t, rt.method, rt.path, "", nil, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "unauthorized", body["error"], "failure must be uniform")
		})
		t.Run("NotAllowlisted_"+rt.method+"_"+rt.path, func(t *testing.T) {
			resp, body := env.do(t, rt.method, rt.path, outsider, nil, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "unauthorized", body["error"])
		})
	}
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "POST", "/api/register", "", map[string]string{
		"email":    "curator@example.com",
		"password": "long-enough-password",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	token := data["token"].(string)
	require.NotEmpty(t, token)

	resp, body = env.do(t, "POST", "/api/login", "", map[string]string{
		"email":    "curator@example.com",
		"password": "long-enough-password",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, false, data["is_admin"])

	resp, body = env.do(t, "GET", "/api/me", token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "curator@example.com", user["email"])

	t.Run("WrongPassword", func(t *testing.T) {
		resp, _ := env.do(t, "POST", "/api/login", "", map[string]string{
			"email":    "curator@example.com",
			"password": "wrong",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		resp, _ := env.do(t, "POST", "/api/register", "", map[string]string{
			"email":    "other@example.com",
			"password": "short",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestIncidentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t, "admin@example.com")

	resp, body := env.do(t, "POST", "/api/admin/incidents", admin, validIncidentBody(), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	incident := body["data"].(map[string]interface{})
	id := incident["id"].(string)

	t.Run("ValidationError", func(t *testing.T) {
		bad := validIncidentBody()
		bad["state"] = "XX"
		bad["date"] = "15/03/2024"
		resp, body := env.do(t, "POST", "/api/admin/incidents", admin, bad, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		msg := body["error"].(string)
		assert.Contains(t, msg, "state")
		assert.Contains(t, msg, "date")
	})

	t.Run("PublishGuard", func(t *testing.T) {
		small := validIncidentBody()
		small["fatalities"] = 1
		small["injuries"] = 1
		small["is_published"] = true
		resp, body := env.do(t, "POST", "/api/admin/incidents", admin, small, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"].(string), "at least 4")
	})

	t.Run("PublishAndVerify", func(t *testing.T) {
		update := validIncidentBody()
		update["is_published"] = true
		update["mark_verified"] = true
		resp, body := env.do(t, "PUT", "/api/admin/incidents/"+id, admin, update, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		updated := body["data"].(map[string]interface{})
		assert.Equal(t, true, updated["is_published"])
		assert.NotNil(t, updated["incident_code"])
		assert.NotNil(t, updated["last_verified_at"])
	})

	t.Run("PublicVisibility", func(t *testing.T) {
		resp, body := env.do(t, "GET", "/api/incidents", "", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := body["data"].([]interface{})
		require.Len(t, list, 1)
	})

	t.Run("Delete", func(t *testing.T) {
		resp, _ := env.do(t, "DELETE", "/api/admin/incidents/"+id, admin, nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = env.do(t, "DELETE", "/api/admin/incidents/"+id, admin, nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSuspectCompositeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t, "admin@example.com")

	_, body := env.do(t, "POST", "/api/admin/incidents", admin, validIncidentBody(), nil)
	incidentID := body["data"].(map[string]interface{})["id"].(string)

	payload := map[string]interface{}{
		"incident_id": incidentID,
		"gender":      "male",
		"race":        "White",
		"status":      "apprehended",
		"age":         34,
		"weapons": []map[string]interface{}{
			{"type": "handgun", "legally_purchased": true},
			{"type": "rifle"},
		},
		"history": map[string]interface{}{
			"criminal_record": true,
		},
	}
	resp, body := env.do(t, "POST", "/api/admin/suspects", admin, payload, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	suspect := body["data"].(map[string]interface{})
	assert.Len(t, suspect["weapons"], 2)

	t.Run("BadWeaponFailsWhole", func(t *testing.T) {
		bad := map[string]interface{}{
			"incident_id": incidentID,
			"gender":      "unknown",
			"race":        "Unknown",
			"status":      "unknown",
			"weapons": []map[string]interface{}{
				{"type": "shotgun"},
				{"type": ""},
			},
		}
		resp, _ := env.do(t, "POST", "/api/admin/suspects", admin, bad, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, body := env.do(t, "GET", "/api/admin/suspects?incident_id="+incidentID, admin, nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, body["data"], 1, "only the first suspect exists")
	})

	t.Run("BadAge", func(t *testing.T) {
		bad := map[string]interface{}{
			"incident_id": incidentID,
			"age":         200,
		}
		resp, body := env.do(t, "POST", "/api/admin/suspects", admin, bad, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"].(string), "age")
	})
}

func TestCorrectionIntake(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t, "admin@example.com")

	_, body := env.do(t, "POST", "/api/admin/incidents", admin, validIncidentBody(), nil)
	incidentID := body["data"].(map[string]interface{})["id"].(string)

	captchaHeader := map[string]string{"X-Captcha-Token": "test-token"}

	t.Run("MissingCaptchaToken", func(t *testing.T) {
		resp, _ := env.do(t, "POST", "/api/corrections", "", map[string]interface{}{
			"incident_id":     incidentID,
			"correction_type": "factual_error",
			"description":     "Wrong injury count.",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("SubmissionIsAlwaysPending", func(t *testing.T) {
		resp, body := env.do(t, "POST", "/api/corrections", "", map[string]interface{}{
			"incident_id":     incidentID,
			"correction_type": "factual_error",
			"description":     "Wrong injury count.",
			"status":          "accepted", // must be ignored
		}, captchaHeader)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "pending", data["status"])
	})

	t.Run("NoTargetIsAccepted", func(t *testing.T) {
		// A general suggestion references neither record; both ids are
		// optional.
		resp, body := env.do(t, "POST", "/api/corrections", "", map[string]interface{}{
			"correction_type": "suggestion",
			"description":     "General feedback.",
		}, captchaHeader)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "pending", data["status"])
	})

	t.Run("AdminReview", func(t *testing.T) {
		resp, body := env.do(t, "GET", "/api/admin/corrections?status=pending&type=factual_error", admin, nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := body["data"].([]interface{})
		require.Len(t, list, 1)
		id := int64(list[0].(map[string]interface{})["id"].(float64))

		resp, body = env.do(t, "PUT", fmt.Sprintf("/api/admin/corrections/%d", id), admin, map[string]interface{}{
			"status": "accepted",
			"notes":  "Fixed the count.",
		}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "accepted", data["status"])
		assert.Equal(t, "admin@example.com", data["reviewed_by"])

		resp, _ = env.do(t, "PUT", fmt.Sprintf("/api/admin/corrections/%d", id), admin, map[string]interface{}{
			"status": "archived",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

// Store errors on admin writes travel back verbatim in the error envelope
// instead of being masked as internal errors.
func TestStoreErrorsSurfaced(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t, "admin@example.com")

	t.Run("WeaponForMissingSuspect", func(t *testing.T) {
		resp, body := env.do(t, "POST", "/api/admin/weapons", admin, map[string]interface{}{
			"suspect_id": "no-such-suspect",
			"type":       "handgun",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"].(string), "FOREIGN KEY constraint")
	})

	t.Run("SuspectForMissingIncident", func(t *testing.T) {
		resp, body := env.do(t, "POST", "/api/admin/suspects", admin, map[string]interface{}{
			"incident_id": "no-such-incident",
			"status":      "apprehended",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"].(string), "FOREIGN KEY constraint")
	})
}

func TestAllowlistManagement(t *testing.T) {
	t.Run("SelfRemovalAllowed", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.adminToken(t, "admin@example.com")

		resp, _ := env.do(t, "DELETE", "/api/admin/users/admin@example.com", admin, nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.False(t, env.db.IsAdmin("admin@example.com"))
	})

	t.Run("SelfRemovalDisabled", func(t *testing.T) {
		env := newTestEnv(t)
		env.cfg.Admin.AllowSelfRemoval = false
		admin := env.adminToken(t, "admin@example.com")

		resp, _ := env.do(t, "DELETE", "/api/admin/users/admin@example.com", admin, nil, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.True(t, env.db.IsAdmin("admin@example.com"))

		// Removing someone else still works.
		require.NoError(t, env.db.AddAllowlistEntry("other@example.com", "test"))
		resp, _ = env.do(t, "DELETE", "/api/admin/users/other@example.com", admin, nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("AddAndList", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.adminToken(t, "admin@example.com")

		resp, _ := env.do(t, "POST", "/api/admin/users", admin, map[string]string{"email": "new@example.com"}, nil)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, _ = env.do(t, "POST", "/api/admin/users", admin, map[string]string{"email": "new@example.com"}, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		resp, body := env.do(t, "GET", "/api/admin/users", admin, nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, body["data"], 2)
	})
}

func TestPublicFilters(t *testing.T) {
	env := newTestEnv(t)

	t.Run("UnknownState", func(t *testing.T) {
		resp, _ := env.do(t, "GET", "/api/incidents?state=ZZ", "", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnknownLocation", func(t *testing.T) {
		resp, _ := env.do(t, "GET", "/api/incidents?location=bowling_alley", "", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("UnknownJurisdiction", func(t *testing.T) {
		resp, _ := env.do(t, "GET", "/api/legislation/ZZ", "", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("EmptyListIsArray", func(t *testing.T) {
		resp, body := env.do(t, "GET", "/api/incidents", "", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list, ok := body["data"].([]interface{})
		require.True(t, ok, "empty result must be a JSON array, not null")
		assert.Empty(t, list)
	})

	t.Run("Stats", func(t *testing.T) {
		resp, body := env.do(t, "GET", "/api/stats", "", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := body["data"].(map[string]interface{})
		for _, key := range []string{"yearly", "by_state", "deadliest", "monthly_trends"} {
			_, ok := data[key].([]interface{})
			assert.True(t, ok, "%s must be an array", key)
		}
	})
}

func TestUnpublishedIncidentIs404Publicly(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t, "admin@example.com")

	_, body := env.do(t, "POST", "/api/admin/incidents", admin, validIncidentBody(), nil)
	id := body["data"].(map[string]interface{})["id"].(string)

	resp, _ := env.do(t, "GET", "/api/incidents/"+id, "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Admins still see it.
	resp, _ = env.do(t, "GET", "/api/admin/incidents/"+id, admin, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
