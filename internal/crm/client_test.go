package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"propensia_dashboard/platform/logger"
)

type testCRMConfig struct{ loginURL string }

func (c testCRMConfig) GetSFLoginURL() string      { return c.loginURL }
func (c testCRMConfig) GetSFInstanceURL() string   { return "" }
func (c testCRMConfig) GetSFAPIVersion() string    { return "v59.0" }
func (c testCRMConfig) GetSFClientID() string      { return "client" }
func (c testCRMConfig) GetSFClientSecret() string  { return "secret" }
func (c testCRMConfig) GetSFUsername() string      { return "user@example.com" }
func (c testCRMConfig) GetSFPassword() string      { return "pass" }
func (c testCRMConfig) GetSFSecurityToken() string { return "TOKEN" }

type fakeOrg struct {
	server  *httptest.Server
	logins  atomic.Int32
	expired atomic.Bool
	patches []map[string]any
	queries []string
}

func newFakeOrg(t *testing.T) *fakeOrg {
	t.Helper()
	org := &fakeOrg{}
	mux := http.NewServeMux()

	mux.HandleFunc("/services/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("grant_type") != "password" || r.Form.Get("password") != "passTOKEN" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		n := org.logins.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","instance_url":%q}`, n, org.server.URL)
	})

	mux.HandleFunc("/services/data/v59.0/query", func(w http.ResponseWriter, r *http.Request) {
		if org.expired.CompareAndSwap(true, false) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`[{"message":"Session expired or invalid","errorCode":"INVALID_SESSION_ID"}]`))
			return
		}
		org.queries = append(org.queries, r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"totalSize":3,"done":false,"nextRecordsUrl":"/services/data/v59.0/query/01g-2000","records":[{"Id":"006A"},{"Id":"006B"}]}`))
	})
	mux.HandleFunc("/services/data/v59.0/query/01g-2000", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalSize":3,"done":true,"records":[{"Id":"006C"}]}`))
	})

	mux.HandleFunc("/services/data/v59.0/sobjects/Opportunity/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/006MISSING") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`[{"message":"The requested resource does not exist","errorCode":"NOT_FOUND"}]`))
			return
		}
		body, _ := io.ReadAll(r.Body)
		var fields map[string]any
		_ = json.Unmarshal(body, &fields)
		org.patches = append(org.patches, fields)
		w.WriteHeader(http.StatusNoContent)
	})

	org.server = httptest.NewServer(mux)
	t.Cleanup(org.server.Close)
	return org
}

func TestQueryFollowsNextRecordsURL(t *testing.T) {
	org := newFakeOrg(t)
	client := New(testCRMConfig{loginURL: org.server.URL}, logger.Discard())

	ids, err := client.RecentlyModifiedIDs(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(ids, ",") != "006A,006B,006C" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if org.queries[0] != "SELECT Id FROM Opportunity WHERE LastModifiedDate = TODAY" {
		t.Fatalf("unexpected soql %q", org.queries[0])
	}
	if org.logins.Load() != 1 {
		t.Fatalf("expected one login, got %d", org.logins.Load())
	}
}

func TestRecentlyModifiedIDsUsesWindow(t *testing.T) {
	org := newFakeOrg(t)
	client := New(testCRMConfig{loginURL: org.server.URL}, logger.Discard())

	since := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	if _, err := client.RecentlyModifiedIDs(context.Background(), since); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(org.queries[0], "LastModifiedDate >= 2024-03-01T12:30:00Z") {
		t.Fatalf("unexpected soql %q", org.queries[0])
	}
}

func TestExpiredSessionTriggersRelogin(t *testing.T) {
	org := newFakeOrg(t)
	client := New(testCRMConfig{loginURL: org.server.URL}, logger.Discard())
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	org.expired.Store(true)
	if _, err := client.Query(context.Background(), "SELECT Id FROM Opportunity"); err != nil {
		t.Fatalf("expected retry after 401 to succeed: %v", err)
	}
	if org.logins.Load() != 2 {
		t.Fatalf("expected a second login, got %d", org.logins.Load())
	}
}

func TestUpdateOpportunity(t *testing.T) {
	org := newFakeOrg(t)
	client := New(testCRMConfig{loginURL: org.server.URL}, logger.Discard())

	err := client.UpdateOpportunity(context.Background(), "006A", map[string]any{FieldPriorityLevel: "Top Priority"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(org.patches) != 1 || org.patches[0][FieldPriorityLevel] != "Top Priority" {
		t.Fatalf("unexpected patches %v", org.patches)
	}

	err = client.UpdateOpportunity(context.Background(), "006MISSING", map[string]any{"Name": "x"})
	if !IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestBadCredentialsFailConnect(t *testing.T) {
	org := newFakeOrg(t)
	cfg := badPasswordConfig{testCRMConfig{loginURL: org.server.URL}}
	client := New(cfg, logger.Discard())

	if err := client.Connect(context.Background()); err == nil {
		t.Fatalf("expected login failure")
	}
}

func TestPingLogsInOnceAndReportsFailures(t *testing.T) {
	org := newFakeOrg(t)
	client := New(testCRMConfig{loginURL: org.server.URL}, logger.Discard())

	for i := 0; i < 2; i++ {
		if err := client.Ping(context.Background()); err != nil {
			t.Fatalf("ping %d: %v", i, err)
		}
	}
	if org.logins.Load() != 1 {
		t.Fatalf("expected a single cached login, got %d", org.logins.Load())
	}

	bad := New(badPasswordConfig{testCRMConfig{loginURL: org.server.URL}}, logger.Discard())
	if err := bad.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail with bad credentials")
	}
}

type badPasswordConfig struct{ testCRMConfig }

func (badPasswordConfig) GetSFPassword() string { return "wrong" }

func TestQuoteEscapesLiterals(t *testing.T) {
	if got := quote(`006' OR Name != '`); got != `'006\' OR Name != \''` {
		t.Fatalf("unexpected quoting %s", got)
	}
}
