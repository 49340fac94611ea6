package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/config"
)

func testConfig(baseURL string) config.TrackerConfig {
	return config.TrackerConfig{
		BaseURL:       baseURL,
		Token:         "tok-123",
		WaitingLabel:  "Client Review",
		ApprovedLabel: "Approved",
	}
}

func TestSyncSkipsEmptyTaskID(t *testing.T) {
	bridge := NewBridge(testConfig("http://tracker.local"), zap.NewNop())

	result := bridge.Sync(context.Background(), "", StateApproved)
	if !result.Skipped {
		t.Fatalf("expected skipped result, got %+v", result)
	}
}

func TestSyncDisabledWithoutCredentials(t *testing.T) {
	bridge := NewBridge(config.TrackerConfig{}, zap.NewNop())

	result := bridge.Sync(context.Background(), "TASK-1", StateApproved)
	if !result.Disabled {
		t.Fatalf("expected disabled result, got %+v", result)
	}
}

func TestSyncSendsApprovedLabel(t *testing.T) {
	var gotPath, gotMethod, gotAuth string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	bridge := NewBridge(testConfig(server.URL+"/"), zap.NewNop())
	result := bridge.Sync(context.Background(), "TASK-42", StateApproved)

	if !result.Synced {
		t.Fatalf("expected synced result, got %+v", result)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("expected PUT, got %s", gotMethod)
	}
	if gotPath != "/tasks/TASK-42/status" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody["status"] != "Approved" {
		t.Fatalf("expected approved label, got %q", gotBody["status"])
	}
}

func TestSyncSendsWaitingLabel(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	bridge := NewBridge(testConfig(server.URL), zap.NewNop())
	if result := bridge.Sync(context.Background(), "TASK-7", StateWaiting); !result.Synced {
		t.Fatalf("expected synced result, got %+v", result)
	}
	if gotBody["status"] != "Client Review" {
		t.Fatalf("expected waiting label, got %q", gotBody["status"])
	}
}

func TestSyncReportsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"task is archived"}`))
	}))
	defer server.Close()

	bridge := NewBridge(testConfig(server.URL), zap.NewNop())
	result := bridge.Sync(context.Background(), "TASK-9", StateApproved)

	if result.Synced {
		t.Fatalf("a non-2xx response must not count as synced")
	}
	if result.Err != nil {
		t.Fatalf("a non-2xx response is structured, not an error: %v", result.Err)
	}
	if result.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", result.StatusCode)
	}
	if result.Body != `{"error":"task is archived"}` {
		t.Fatalf("expected response body captured, got %q", result.Body)
	}
}

func TestSyncTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	bridge := NewBridge(testConfig(server.URL), zap.NewNop())
	result := bridge.Sync(context.Background(), "TASK-1", StateApproved)

	if result.Err == nil {
		t.Fatalf("expected transport error, got %+v", result)
	}
	if result.Synced {
		t.Fatalf("transport failure must not count as synced")
	}
}
