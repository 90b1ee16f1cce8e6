package scim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/identity-sync/scim-connector/internal/domain"
	"github.com/identity-sync/scim-connector/internal/platform/logger"
)

func init() {
	logger.InitLogger()
}

func newTestClient(serverUrl string) *Client {
	return NewClientWithOptions("test-target", serverUrl, "test-token", 2*time.Second, 3)
}

func TestFindUserIDByUserName(t *testing.T) {

	testCases := []struct {
		name         string
		statusCode   int
		responseBody string
		expectedId   string
	}{
		{"match found", http.StatusOK, `{"totalResults":1,"Resources":[{"id":"e20ea474-7287-4b68-80a6-533aa440e7bd"}]}`, "e20ea474-7287-4b68-80a6-533aa440e7bd"},
		{"no match", http.StatusOK, `{"totalResults":0,"Resources":[]}`, ""},
		{"results without id", http.StatusOK, `{"totalResults":1,"Resources":[{}]}`, ""},
		{"unparsable body", http.StatusOK, `this is not json`, ""},
		{"bad status", http.StatusBadRequest, `{"status":"400","detail":"bad filter"}`, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var capturedFilter string

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				capturedFilter = req.URL.Query().Get("filter")
				w.WriteHeader(tc.statusCode)
				fmt.Fprint(w, tc.responseBody)
			}))
			defer server.Close()

			client := newTestClient(server.URL)

			id, err := client.FindUserIDByUserName(context.TODO(), "fred.flintstone")
			if err != nil {
				t.Fatal("unexpected error ", err)
			}

			if id != tc.expectedId {
				t.Fatalf("expected id %q, but got %q!", tc.expectedId, id)
			}

			expectedFilter := `userName eq "fred.flintstone"`
			if capturedFilter != expectedFilter {
				t.Fatalf("expected filter %q, but got %q!", expectedFilter, capturedFilter)
			}
		})
	}
}

func TestFindUserTransportExhaustionReturnsError(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
	}))
	server.Close() // immediately - every attempt fails at the transport layer

	client := NewClientWithOptions("test-target", server.URL, "test-token", 1*time.Second, 1)

	_, err := client.FindUserIDByUserName(context.TODO(), "fred.flintstone")
	if err == nil {
		t.Fatal("expected an error, did not receive an error")
	}
}

func TestRetryBudgetOnServerErrors(t *testing.T) {

	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requestCount++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	id, err := client.FindUserIDByUserName(context.TODO(), "fred.flintstone")
	if err != nil {
		t.Fatal("a terminal bad status should not surface as an error, got ", err)
	}

	if id != "" {
		t.Fatalf("expected empty id, but got %q!", id)
	}

	// initial attempt + 3 retries
	if requestCount != 4 {
		t.Fatalf("expected 4 attempts, but got %d!", requestCount)
	}
}

func TestRetryOnTooManyRequests(t *testing.T) {

	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requestCount++
		if requestCount < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"totalResults":1,"Resources":[{"id":"1234"}]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	id, err := client.FindUserIDByUserName(context.TODO(), "fred.flintstone")
	if err != nil {
		t.Fatal("unexpected error ", err)
	}

	if id != "1234" {
		t.Fatalf("expected id 1234, but got %q!", id)
	}

	if requestCount != 3 {
		t.Fatalf("expected 3 attempts, but got %d!", requestCount)
	}
}

func TestNoRetryOnClientError(t *testing.T) {

	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requestCount++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FindUserIDByUserName(context.TODO(), "fred.flintstone")
	if err != nil {
		t.Fatal("unexpected error ", err)
	}

	if requestCount != 1 {
		t.Fatalf("expected 1 attempt, but got %d!", requestCount)
	}
}

func TestCreateUser(t *testing.T) {

	testCases := []struct {
		name            string
		statusCode      int
		responseBody    string
		expectedCreated bool
	}{
		{"created", http.StatusCreated, `{"id":"1234"}`, true},
		{"created with 200", http.StatusOK, `{"id":"1234"}`, true},
		{"conflict", http.StatusConflict, "{\"status\":\"409\",\"detail\":\"User with userName fred already exists: `e20ea474-7287-4b68-80a6-533aa440e7bd`\"}", false},
		{"rejected", http.StatusBadRequest, `{"status":"400"}`, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if req.Method != http.MethodPost {
					t.Fatalf("expected POST, but got %s!", req.Method)
				}
				if contentType := req.Header.Get("Content-Type"); contentType != MediaType {
					t.Fatalf("expected content type %s, but got %s!", MediaType, contentType)
				}
				if auth := req.Header.Get("Authorization"); auth != "Bearer test-token" {
					t.Fatalf("expected bearer token, but got %q!", auth)
				}
				w.WriteHeader(tc.statusCode)
				fmt.Fprint(w, tc.responseBody)
			}))
			defer server.Close()

			client := newTestClient(server.URL)

			user := BuildCreateUser(&domain.IdentitySnapshot{Username: "fred", Enabled: true}, "fred")

			created, err := client.CreateUser(context.TODO(), user)
			if err != nil {
				t.Fatal("unexpected error ", err)
			}

			if created != tc.expectedCreated {
				t.Fatalf("expected created=%t, but got %t!", tc.expectedCreated, created)
			}
		})
	}
}

func TestDeleteUserIsIdempotent(t *testing.T) {

	testCases := []struct {
		name       string
		statusCode int
		expectedOk bool
	}{
		{"deleted", http.StatusNoContent, true},
		{"already gone", http.StatusNotFound, true},
		{"rejected", http.StatusForbidden, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if req.Method != http.MethodDelete {
					t.Fatalf("expected DELETE, but got %s!", req.Method)
				}
				w.WriteHeader(tc.statusCode)
			}))
			defer server.Close()

			client := newTestClient(server.URL)

			ok, err := client.DeleteUser(context.TODO(), "1234")
			if err != nil {
				t.Fatal("unexpected error ", err)
			}

			if ok != tc.expectedOk {
				t.Fatalf("expected ok=%t, but got %t!", tc.expectedOk, ok)
			}
		})
	}
}

func TestPatchUser(t *testing.T) {

	var capturedPatch PatchOp

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPatch {
			t.Fatalf("expected PATCH, but got %s!", req.Method)
		}
		if req.URL.Path != "/Users/1234" {
			t.Fatalf("expected path /Users/1234, but got %s!", req.URL.Path)
		}
		if err := json.NewDecoder(req.Body).Decode(&capturedPatch); err != nil {
			t.Fatal("unable to decode patch payload: ", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	ok, err := client.PatchUser(context.TODO(), "1234", BuildDeactivatePatch())
	if err != nil {
		t.Fatal("unexpected error ", err)
	}
	if !ok {
		t.Fatal("expected the patch to succeed")
	}

	if len(capturedPatch.Operations) != 1 {
		t.Fatalf("expected 1 patch operation, but got %d!", len(capturedPatch.Operations))
	}

	if capturedPatch.Operations[0].Path != "active" {
		t.Fatalf("expected path active, but got %s!", capturedPatch.Operations[0].Path)
	}
}

func TestProbe(t *testing.T) {

	testCases := []struct {
		name       string
		statusCode int
		expected   bool
	}{
		{"reachable", http.StatusOK, true},
		{"unauthorized", http.StatusUnauthorized, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if req.URL.Path != "/ServiceProviderConfig" {
					t.Fatalf("expected path /ServiceProviderConfig, but got %s!", req.URL.Path)
				}
				w.WriteHeader(tc.statusCode)
			}))
			defer server.Close()

			client := newTestClient(server.URL)

			if client.Probe(context.TODO()) != tc.expected {
				t.Fatalf("expected probe result %t", tc.expected)
			}
		})
	}
}

func TestBaseUrlTrailingSlashIsTrimmed(t *testing.T) {

	var capturedPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		capturedPath = req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL + "/")

	client.Probe(context.TODO())

	if capturedPath != "/ServiceProviderConfig" {
		t.Fatalf("expected path /ServiceProviderConfig, but got %s!", capturedPath)
	}
}

func TestExtractIdFromErrorBody(t *testing.T) {

	testCases := []struct {
		name       string
		body       string
		expectedId string
	}{
		{"id in detail field", "{\"status\":\"409\",\"detail\":\"conflicts with `e20ea474-7287-4b68-80a6-533aa440e7bd`\"}", "e20ea474-7287-4b68-80a6-533aa440e7bd"},
		{"id in raw body", "resource `e20ea474-7287-4b68-80a6-533aa440e7bd` already exists", "e20ea474-7287-4b68-80a6-533aa440e7bd"},
		{"no id", `{"status":"409","detail":"conflict"}`, ""},
		{"backticked junk", "conflicts with `not-a-uuid-not-a-uuid-not-a-uuid-wro`", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actualId := extractIdFromErrorBody([]byte(tc.body))
			if actualId != tc.expectedId {
				t.Fatalf("expected id %q, but got %q!", tc.expectedId, actualId)
			}
		})
	}
}
