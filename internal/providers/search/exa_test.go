package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestSearchSendsExpectedRequest(t *testing.T) {
	var captured *http.Request
	var capturedBody searchRequest
	client, err := NewClient(Options{
		APIKey: "exa-key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			captured = r
			if err := json.NewDecoder(r.Body).Decode(&capturedBody); err != nil {
				t.Fatalf("decode request body: %v", err)
			}
			return jsonResponse(http.StatusOK, `{"results":[{"title":"T","url":"https://example.com","image":"https://example.com/i.jpg"}]}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	results, err := client.Search(context.Background(), "Michael Jordan winning moment", 3)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if captured.URL.String() != "https://api.exa.ai/search" {
		t.Fatalf("request URL = %q", captured.URL.String())
	}
	if got := captured.Header.Get("x-api-key"); got != "exa-key" {
		t.Fatalf("x-api-key = %q", got)
	}
	if capturedBody.NumResults != 3 || capturedBody.LiveCrawl != "always" {
		t.Fatalf("request body = %+v", capturedBody)
	}
	if len(results) != 1 || results[0].URL != "https://example.com" {
		t.Fatalf("results = %+v", results)
	}
}

func TestSearchDefaultsNumResults(t *testing.T) {
	var capturedBody searchRequest
	client, err := NewClient(Options{
		APIKey: "exa-key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			_ = json.NewDecoder(r.Body).Decode(&capturedBody)
			return jsonResponse(http.StatusOK, `{"results":[]}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := client.Search(context.Background(), "query", 0); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if capturedBody.NumResults != 3 {
		t.Fatalf("NumResults = %d, want 3", capturedBody.NumResults)
	}
}

func TestSearchPropagatesHTTPErrors(t *testing.T) {
	client, err := NewClient(Options{
		APIKey: "exa-key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusTooManyRequests, `{"error":"rate limited"}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := client.Search(context.Background(), "query", 3); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestSearchPropagatesTransportErrors(t *testing.T) {
	client, err := NewClient(Options{
		APIKey: "exa-key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("boom")
		})},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := client.Search(context.Background(), "query", 3); err == nil {
		t.Fatal("expected transport error to propagate")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
