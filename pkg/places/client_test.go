package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchText(t *testing.T) {
	var gotPath, gotKey, gotMask string
	var gotBody SearchRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Goog-Api-Key")
		gotMask = r.Header.Get("X-Goog-FieldMask")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"places": [{
				"id": "ChIJabc",
				"displayName": {"text": "Harbor Cafe"},
				"formattedAddress": "1 Pier Rd",
				"rating": 4.5,
				"priceLevel": "PRICE_LEVEL_MODERATE",
				"types": ["restaurant"],
				"location": {"latitude": 45.1, "longitude": -87.2}
			}]
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	resp, err := client.SearchText(context.Background(), SearchRequest{TextQuery: "Harbor Cafe Door County", PageSize: 5})
	require.NoError(t, err)

	assert.Equal(t, "/places:searchText", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, searchFieldMask, gotMask)
	assert.Equal(t, "Harbor Cafe Door County", gotBody.TextQuery)
	assert.Equal(t, 5, gotBody.PageSize)

	require.Len(t, resp.Places, 1)
	p := resp.Places[0]
	assert.Equal(t, "ChIJabc", p.ID)
	assert.Equal(t, "Harbor Cafe", p.DisplayName.Text)
	assert.Equal(t, 4.5, p.Rating)
	require.NotNil(t, p.Location)
	assert.Equal(t, 45.1, p.Location.Latitude)
}

func TestSearchText_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	resp, err := client.SearchText(context.Background(), SearchRequest{TextQuery: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, resp.Places)
}

func TestDetails(t *testing.T) {
	var gotPath, gotMask string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMask = r.Header.Get("X-Goog-FieldMask")
		_, _ = w.Write([]byte(`{
			"id": "ChIJabc",
			"displayName": {"text": "Harbor Cafe"},
			"nationalPhoneNumber": "(920) 555-0100",
			"websiteUri": "https://harborcafe.example",
			"userRatingCount": 412,
			"regularOpeningHours": {"weekdayDescriptions": ["Monday: 8:00 AM – 3:00 PM"]}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	p, err := client.Details(context.Background(), "ChIJabc")
	require.NoError(t, err)

	assert.Equal(t, "/places/ChIJabc", gotPath)
	assert.Equal(t, detailsFieldMask, gotMask)
	assert.Equal(t, "(920) 555-0100", p.NationalPhoneNumber)
	assert.Equal(t, "https://harborcafe.example", p.WebsiteURI)
	assert.Equal(t, 412, p.UserRatingCount)
	require.NotNil(t, p.RegularOpeningHours)
	assert.Len(t, p.RegularOpeningHours.WeekdayDescriptions, 1)
}

func TestSearchText_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "API key invalid"}}`))
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))
	_, err := client.SearchText(context.Background(), SearchRequest{TextQuery: "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestDetails_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.Details(context.Background(), "ChIJabc")
	assert.Error(t, err)
}

func TestSearchText_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchText(ctx, SearchRequest{TextQuery: "anything"})
	assert.Error(t, err)
}
