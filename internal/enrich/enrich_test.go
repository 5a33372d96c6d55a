package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstepro/the-compound-sub000/internal/config"
	"github.com/nstepro/the-compound-sub000/internal/model"
	"github.com/nstepro/the-compound-sub000/pkg/places"
)

type mockPlaces struct {
	searchResp  *places.SearchResponse
	searchErr   error
	detailsResp *places.Place
	detailsErr  error

	searchCalls  int
	detailsCalls int
}

func (m *mockPlaces) SearchText(_ context.Context, _ places.SearchRequest) (*places.SearchResponse, error) {
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResp, nil
}

func (m *mockPlaces) Details(_ context.Context, _ string) (*places.Place, error) {
	m.detailsCalls++
	if m.detailsErr != nil {
		return nil, m.detailsErr
	}
	return m.detailsResp, nil
}

// zero delay keeps tests fast
var testCfg = config.PlacesConfig{SearchPageSize: 5, RequestDelayMS: 0}

func newTestEnricher(client places.Client) *Enricher {
	e := New(client, testCfg, "2.0", "Door County, WI")
	e.now = func() time.Time { return time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC) }
	return e
}

func searchResult() *places.SearchResponse {
	return &places.SearchResponse{Places: []places.Place{{
		ID:               "ChIJabc123",
		DisplayName:      places.DisplayName{Text: "Harbor Cafe"},
		FormattedAddress: "1 Pier Rd, Ephraim, WI",
		Rating:           4.5,
		PriceLevel:       "PRICE_LEVEL_MODERATE",
		Types:            []string{"restaurant", "cafe"},
		Location:         &places.LatLng{Latitude: 45.15, Longitude: -87.17},
	}}}
}

func detailsResult() *places.Place {
	return &places.Place{
		ID:                  "ChIJabc123",
		DisplayName:         places.DisplayName{Text: "Harbor Cafe"},
		FormattedAddress:    "1 Pier Rd, Ephraim, WI 54211",
		NationalPhoneNumber: "(920) 555-0100",
		WebsiteURI:          "https://harborcafe.example",
		Rating:              4.6,
		PriceLevel:          "PRICE_LEVEL_MODERATE",
		Types:               []string{"restaurant", "cafe"},
		Location:            &places.LatLng{Latitude: 45.15, Longitude: -87.17},
		RegularOpeningHours: &places.OpeningHours{WeekdayDescriptions: []string{
			"Monday: 8:00 AM – 3:00 PM",
			"Sunday: Closed",
		}},
	}
}

func TestEnrich_Success(t *testing.T) {
	client := &mockPlaces{searchResp: searchResult(), detailsResp: detailsResult()}
	e := newTestEnricher(client)

	p := &model.Place{ID: "harbor-cafe", Name: "Harbor Cafe", Category: "Dining"}
	require.NoError(t, e.Enrich(context.Background(), p))

	assert.Equal(t, "1 Pier Rd, Ephraim, WI 54211", p.Address, "details win over search")
	assert.Equal(t, "(920) 555-0100", p.Phone)
	assert.Equal(t, "https://harborcafe.example", p.Website)
	require.NotNil(t, p.Rating)
	assert.Equal(t, 4.6, *p.Rating)
	assert.Equal(t, "$$", p.PriceRange)
	assert.Equal(t, model.TypeDining, p.Type)
	require.NotNil(t, p.Coordinates)
	assert.Equal(t, 45.15, p.Coordinates.Lat)
	require.NotNil(t, p.Hours)
	assert.Equal(t, "8:00 AM – 3:00 PM", p.Hours.Weekly["Monday"])
	assert.Equal(t, "Closed", p.Hours.Weekly["Sunday"])

	require.NotNil(t, p.EnrichmentStatus)
	assert.True(t, p.EnrichmentStatus.Enriched)
	assert.Equal(t, "2.0", p.EnrichmentStatus.EnrichmentVersion)
	assert.Equal(t, model.ConfidenceHigh, p.EnrichmentStatus.SourceConfidence)
}

func TestEnrich_ProtectedFieldsUntouched(t *testing.T) {
	client := &mockPlaces{searchResp: searchResult(), detailsResp: detailsResult()}
	e := newTestEnricher(client)

	p := &model.Place{
		ID:          "harbor-cafe",
		Name:        "Harbor Cafe",
		Description: "a lovely breakfast place",
		Notes:       "cash only per the guide",
		OrigText:    "**Harbor Cafe** - best breakfast on the peninsula",
		Category:    "Dining",
		Tags:        []string{"preexisting"},
	}
	before := *p
	require.NoError(t, e.Enrich(context.Background(), p))

	assert.Equal(t, before.ID, p.ID)
	assert.Equal(t, before.Name, p.Name)
	assert.Equal(t, before.Description, p.Description)
	assert.Equal(t, before.Notes, p.Notes)
	assert.Equal(t, before.OrigText, p.OrigText)
	assert.Equal(t, before.Category, p.Category)
	assert.Equal(t, before.Tags, p.Tags)
}

func TestEnrich_NoResults(t *testing.T) {
	client := &mockPlaces{searchResp: &places.SearchResponse{}}
	e := newTestEnricher(client)

	p := &model.Place{ID: "ghost-diner", Name: "Ghost Diner"}
	require.NoError(t, e.Enrich(context.Background(), p), "zero results is terminal, not an error")

	require.NotNil(t, p.EnrichmentStatus)
	assert.False(t, p.EnrichmentStatus.Enriched)
	assert.Equal(t, "no results", p.EnrichmentStatus.Reason)
	assert.Empty(t, p.Address)
	assert.Empty(t, p.Phone)
	assert.Nil(t, p.Rating)
	assert.Equal(t, 0, client.detailsCalls)
}

func TestEnrich_SearchError(t *testing.T) {
	client := &mockPlaces{searchErr: errors.New("quota exceeded")}
	e := newTestEnricher(client)

	p := &model.Place{ID: "harbor-cafe", Name: "Harbor Cafe"}
	err := e.Enrich(context.Background(), p)
	require.Error(t, err)
	assert.Nil(t, p.EnrichmentStatus, "status is the caller's to record on transport failure")
}

func TestEnrich_DetailsFailureDegradesToSearchFields(t *testing.T) {
	client := &mockPlaces{searchResp: searchResult(), detailsErr: errors.New("500")}
	e := newTestEnricher(client)

	p := &model.Place{ID: "harbor-cafe", Name: "Harbor Cafe"}
	require.NoError(t, e.Enrich(context.Background(), p))

	assert.Equal(t, "1 Pier Rd, Ephraim, WI", p.Address)
	assert.Empty(t, p.Phone, "phone only comes from details")
	require.NotNil(t, p.EnrichmentStatus)
	assert.True(t, p.EnrichmentStatus.Enriched)
}

func TestEnrich_CacheDeduplicatesSharedBusiness(t *testing.T) {
	client := &mockPlaces{searchResp: searchResult(), detailsResp: detailsResult()}
	e := newTestEnricher(client)

	first := &model.Place{ID: "harbor-cafe", Name: "Harbor Cafe"}
	second := &model.Place{ID: "harbor-cafe-2", Name: "Harbor Cafe", Notes: "mentioned again later"}

	require.NoError(t, e.Enrich(context.Background(), first))
	require.NoError(t, e.Enrich(context.Background(), second))

	assert.Equal(t, 1, client.searchCalls, "duplicate mention served from cache")
	assert.Equal(t, 1, client.detailsCalls)
	assert.Equal(t, first.Address, second.Address)
}

func TestEnrich_MediumConfidenceOnNameMismatch(t *testing.T) {
	resp := searchResult()
	resp.Places[0].DisplayName.Text = "Harbour Cafe & Grill"
	client := &mockPlaces{searchResp: resp, detailsResp: detailsResult()}
	e := newTestEnricher(client)

	p := &model.Place{ID: "harbor-cafe", Name: "Harbor Cafe"}
	require.NoError(t, e.Enrich(context.Background(), p))

	require.NotNil(t, p.EnrichmentStatus)
	assert.Equal(t, model.ConfidenceMedium, p.EnrichmentStatus.SourceConfidence)
}

func TestBuildQuery(t *testing.T) {
	e := newTestEnricher(&mockPlaces{})

	p := &model.Place{
		Name:        "Harbor Cafe",
		Category:    "Dining",
		Description: "one two three four five six seven",
	}
	q := e.buildQuery(p)
	assert.Contains(t, q, "Harbor Cafe")
	assert.Contains(t, q, "Dining")
	assert.Contains(t, q, "one two three four five")
	assert.NotContains(t, q, "six")
	assert.Contains(t, q, "Door County, WI")
}

func TestMatchConfidence(t *testing.T) {
	assert.Equal(t, model.ConfidenceHigh, matchConfidence("Tony's Pizza", "Tonys Pizza"))
	assert.Equal(t, model.ConfidenceMedium, matchConfidence("Tony's Pizza", "Tony's Pizza Express"))
}

func TestParseWeekdayDescriptions(t *testing.T) {
	weekly := parseWeekdayDescriptions([]string{
		"Monday: 9:00 AM – 5:00 PM",
		"Sunday: Closed",
		"not a weekday row",
	})
	assert.Equal(t, "9:00 AM – 5:00 PM", weekly["Monday"])
	assert.Equal(t, "Closed", weekly["Sunday"])
	assert.Len(t, weekly, 2)
}
