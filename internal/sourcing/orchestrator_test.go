// File: internal/sourcing/orchestrator_test.go
package sourcing

import (
	"context"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/sourcing-cli/internal/config"
	"github.com/xkilldash9x/sourcing-cli/internal/linkedin"
	"github.com/xkilldash9x/sourcing-cli/internal/scraper"
)

type fakeAPIClient struct {
	setCookieCalls [][]linkedin.Cookie
	searchCalls    []linkedin.PeopleSearchParams
	profileCalls   []string
	results        []linkedin.SearchResult
	profile        *linkedin.Profile
	errs           []error
}

func (f *fakeAPIClient) SetCookies(cookies []linkedin.Cookie) error {
	f.setCookieCalls = append(f.setCookieCalls, cookies)
	return nil
}

func (f *fakeAPIClient) nextErr() error {
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeAPIClient) SearchPeople(_ context.Context, params linkedin.PeopleSearchParams) ([]linkedin.SearchResult, error) {
	f.searchCalls = append(f.searchCalls, params)
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	return f.results, nil
}

func (f *fakeAPIClient) GetProfile(_ context.Context, publicID, urnID string) (*linkedin.Profile, error) {
	f.profileCalls = append(f.profileCalls, publicID+"|"+urnID)
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	return f.profile, nil
}

func testOrchestrator(t *testing.T, client APIClient, login LoginFunc, search BrowserSearchFunc, scrape BrowserScrapeFunc) *Orchestrator {
	t.Helper()
	cfg := config.SourcingConfig{DefaultLimit: 50, DefaultLocation: "Belarus"}
	o := NewOrchestrator(client, login, search, scrape, cfg, zaptest.NewLogger(t))
	o.now = func() time.Time { return time.Date(2025, 3, 15, 12, 30, 0, 0, time.UTC) }
	return o
}

func savedCredential() *Credential {
	return &Credential{
		Cookies: jsoniter.RawMessage(`{"cookies":[{"name":"li_at","value":"tok","domain":".linkedin.com","path":"/"}]}`),
	}
}

func failBrowserSearch(t *testing.T) BrowserSearchFunc {
	return func(context.Context, *linkedin.StorageState, string, string, int) (*scraper.SearchResponse, error) {
		t.Fatal("browser search should not run")
		return nil, nil
	}
}

func failLogin(t *testing.T) LoginFunc {
	return func(context.Context, string, string) (*linkedin.StorageState, error) {
		t.Fatal("login should not run")
		return nil, nil
	}
}

func failBrowserScrape(t *testing.T) BrowserScrapeFunc {
	return func(context.Context, *linkedin.StorageState, string) (*scraper.Person, error) {
		t.Fatal("browser scrape should not run")
		return nil, nil
	}
}

func TestSearchAPITier(t *testing.T) {
	client := &fakeAPIClient{
		results: []linkedin.SearchResult{
			{Name: "Ada Lovelace", JobTitle: "Engineer", Location: "Minsk", URNID: "AbC123", NavigationURL: "/in/ada"},
			{Name: "Alan Turing", NavigationURL: "alan-turing"},
		},
	}
	o := testOrchestrator(t, client, failLogin(t), failBrowserSearch(t), failBrowserScrape(t))

	res, err := o.Search(context.Background(), savedCredential(), Request{
		SearchText: "Backend Engineer",
		Skills:     "Go, PostgreSQL,, Kubernetes",
		Limit:      250,
	})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.Nil(t, res.CookiesToPersist, "saved cookies need no persistence")

	require.Len(t, client.searchCalls, 1)
	params := client.searchCalls[0]
	assert.Equal(t, "Backend Engineer", params.Title)
	assert.Equal(t, "Belarus Go PostgreSQL Kubernetes", params.Keywords)
	assert.True(t, params.IncludePrivateProfiles)
	assert.Equal(t, 100, params.Limit, "API requests cap at 100 results")

	require.Len(t, client.setCookieCalls, 1)
	assert.Equal(t, "li_at", client.setCookieCalls[0][0].Name)

	first := res.Candidates[0]
	assert.Equal(t, "linkedin", first.Source)
	assert.Equal(t, "Ada Lovelace", first.FullName)
	assert.Equal(t, "https://www.linkedin.com/in/ada", first.URL)
	assert.Equal(t, "AbC123", first.URNID)
	assert.Equal(t, "15.03.2025 12:30", first.FetchedAt)

	assert.Equal(t, "https://www.linkedin.com/in/alan-turing", res.Candidates[1].URL,
		"bare navigation targets resolve under /in/")
}

func TestSearchFreshLoginWhenNoCookies(t *testing.T) {
	client := &fakeAPIClient{results: []linkedin.SearchResult{{Name: "Ada"}}}
	fresh := &linkedin.StorageState{Cookies: []linkedin.Cookie{{Name: "li_at", Value: "new"}}}
	logins := 0
	login := func(_ context.Context, username, password string) (*linkedin.StorageState, error) {
		logins++
		assert.Equal(t, "user@example.com", username)
		assert.Equal(t, "hunter2", password)
		return fresh, nil
	}
	o := testOrchestrator(t, client, login, failBrowserSearch(t), failBrowserScrape(t))

	cred := &Credential{Username: "user@example.com", Password: "hunter2"}
	res, err := o.Search(context.Background(), cred, Request{SearchText: "SRE"})
	require.NoError(t, err)
	assert.Equal(t, 1, logins)
	assert.Same(t, fresh, res.CookiesToPersist, "fresh cookies flow back to the caller")
}

func TestSearchNoCredentialsFailsFast(t *testing.T) {
	client := &fakeAPIClient{}
	o := testOrchestrator(t, client, failLogin(t), failBrowserSearch(t), failBrowserScrape(t))

	_, err := o.Search(context.Background(), &Credential{}, Request{SearchText: "SRE"})
	require.Error(t, err)
	assert.True(t, linkedin.IsKind(err, linkedin.KindConfiguration))
	assert.Empty(t, client.searchCalls, "no network traffic without credentials")
}

func TestSearchRefreshRetryAfterUnauthorized(t *testing.T) {
	client := &fakeAPIClient{
		results: []linkedin.SearchResult{{Name: "Ada"}},
		errs:    []error{linkedin.NewError(linkedin.KindUnauthorized, "session expired"), nil},
	}
	fresh := &linkedin.StorageState{Cookies: []linkedin.Cookie{{Name: "li_at", Value: "new"}}}
	login := func(context.Context, string, string) (*linkedin.StorageState, error) {
		return fresh, nil
	}
	o := testOrchestrator(t, client, login, failBrowserSearch(t), failBrowserScrape(t))

	cred := savedCredential()
	cred.Username, cred.Password = "user@example.com", "hunter2"
	res, err := o.Search(context.Background(), cred, Request{SearchText: "SRE"})
	require.NoError(t, err)
	assert.Len(t, client.searchCalls, 2)
	assert.Same(t, fresh, res.CookiesToPersist)
	require.Len(t, client.setCookieCalls, 2)
	assert.Equal(t, "new", client.setCookieCalls[1][0].Value, "retry uses the refreshed cookies")
}

func TestSearchScraperFallback(t *testing.T) {
	client := &fakeAPIClient{
		errs: []error{
			linkedin.NewRateLimitError("throttled", time.Hour),
			linkedin.NewRateLimitError("throttled", time.Hour),
		},
	}
	fresh := &linkedin.StorageState{Cookies: []linkedin.Cookie{{Name: "li_at", Value: "new"}}}
	login := func(context.Context, string, string) (*linkedin.StorageState, error) {
		return fresh, nil
	}
	var gotState *linkedin.StorageState
	var gotKeywords, gotLocation string
	var gotPages int
	search := func(_ context.Context, state *linkedin.StorageState, keywords, location string, maxPages int) (*scraper.SearchResponse, error) {
		gotState, gotKeywords, gotLocation, gotPages = state, keywords, location, maxPages
		return &scraper.SearchResponse{
			Results: []scraper.SearchResult{
				{Name: "Ada Lovelace", Headline: "Engineer", Location: "Minsk", LinkedInURL: "https://www.linkedin.com/in/ada"},
				{Name: "Alan Turing", LinkedInURL: "https://www.linkedin.com/in/alan"},
			},
			PagesScraped: 1,
		}, nil
	}
	o := testOrchestrator(t, client, login, search, failBrowserScrape(t))

	cred := savedCredential()
	cred.Username, cred.Password = "user@example.com", "hunter2"
	res, err := o.Search(context.Background(), cred, Request{SearchText: "SRE", Skills: "Go", Limit: 1})
	require.NoError(t, err)

	assert.Same(t, fresh, gotState, "fallback uses the freshest cookies")
	assert.Equal(t, "SRE Belarus Go", gotKeywords)
	assert.Equal(t, "Belarus", gotLocation)
	assert.Equal(t, 1, gotPages)

	require.Len(t, res.Candidates, 1, "fallback truncates to the requested limit")
	assert.Equal(t, "Ada Lovelace", res.Candidates[0].FullName)
	assert.Empty(t, res.Candidates[0].URNID, "scraped results carry no urn")
	assert.Same(t, fresh, res.CookiesToPersist)
}

func TestSearchAllTiersFail(t *testing.T) {
	client := &fakeAPIClient{
		errs: []error{linkedin.NewError(linkedin.KindRequest, "boom")},
	}
	search := func(context.Context, *linkedin.StorageState, string, string, int) (*scraper.SearchResponse, error) {
		return nil, linkedin.NewError(linkedin.KindScraping, "page gone")
	}
	o := testOrchestrator(t, client, failLogin(t), search, failBrowserScrape(t))

	_, err := o.Search(context.Background(), savedCredential(), Request{SearchText: "SRE"})
	require.Error(t, err)
	assert.True(t, linkedin.IsKind(err, linkedin.KindScraping))
	assert.Contains(t, err.Error(), "all search strategies failed")
	assert.Contains(t, err.Error(), "boom", "API tier failure stays visible")
	assert.Contains(t, err.Error(), "page gone", "scraper tier failure stays visible")
}

func TestFetchProfileAllTiersFail(t *testing.T) {
	client := &fakeAPIClient{
		errs: []error{linkedin.NewError(linkedin.KindRequest, "boom")},
	}
	scrape := func(context.Context, *linkedin.StorageState, string) (*scraper.Person, error) {
		return nil, linkedin.NewError(linkedin.KindScraping, "profile gone")
	}
	o := testOrchestrator(t, client, failLogin(t), failBrowserSearch(t), scrape)

	_, err := o.FetchProfile(context.Background(), savedCredential(), "ada")
	require.Error(t, err)
	assert.True(t, linkedin.IsKind(err, linkedin.KindScraping))
	assert.Contains(t, err.Error(), "all profile strategies failed")
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "profile gone")
}

func TestSearchPagesFromLimit(t *testing.T) {
	client := &fakeAPIClient{
		errs: []error{linkedin.NewError(linkedin.KindRequest, "boom")},
	}
	var gotPages int
	search := func(_ context.Context, _ *linkedin.StorageState, _, _ string, maxPages int) (*scraper.SearchResponse, error) {
		gotPages = maxPages
		return &scraper.SearchResponse{}, nil
	}
	o := testOrchestrator(t, client, failLogin(t), search, failBrowserScrape(t))

	_, err := o.Search(context.Background(), savedCredential(), Request{SearchText: "SRE", Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, 3, gotPages, "ten results per page, rounded up")
}

func TestFetchProfileAPITier(t *testing.T) {
	client := &fakeAPIClient{profile: &linkedin.Profile{PublicID: "ada", FirstName: "Ada"}}
	o := testOrchestrator(t, client, failLogin(t), failBrowserSearch(t), failBrowserScrape(t))

	res, err := o.FetchProfile(context.Background(), savedCredential(), "/ada/")
	require.NoError(t, err)
	require.NotNil(t, res.Profile)
	assert.Equal(t, "Ada", res.Profile.FirstName)
	assert.Nil(t, res.Scraped)
	assert.Nil(t, res.CookiesToPersist)
	require.Len(t, client.profileCalls, 1)
	assert.Equal(t, "ada|", client.profileCalls[0], "leading and trailing slashes stripped")
}

func TestFetchProfileScraperFallback(t *testing.T) {
	client := &fakeAPIClient{
		errs: []error{
			linkedin.NewError(linkedin.KindUnauthorized, "session expired"),
			linkedin.NewError(linkedin.KindUnauthorized, "still expired"),
		},
	}
	fresh := &linkedin.StorageState{Cookies: []linkedin.Cookie{{Name: "li_at", Value: "new"}}}
	login := func(context.Context, string, string) (*linkedin.StorageState, error) {
		return fresh, nil
	}
	var gotURL string
	scrape := func(_ context.Context, state *linkedin.StorageState, profileURL string) (*scraper.Person, error) {
		assert.Same(t, fresh, state)
		gotURL = profileURL
		return &scraper.Person{Name: "Ada Lovelace"}, nil
	}
	o := testOrchestrator(t, client, login, failBrowserSearch(t), scrape)

	cred := savedCredential()
	cred.Username, cred.Password = "user@example.com", "hunter2"
	res, err := o.FetchProfile(context.Background(), cred, "ada")
	require.NoError(t, err)
	require.NotNil(t, res.Scraped)
	assert.Equal(t, "Ada Lovelace", res.Scraped.Name)
	assert.Nil(t, res.Profile)
	assert.Equal(t, "https://www.linkedin.com/in/ada/", gotURL)
	assert.Same(t, fresh, res.CookiesToPersist)
	assert.Len(t, client.profileCalls, 2, "one retry after the refresh")
}

func TestFetchProfileEmptyPublicID(t *testing.T) {
	client := &fakeAPIClient{}
	o := testOrchestrator(t, client, failLogin(t), failBrowserSearch(t), failBrowserScrape(t))

	_, err := o.FetchProfile(context.Background(), savedCredential(), "  ")
	require.Error(t, err)
	assert.True(t, linkedin.IsKind(err, linkedin.KindConfiguration))
	assert.Empty(t, client.profileCalls)
}

func TestBuildKeywords(t *testing.T) {
	assert.Equal(t, "Minsk Go Rust", buildKeywords("Minsk", " Go , Rust ,"))
	assert.Equal(t, "Minsk", buildKeywords("Minsk", ""))
}

func TestAbsoluteNavigationURL(t *testing.T) {
	assert.Equal(t, "https://www.linkedin.com/in/ada", absoluteNavigationURL("/in/ada"))
	assert.Equal(t, "https://www.linkedin.com/in/ada", absoluteNavigationURL("ada"))
	assert.Equal(t, "https://example.com/p", absoluteNavigationURL("https://example.com/p"))
	assert.Empty(t, absoluteNavigationURL(""))
}
