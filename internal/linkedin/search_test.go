// File: internal/linkedin/search_test.go
package linkedin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// nopWaiter disables pacing in tests.
type nopWaiter struct{}

func (nopWaiter) Wait(ctx context.Context) (time.Duration, error) { return 0, ctx.Err() }

// roundTripFunc lets each test script the transport inline.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &Client{
		http:          &http.Client{Transport: rt, Jar: jar},
		jar:           jar,
		limiter:       nopWaiter{},
		logger:        zap.NewNop(),
		searchQueryID: searchQueryIDs[0],
	}
}

// searchEnvelope renders a one-cluster response with n entity results,
// numbered from first.
func searchEnvelope(first, n int) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := first + i
		items = append(items, fmt.Sprintf(`{
			"item": {
				"entityResult": {
					"$type": "com.linkedin.voyager.dash.search.EntityResultViewModel",
					"entityUrn": "urn:li:fsd_entityResultViewModel:(urn:li:fsd_profile:ID%d,SEARCH_SRP,DEFAULT)",
					"title": {"text": "Person %d"},
					"primarySubtitle": {"text": "Engineer"},
					"secondarySubtitle": {"text": "Minsk"},
					"navigationUrl": "https://www.linkedin.com/in/person-%d?miniProfileUrn=x"
				}
			}
		}`, id, id, id))
	}
	return fmt.Sprintf(`{
		"data": {
			"searchDashClustersByAll": {
				"elements": [{
					"$type": "com.linkedin.voyager.dash.search.SearchClusterViewModel",
					"items": [%s]
				}]
			}
		}
	}`, strings.Join(items, ","))
}

func startParam(t *testing.T, req *http.Request) int {
	t.Helper()
	variables := req.URL.Query().Get("variables")
	i := strings.Index(variables, "start:")
	require.GreaterOrEqual(t, i, 0, "variables missing start: %s", variables)
	rest := variables[i+len("start:"):]
	end := strings.IndexAny(rest, ",)")
	require.GreaterOrEqual(t, end, 0)
	n, err := strconv.Atoi(rest[:end])
	require.NoError(t, err)
	return n
}

func TestSearchPeople_PaginatesUntilLimit(t *testing.T) {
	var requests int
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		requests++
		switch start := startParam(t, req); start {
		case 0:
			return jsonResponse(200, searchEnvelope(0, maxSearchCount)), nil
		case maxSearchCount:
			return jsonResponse(200, searchEnvelope(maxSearchCount, 11)), nil
		default:
			t.Fatalf("unexpected start %d", start)
			return nil, nil
		}
	})

	results, err := c.SearchPeople(context.Background(), PeopleSearchParams{
		Keywords: "golang engineer",
		Limit:    60,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
	require.Len(t, results, 60)
	assert.Equal(t, "ID0", results[0].URNID)
	assert.Equal(t, "Person 0", results[0].Name)
	assert.Equal(t, "Engineer", results[0].JobTitle)
	assert.Equal(t, "Minsk", results[0].Location)
	assert.Equal(t, "ID59", results[59].URNID)
}

func TestSearchPeople_StopsOnEmptyPage(t *testing.T) {
	var requests int
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		requests++
		if requests == 1 {
			return jsonResponse(200, searchEnvelope(0, 5)), nil
		}
		return jsonResponse(200, searchEnvelope(0, 0)), nil
	})

	results, err := c.SearchPeople(context.Background(), PeopleSearchParams{Keywords: "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
	assert.Len(t, results, 5)
}

func TestSearchPeople_MissingClusterContainerEndsSearch(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"data": {}}`), nil
	})

	results, err := c.SearchPeople(context.Background(), PeopleSearchParams{Keywords: "x"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchPeople_RotatesQueryIDOn500(t *testing.T) {
	var queryIDs []string
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		qid := req.URL.Query().Get("queryId")
		queryIDs = append(queryIDs, qid)
		if qid == searchQueryIDs[0] {
			return jsonResponse(500, "internal error"), nil
		}
		return jsonResponse(200, searchEnvelope(0, 1)), nil
	})

	results, err := c.SearchPeople(context.Background(), PeopleSearchParams{Keywords: "x", Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, searchQueryIDs[1], c.searchQueryID)

	// The rotated id is used directly on the next search.
	_, err = c.SearchPeople(context.Background(), PeopleSearchParams{Keywords: "x", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{searchQueryIDs[0], searchQueryIDs[1], searchQueryIDs[1]}, queryIDs)
}

func TestSearchPeople_Non500FailurePropagates(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(403, "forbidden"), nil
	})

	_, err := c.SearchPeople(context.Background(), PeopleSearchParams{Keywords: "x"})
	require.Error(t, err)
	assert.Equal(t, 403, StatusCodeOf(err))
}

func TestSearchPeople_SkipsOutOfNetworkByDefault(t *testing.T) {
	envelope := `{
		"data": {
			"searchDashClustersByAll": {
				"elements": [{
					"$type": "SearchClusterViewModel",
					"items": [
						{"item": {"entityResult": {
							"$type": "EntityResultViewModel",
							"entityUrn": "urn:li:fsd_entityResultViewModel:(urn:li:fsd_profile:VISIBLE,S,D)",
							"title": {"text": "Visible"}
						}}},
						{"item": {"entityResult": {
							"$type": "EntityResultViewModel",
							"entityUrn": "urn:li:fsd_entityResultViewModel:(urn:li:fsd_profile:HIDDEN,S,D)",
							"title": {"text": "Hidden"},
							"entityCustomTrackingInfo": {"memberDistance": "OUT_OF_NETWORK"},
							"navigationUrl": "https://www.linkedin.com/headless?x=1"
						}}}
					]
				}]
			}
		}
	}`
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if startParam(t, req) > 0 {
			return jsonResponse(200, searchEnvelope(0, 0)), nil
		}
		return jsonResponse(200, envelope), nil
	})

	results, err := c.SearchPeople(context.Background(), PeopleSearchParams{Keywords: "x"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "VISIBLE", results[0].URNID)

	c2 := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if startParam(t, req) > 0 {
			return jsonResponse(200, searchEnvelope(0, 0)), nil
		}
		return jsonResponse(200, envelope), nil
	})
	results, err = c2.SearchPeople(context.Background(), PeopleSearchParams{Keywords: "x", IncludePrivateProfiles: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "OUT_OF_NETWORK", results[1].Distance)
	assert.Empty(t, results[1].NavigationURL, "headless navigation urls are dropped")
}

func TestBuildPeopleFilters(t *testing.T) {
	got := buildPeopleFilters(PeopleSearchParams{
		Regions: []string{"103644278", "101728296"},
		Title:   "Backend Engineer",
	})
	want := "List((key:resultType,value:List(PEOPLE)),(key:geo,value:List(103644278 | 101728296)),(key:title,value:List(Backend Engineer)))"
	assert.Equal(t, want, got)
}

func TestBuildSearchVariables(t *testing.T) {
	got := buildSearchVariables(49, "golang engineer", "List((key:resultType,value:List(PEOPLE)))")
	assert.Contains(t, got, "start:49")
	assert.Contains(t, got, "keywords:golang+engineer,")
	assert.Contains(t, got, "flagshipSearchIntent:SEARCH_SRP")
	assert.Contains(t, got, "includeFiltersInResponse:false")

	// No keywords clause at all when the query is filter-only.
	got = buildSearchVariables(0, "", "List()")
	assert.NotContains(t, got, "keywords")
}

func TestURNHelpers(t *testing.T) {
	raw := "urn:li:fsd_entityResultViewModel:(urn:li:fsd_profile:ACoAAbc123,SEARCH_SRP,DEFAULT)"
	assert.Equal(t, "urn:li:fsd_profile:ACoAAbc123", urnFromRaw(raw))
	assert.Equal(t, "ACoAAbc123", idFromURN(urnFromRaw(raw)))
	assert.Equal(t, "", urnFromRaw("no parens"))
	assert.Equal(t, "", idFromURN("urn:li"))
}
