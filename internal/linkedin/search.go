// File: internal/linkedin/search.go
package linkedin

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const (
	// maxSearchCount is the largest page size the search endpoint accepts.
	maxSearchCount = 49
	// maxRepeatedRequests caps how many pages a single search may fetch.
	maxRepeatedRequests = 200
)

// searchQueryIDs are the known GraphQL query ids for people search, newest
// first. LinkedIn rotates these when they update their schema; an id that
// has gone stale answers with HTTP 500.
var searchQueryIDs = []string{
	"voyagerSearchDashClusters.b0928897b71bd00a5a7291755dcd64f0",
	"voyagerSearchDashClusters.5e03c5de2fddefb3fa19f8b35e1c0c49",
}

// PeopleSearchParams are the supported people search filters. Zero-valued
// fields are omitted from the query.
type PeopleSearchParams struct {
	Keywords string

	ConnectionOf       string
	NetworkDepths      []string // F, S, O
	Regions            []string // geo URN ids
	Industries         []string
	CurrentCompanies   []string
	PastCompanies      []string
	ProfileLanguages   []string
	NonprofitInterests []string
	Schools            []string
	ServiceCategories  []string

	FirstName string
	LastName  string
	Title     string
	Company   string
	School    string

	// IncludePrivateProfiles keeps OUT_OF_NETWORK members in the results.
	IncludePrivateProfiles bool

	// Limit caps the number of results; <= 0 means no cap.
	Limit  int
	Offset int
}

// SearchPeople runs a paginated people search and returns lightweight
// results. Pagination stops at the limit, on an empty page, or at the
// request ceiling.
func (c *Client) SearchPeople(ctx context.Context, params PeopleSearchParams) ([]SearchResult, error) {
	filters := buildPeopleFilters(params)
	limit := params.Limit
	if limit <= 0 {
		limit = -1
	}

	var raw []map[string]any
	count := maxSearchCount
	for {
		if limit > -1 && limit-len(raw) < count {
			count = limit - len(raw)
		}

		variables := buildSearchVariables(len(raw)+params.Offset, params.Keywords, filters)
		envelope, err := c.fetchSearchPage(ctx, variables)
		if err != nil {
			return nil, err
		}

		page := parseSearchClusters(envelope)
		if page == nil {
			// No cluster container at all means the result set is exhausted.
			break
		}
		raw = append(raw, page...)

		if (limit > -1 && len(raw) >= limit) ||
			len(raw)/count >= maxRepeatedRequests ||
			len(page) == 0 {
			break
		}
		c.logger.Debug("Search page fetched.", zap.Int("results_so_far", len(raw)))
	}

	results := make([]SearchResult, 0, len(raw))
	for _, item := range raw {
		tracking := asMap(item["entityCustomTrackingInfo"])
		distance := ""
		if tracking != nil {
			distance = getString(tracking, "memberDistance")
		}
		if !params.IncludePrivateProfiles && distance == "OUT_OF_NETWORK" {
			continue
		}

		navURL := getString(item, "navigationUrl")
		if strings.Contains(navURL, "/headless") {
			navURL = ""
		}

		results = append(results, SearchResult{
			URNID:         idFromURN(urnFromRaw(getString(item, "entityUrn"))),
			Distance:      distance,
			JobTitle:      textField(item, "primarySubtitle"),
			Location:      textField(item, "secondarySubtitle"),
			Name:          textField(item, "title"),
			NavigationURL: navURL,
		})
	}
	return results, nil
}

// fetchSearchPage issues one search request, rotating through fallback query
// ids when the active one answers 500. Any other failure propagates.
func (c *Client) fetchSearchPage(ctx context.Context, variables string) (map[string]any, error) {
	c.searchMu.Lock()
	active := c.searchQueryID
	c.searchMu.Unlock()

	envelope, err := c.fetchSearchWithQueryID(ctx, variables, active)
	if err == nil {
		return envelope, nil
	}
	if StatusCodeOf(err) != 500 {
		return nil, err
	}
	c.logger.Warn("Search query id rejected, rotating through fallbacks.", zap.String("query_id", active))

	for _, qid := range searchQueryIDs {
		if qid == active {
			continue
		}
		envelope, err = c.fetchSearchWithQueryID(ctx, variables, qid)
		if err == nil {
			c.logger.Info("Search query id rotated.", zap.String("query_id", qid))
			c.searchMu.Lock()
			c.searchQueryID = qid
			c.searchMu.Unlock()
			return envelope, nil
		}
		if StatusCodeOf(err) != 500 {
			return nil, err
		}
	}

	return nil, NewRequestError(500, "all known search query ids rejected; the GraphQL schema likely rotated")
}

func (c *Client) fetchSearchWithQueryID(ctx context.Context, variables, queryID string) (map[string]any, error) {
	uri := fmt.Sprintf("/graphql?variables=%s&queryId=%s", variables, queryID)
	body, err := c.Get(ctx, uri)
	if err != nil {
		return nil, err
	}
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, WrapError(KindRequest, "decoding search response", err)
	}
	return envelope, nil
}

// buildPeopleFilters renders the filter clause list. The leading resultType
// clause is always present.
func buildPeopleFilters(p PeopleSearchParams) string {
	filters := []string{"(key:resultType,value:List(PEOPLE))"}

	appendList := func(key string, values []string) {
		if len(values) > 0 {
			filters = append(filters, fmt.Sprintf("(key:%s,value:List(%s))", key, strings.Join(values, " | ")))
		}
	}
	appendOne := func(key, value string) {
		if value != "" {
			filters = append(filters, fmt.Sprintf("(key:%s,value:List(%s))", key, value))
		}
	}

	appendOne("connectionOf", p.ConnectionOf)
	appendList("network", p.NetworkDepths)
	appendList("geo", p.Regions)
	appendList("industry", p.Industries)
	appendList("currentCompany", p.CurrentCompanies)
	appendList("pastCompany", p.PastCompanies)
	appendList("profileLanguage", p.ProfileLanguages)
	appendList("nonprofitInterest", p.NonprofitInterests)
	appendList("schools", p.Schools)
	appendList("serviceCategory", p.ServiceCategories)
	appendOne("firstName", p.FirstName)
	appendOne("lastName", p.LastName)
	appendOne("title", p.Title)
	appendOne("company", p.Company)
	appendOne("school", p.School)

	return "List(" + strings.Join(filters, ",") + ")"
}

// buildSearchVariables renders the GraphQL variables string for one page.
func buildSearchVariables(start int, keywords, filters string) string {
	kw := ""
	if keywords != "" {
		kw = "keywords:" + url.QueryEscape(keywords) + ","
	}
	return fmt.Sprintf(
		"(start:%d,origin:GLOBAL_SEARCH_HEADER,query:(%sflagshipSearchIntent:SEARCH_SRP,queryParameters:%s,includeFiltersInResponse:false))",
		start, kw, filters,
	)
}

// parseSearchClusters extracts entity results from one response envelope.
// It returns nil when the cluster container is absent (end of results) and
// an empty slice for a present-but-empty page.
func parseSearchClusters(envelope map[string]any) []map[string]any {
	outer := asMap(envelope["data"])
	if outer == nil {
		return nil
	}
	clusters := asMap(outer["searchDashClustersByAll"])
	if clusters == nil {
		clusters = asMap(asMap(outer["data"])["searchDashClustersByAll"])
	}
	if clusters == nil {
		return nil
	}

	includedMap := make(map[string]map[string]any)
	for _, inc := range Included(envelope) {
		if urn := getString(inc, "entityUrn"); urn != "" {
			includedMap[urn] = inc
		}
	}

	page := []map[string]any{}
	for _, cluster := range mapSlice(clusters["elements"]) {
		ctype := getString(cluster, "_type")
		if ctype == "" {
			ctype = getString(cluster, "$type")
		}
		if ctype != "" && !strings.Contains(ctype, "SearchClusterViewModel") {
			continue
		}
		for _, el := range mapSlice(cluster["items"]) {
			item := asMap(el["item"])
			if item == nil {
				continue
			}
			entity := asMap(item["entityResult"])
			if entity == nil {
				if ref := getString(item, "*entityResult"); ref != "" {
					entity = includedMap[ref]
				}
			}
			if entity == nil {
				continue
			}
			etype := getString(entity, "_type")
			if etype == "" {
				etype = getString(entity, "$type")
			}
			if !strings.Contains(etype, "EntityResultViewModel") {
				continue
			}
			page = append(page, entity)
		}
	}
	return page
}

// urnFromRaw pulls the inner URN out of a composite entity URN of the form
// urn:li:fsd_entityResultViewModel:(urn:li:fsd_profile:XXX,SEARCH_SRP,...).
func urnFromRaw(raw string) string {
	i := strings.Index(raw, "(")
	if i < 0 {
		return ""
	}
	inner := raw[i+1:]
	if j := strings.IndexAny(inner, ",)"); j >= 0 {
		inner = inner[:j]
	}
	return inner
}

// idFromURN returns the identifier segment of a urn:li:TYPE:ID string.
func idFromURN(urn string) string {
	parts := strings.Split(urn, ":")
	if len(parts) > 3 {
		return parts[3]
	}
	return ""
}

// textField reads the conventional {"text": "..."} wrapper.
func textField(m map[string]any, key string) string {
	return getString(asMap(m[key]), "text")
}
