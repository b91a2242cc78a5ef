// File: internal/linkedin/profile_test.go
package linkedin

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanExperience_DateHandling(t *testing.T) {
	e := cleanExperience(map[string]any{
		"title":       "Engineer",
		"companyName": "Acme",
		"dateRange": map[string]any{
			"start": map[string]any{"year": float64(2019), "month": float64(6)},
			"end":   map[string]any{},
		},
	})
	require.NotNil(t, e.StartDate)
	assert.Equal(t, 2019, e.StartDate.Year)
	assert.Equal(t, 6, e.StartDate.Month)
	assert.Nil(t, e.EndDate, "empty date part must clean to nil")
}

func TestCleanExperience_EmploymentTypeShapes(t *testing.T) {
	asDict := cleanExperience(map[string]any{
		"employmentType": map[string]any{"name": "Full-time"},
	})
	assert.Equal(t, "Full-time", asDict.EmploymentType)

	asString := cleanExperience(map[string]any{"employmentType": "Contract"})
	assert.Equal(t, "Contract", asString.EmploymentType)

	absent := cleanExperience(map[string]any{})
	assert.Empty(t, absent.EmploymentType)
}

func TestBuildProfile_CoreFields(t *testing.T) {
	profile := map[string]any{
		"publicIdentifier": "ada-lovelace",
		"firstName":        "Ada",
		"lastName":         "Lovelace",
		"headline":         "Mathematician",
		"multiLocaleSummary": map[string]any{
			"en_US": "First programmer.",
		},
		"geoLocationName": "London, England",
		"profilePicture": map[string]any{
			"displayImageReference": map[string]any{
				"vectorImage": map[string]any{
					"rootUrl": "https://media.licdn.com/img/",
					"artifacts": []any{
						map[string]any{"width": float64(100), "fileIdentifyingUrlPathSegment": "small"},
						map[string]any{"width": float64(800), "fileIdentifyingUrlPathSegment": "large"},
					},
				},
			},
		},
		"*skillView": map[string]any{
			"elements": []any{
				map[string]any{"name": "Mathematics"},
				map[string]any{"name": "Analytical Engines"},
			},
		},
	}

	p := buildProfile(profile, nil, "urn:li:fsd_profile:abc123def")

	assert.Equal(t, "ada-lovelace", p.PublicID)
	assert.Equal(t, "abc123def", p.URNID)
	assert.Equal(t, "First programmer.", p.Summary)
	assert.Equal(t, "London, England", p.Location)
	assert.Equal(t, "https://media.licdn.com/img/large", p.ProfilePictureURL)
	assert.Equal(t, "https://www.linkedin.com/in/ada-lovelace/", p.ProfileURL)
	assert.Equal(t, []string{"Mathematics", "Analytical Engines"}, p.Skills)
	assert.False(t, p.IsEmpty())
}

func TestBuildProfile_IncludedFallbackForMissingSections(t *testing.T) {
	included := []map[string]any{
		{"$type": "com.linkedin.voyager.dash.identity.profile.Position", "title": "Engineer", "companyName": "Acme"},
		{"$type": "com.linkedin.voyager.dash.identity.profile.PositionGroup"},
		{"$type": "com.linkedin.voyager.dash.identity.profile.Skill", "name": "Go"},
	}

	p := buildProfile(map[string]any{"firstName": "A"}, included, "urn:li:fsd_profile:x")

	require.Len(t, p.Experience, 1)
	assert.Equal(t, "Engineer", p.Experience[0].Title)
	assert.Equal(t, []string{"Go"}, p.Skills)
}

func TestProfileLocation_GeoFallback(t *testing.T) {
	got := profileLocation(map[string]any{
		"geoLocation": map[string]any{
			"geo": map[string]any{
				"defaultLocalizedName":                   "Minsk, Belarus",
				"defaultLocalizedNameWithoutCountryName": "Minsk",
			},
		},
	})
	assert.Equal(t, "Minsk, Belarus", got)
}

func TestURNFromProfileHTML(t *testing.T) {
	jsonLD := `<html><head>
		<script type="application/ld+json">{"@type":"Person","identifier":"urn:li:fsd_profile:ACoAAexample1"}</script>
	</head><body></body></html>`
	assert.Equal(t, "urn:li:fsd_profile:ACoAAexample1", urnFromProfileHTML([]byte(jsonLD)))

	embedded := `<html><body>
		<code>{"data":{"*profile":"urn:li:fsd_profile:ACoAAexample2"}}</code>
	</body></html>`
	assert.Equal(t, "urn:li:fsd_profile:ACoAAexample2", urnFromProfileHTML([]byte(embedded)))

	assert.Empty(t, urnFromProfileHTML([]byte("<html><body>nothing here</body></html>")))
}

func TestGetProfile_DecorationFallback(t *testing.T) {
	var decorations []string
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.True(t, strings.HasPrefix(req.URL.Path, "/voyager/api/identity/dash/profiles/"))
		dec := req.URL.Query().Get("decorationId")
		decorations = append(decorations, dec)
		if dec == profileDecorations[0] {
			return jsonResponse(500, "boom"), nil
		}
		return jsonResponse(200, `{
			"data": {"firstName": "Grace", "lastName": "Hopper", "publicIdentifier": "grace"},
			"included": []
		}`), nil
	})

	p, err := c.GetProfile(context.Background(), "", "gracehopperid")
	require.NoError(t, err)
	assert.Equal(t, profileDecorations[:2], decorations)
	assert.Equal(t, "Grace", p.FirstName)
	assert.Equal(t, "gracehopperid", p.URNID)
}

func TestGetProfile_ResolvesPublicIDViaGraphQL(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if strings.HasPrefix(req.URL.Path, "/voyager/api/graphql") {
			assert.Equal(t, vanityLookupQueryID, req.URL.Query().Get("queryId"))
			return jsonResponse(200, `{
				"data": {"data": {"identityDashProfilesByMemberIdentity": {
					"*elements": ["urn:li:fsd_profile:resolved123"]
				}}}
			}`), nil
		}
		assert.Contains(t, req.URL.Path, "resolved123")
		return jsonResponse(200, `{"data": {"firstName": "Ada"}}`), nil
	})

	p, err := c.GetProfile(context.Background(), "ada-lovelace", "")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, "resolved123", p.URNID)
}

func TestGetProfile_HTMLFallbackWhenGraphQLEmpty(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasPrefix(req.URL.Path, "/voyager/api/graphql"):
			return jsonResponse(200, `{"data": {}}`), nil
		case strings.HasPrefix(req.URL.Path, "/in/"):
			return jsonResponse(200, `<html><code>"urn:li:fsd_profile:fromhtml99"</code></html>`), nil
		default:
			assert.Contains(t, req.URL.Path, "fromhtml99")
			return jsonResponse(200, `{"data": {"firstName": "Lin"}}`), nil
		}
	})

	p, err := c.GetProfile(context.Background(), "someone", "")
	require.NoError(t, err)
	assert.Equal(t, "fromhtml99", p.URNID)
}

func TestGetProfile_UnresolvableIsEmptyNotError(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasPrefix(req.URL.Path, "/voyager/api/graphql"):
			return jsonResponse(200, `{"data": {}}`), nil
		default:
			return jsonResponse(200, `<html><body>authwall</body></html>`), nil
		}
	})

	p, err := c.GetProfile(context.Background(), "ghost", "")
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestGetProfile_NoIdentifierIsConfigurationError(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request should be issued")
		return nil, nil
	})
	_, err := c.GetProfile(context.Background(), "", "")
	assert.True(t, IsKind(err, KindConfiguration))
}
