// File: internal/linkedin/profile.go
package linkedin

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// profileDecorations are tried in order when fetching the dash profile.
// LinkedIn versions these; newer ones carry more entity data but get retired
// without notice.
var profileDecorations = []string{
	"com.linkedin.voyager.dash.deco.identity.profile.FullProfileWithEntities-93",
	"com.linkedin.voyager.dash.deco.identity.profile.FullProfileWithEntities-105",
	"com.linkedin.voyager.dash.deco.identity.profile.FullProfile-76",
}

const vanityLookupQueryID = "voyagerIdentityDashProfiles.a1a483e719b20537a256b6853cdca711"

// sectionTypePatterns maps profile sections to $type substrings used when a
// section is missing from the denormalized tree but present in included.
var sectionTypePatterns = map[string][]string{
	"experience":     {".profile.Position"},
	"education":      {".profile.Education"},
	"skills":         {".profile.Skill"},
	"languages":      {".profile.Language"},
	"certifications": {".profile.Certification"},
	"publications":   {".profile.Publication"},
	"volunteer":      {".profile.VolunteerExperience"},
	"honors":         {".profile.Honor"},
	"projects":       {".profile.Project"},
}

var fsdProfileURNPattern = regexp.MustCompile(`urn:li:fsd_profile:[A-Za-z0-9_-]{8,}`)

// GetProfile fetches and cleans a full profile by public identifier or URN
// id. Exactly one of the two must be set; publicID wins when both are.
// A profile that resolves to nothing (private, deleted) returns an empty
// Profile, not an error.
func (c *Client) GetProfile(ctx context.Context, publicID, urnID string) (*Profile, error) {
	if publicID == "" && urnID == "" {
		return nil, NewError(KindConfiguration, "either a public identifier or an urn id is required")
	}
	if publicID != "" {
		resolved, err := c.resolveURNFromPublicID(ctx, publicID)
		if err != nil {
			return nil, err
		}
		if resolved == "" {
			c.logger.Warn("Could not resolve profile urn.", zap.String("public_id", publicID))
			return &Profile{}, nil
		}
		urnID = resolved
	}
	urnID = normalizeProfileURN(urnID)

	profile, included, err := c.fetchDashProfile(ctx, urnID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return &Profile{}, nil
	}
	return buildProfile(profile, included, urnID), nil
}

// fetchDashProfile tries each decoration until one yields data. A decoration
// failure is logged and skipped; exhaustion returns nil without error so the
// caller can treat the profile as empty.
func (c *Client) fetchDashProfile(ctx context.Context, urnID string) (map[string]any, []map[string]any, error) {
	for _, dec := range profileDecorations {
		query := url.Values{"decorationId": {dec}}
		body, err := c.Get(ctx, "/identity/dash/profiles/"+url.PathEscape(urnID)+"?"+query.Encode())
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, err
			}
			c.logger.Debug("Profile decoration failed.", zap.String("decoration", dec), zap.Error(err))
			continue
		}
		var envelope map[string]any
		if err := json.Unmarshal(body, &envelope); err != nil || len(envelope) == 0 {
			continue
		}
		profile := Denormalize(envelope)
		if len(profile) == 0 {
			return nil, nil, nil
		}
		return profile, Included(envelope), nil
	}
	c.logger.Error("All profile decorations failed.", zap.String("urn_id", urnID))
	return nil, nil, nil
}

// resolveURNFromPublicID maps a vanity name to a profile URN, first through
// the GraphQL identity lookup and then by mining the public profile HTML.
func (c *Client) resolveURNFromPublicID(ctx context.Context, publicID string) (string, error) {
	urn, err := c.vanityLookup(ctx, publicID)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		c.logger.Warn("GraphQL urn lookup failed, falling back to page HTML.", zap.Error(err))
	}
	if urn != "" {
		return urn, nil
	}

	html, err := c.GetHTML(ctx, "/in/"+url.PathEscape(publicID)+"/")
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		c.logger.Error("Profile page fetch failed.", zap.Error(err))
		return "", nil
	}
	return urnFromProfileHTML(html), nil
}

func (c *Client) vanityLookup(ctx context.Context, publicID string) (string, error) {
	query := url.Values{
		"includeWebMetadata": {"true"},
		"variables":          {"(vanityName:" + publicID + ")"},
		"queryId":            {vanityLookupQueryID},
	}
	body, err := c.Get(ctx, "/graphql?"+query.Encode())
	if err != nil {
		return "", err
	}
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", err
	}
	identity := asMap(asMap(asMap(envelope["data"])["data"])["identityDashProfilesByMemberIdentity"])
	elements := asSlice(identity["*elements"])
	if len(elements) == 0 {
		return "", nil
	}
	if urn, ok := elements[0].(string); ok && strings.Contains(urn, "fsd_profile") {
		return urn, nil
	}
	return "", nil
}

// urnFromProfileHTML digs the profile URN out of a public profile page:
// the JSON-LD person block when present, otherwise a pattern scan over the
// page's embedded code and script payloads.
func urnFromProfileHTML(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}

	var urn string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload map[string]any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return true
		}
		if getString(payload, "@type") != "Person" {
			return true
		}
		ident := getString(payload, "identifier")
		if !strings.Contains(ident, "fsd_profile") {
			return true
		}
		urn = normalizeProfileURN(ident)
		return false
	})
	if urn != "" {
		return urn
	}

	doc.Find("code, script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "fsd_profile") {
			return true
		}
		if m := fsdProfileURNPattern.FindString(text); m != "" {
			urn = m
			return false
		}
		return true
	})
	return urn
}

func normalizeProfileURN(id string) string {
	if strings.HasPrefix(id, "urn:") {
		return id
	}
	return "urn:li:fsd_profile:" + id
}

// buildProfile assembles the cleaned Profile from a denormalized tree plus
// the raw included entities.
func buildProfile(profile map[string]any, included []map[string]any, urnID string) *Profile {
	p := &Profile{
		PublicID:          getString(profile, "publicIdentifier"),
		URNID:             strings.TrimPrefix(urnID, "urn:li:fsd_profile:"),
		FirstName:         getString(profile, "firstName"),
		LastName:          getString(profile, "lastName"),
		Headline:          getString(profile, "headline"),
		Summary:           profileSummary(profile),
		Location:          profileLocation(profile),
		ProfilePictureURL: profilePictureURL(profile),
	}
	if p.PublicID != "" {
		p.ProfileURL = "https://www.linkedin.com/in/" + p.PublicID + "/"
	}

	sections := map[string][]map[string]any{
		"experience":     extractProfileSection(profile, "*positionView", "profilePositionGroups", "profilePositionInPositionGroup"),
		"education":      extractProfileSection(profile, "*educationView", "profileEducations", ""),
		"languages":      extractProfileSection(profile, "*languageView", "profileLanguages", ""),
		"skills":         extractProfileSection(profile, "*skillView", "profileSkills", ""),
		"certifications": extractProfileSection(profile, "*certificationView", "profileCertifications", ""),
		"publications":   extractProfileSection(profile, "*publicationView", "profilePublications", ""),
		"volunteer":      extractProfileSection(profile, "*volunteerExperienceView", "profileVolunteerExperiences", ""),
		"honors":         extractProfileSection(profile, "*honorView", "profileHonors", ""),
		"projects":       extractProfileSection(profile, "*projectView", "profileProjects", ""),
	}
	for key, patterns := range sectionTypePatterns {
		if len(sections[key]) == 0 {
			sections[key] = sectionFromIncluded(included, patterns)
		}
	}

	for _, e := range sections["experience"] {
		p.Experience = append(p.Experience, cleanExperience(e))
	}
	for _, e := range sections["education"] {
		p.Education = append(p.Education, cleanEducation(e))
	}
	for _, e := range sections["skills"] {
		if name := getString(e, "name"); name != "" {
			p.Skills = append(p.Skills, name)
		}
	}
	for _, e := range sections["languages"] {
		if name := getString(e, "name"); name != "" {
			p.Languages = append(p.Languages, Language{Name: name, Proficiency: getString(e, "proficiency")})
		}
	}
	for _, e := range sections["certifications"] {
		p.Certifications = append(p.Certifications, cleanCertification(e))
	}
	for _, e := range sections["publications"] {
		p.Publications = append(p.Publications, cleanPublication(e))
	}
	for _, e := range sections["volunteer"] {
		p.Volunteer = append(p.Volunteer, Volunteer{
			Role:        getString(e, "role"),
			CompanyName: getString(e, "companyName"),
			Description: getString(e, "description"),
		})
	}
	for _, e := range sections["honors"] {
		p.Honors = append(p.Honors, Honor{
			Title:       getString(e, "title"),
			Issuer:      getString(e, "issuer"),
			Description: getString(e, "description"),
		})
	}
	for _, e := range sections["projects"] {
		p.Projects = append(p.Projects, Project{
			Title:       getString(e, "title"),
			Description: getString(e, "description"),
			URL:         getString(e, "url"),
		})
	}
	return p
}

// profileLocation prefers the explicit location names and falls back to the
// resolved geo entity, without the country suffix when available.
func profileLocation(profile map[string]any) string {
	locationName := getString(profile, "locationName")
	geoLocationName := getString(profile, "geoLocationName")
	if locationName == "" || geoLocationName == "" {
		geoLoc := asMap(profile["geoLocation"])
		if geoLoc == nil {
			geoLoc = asMap(profile["*geoLocation"])
		}
		geo := asMap(geoLoc["geo"])
		if geo == nil {
			geo = asMap(geoLoc["*geo"])
		}
		if geo != nil {
			if geoLocationName == "" {
				geoLocationName = getString(geo, "defaultLocalizedName")
			}
			if locationName == "" {
				locationName = getString(geo, "defaultLocalizedNameWithoutCountryName")
				if locationName == "" {
					locationName = getString(geo, "defaultLocalizedName")
				}
			}
		}
	}
	if geoLocationName != "" {
		return geoLocationName
	}
	return locationName
}

// profilePictureURL joins the vector image root with its widest artifact.
func profilePictureURL(profile map[string]any) string {
	pic := asMap(profile["profilePicture"])
	vi := asMap(asMap(pic["displayImageReference"])["vectorImage"])
	if vi == nil {
		return ""
	}
	root := getString(vi, "rootUrl")
	if root == "" {
		return ""
	}
	var best map[string]any
	bestWidth := -1
	for _, artifact := range mapSlice(vi["artifacts"]) {
		if w := getInt(artifact, "width"); w > bestWidth {
			best, bestWidth = artifact, w
		}
	}
	if best == nil {
		return ""
	}
	seg := getString(best, "fileIdentifyingUrlPathSegment")
	if seg == "" {
		return ""
	}
	return root + seg
}

func profileSummary(profile map[string]any) string {
	if multi := asMap(profile["multiLocaleSummary"]); multi != nil {
		return getString(multi, "en_US")
	}
	return getString(profile, "summary")
}

// simplifyDate reduces a dateRange part to year/month, dropping empty parts.
func simplifyDate(dateRange map[string]any, part string) *PartialDate {
	d := asMap(dateRange[part])
	if d == nil {
		return nil
	}
	out := &PartialDate{Year: getInt(d, "year"), Month: getInt(d, "month")}
	if out.Year == 0 && out.Month == 0 {
		return nil
	}
	return out
}

func cleanExperience(e map[string]any) Experience {
	dr := asMap(e["dateRange"])
	employmentType := ""
	switch et := e["employmentType"].(type) {
	case map[string]any:
		employmentType = getString(et, "name")
	case string:
		employmentType = et
	}
	return Experience{
		Title:          getString(e, "title"),
		CompanyName:    getString(e, "companyName"),
		EmploymentType: employmentType,
		Location:       getString(e, "locationName"),
		Description:    getString(e, "description"),
		StartDate:      simplifyDate(dr, "start"),
		EndDate:        simplifyDate(dr, "end"),
	}
}

func cleanEducation(e map[string]any) Education {
	dr := asMap(e["dateRange"])
	return Education{
		SchoolName:   getString(e, "schoolName"),
		DegreeName:   getString(e, "degreeName"),
		FieldOfStudy: getString(e, "fieldOfStudy"),
		Description:  getString(e, "description"),
		StartDate:    simplifyDate(dr, "start"),
		EndDate:      simplifyDate(dr, "end"),
	}
}

func cleanCertification(e map[string]any) Certification {
	dr := asMap(e["dateRange"])
	return Certification{
		Name:      getString(e, "name"),
		Authority: getString(e, "authority"),
		URL:       getString(e, "url"),
		StartDate: simplifyDate(dr, "start"),
	}
}

func cleanPublication(e map[string]any) Publication {
	pub := asMap(e["publishedOn"])
	year := 0
	if pub != nil {
		year = getInt(pub, "year")
	}
	return Publication{
		Name:      getString(e, "name"),
		Publisher: getString(e, "publisher"),
		Year:      year,
		URL:       getString(e, "url"),
	}
}
