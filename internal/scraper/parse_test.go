// File: internal/scraper/parse_test.go
package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorkTimes(t *testing.T) {
	from, to, dur := parseWorkTimes("Jan 2020 - Mar 2023 · 3 yrs 3 mos")
	assert.Equal(t, "Jan 2020", from)
	assert.Equal(t, "Mar 2023", to)
	assert.Equal(t, "3 yrs 3 mos", dur)

	from, to, dur = parseWorkTimes("Jun 2021 – Present · 2 yrs")
	assert.Equal(t, "Jun 2021", from)
	assert.Equal(t, "Present", to)
	assert.Equal(t, "2 yrs", dur)

	from, to, dur = parseWorkTimes("2019")
	assert.Equal(t, "2019", from)
	assert.Empty(t, to)
	assert.Empty(t, dur)

	from, to, dur = parseWorkTimes("")
	assert.Empty(t, from)
	assert.Empty(t, to)
	assert.Empty(t, dur)
}

func TestParseEduTimes(t *testing.T) {
	from, to := parseEduTimes("2015 - 2019")
	assert.Equal(t, "2015", from)
	assert.Equal(t, "2019", to)

	// Russian locale renders ranges as "С X по Y".
	from, to = parseEduTimes("С 2015 по 2019")
	assert.Equal(t, "2015", from)
	assert.Equal(t, "2019", to)

	from, to = parseEduTimes("2020")
	assert.Equal(t, "2020", from)
	assert.Equal(t, "2020", to)
}

func TestGroupEducationTexts(t *testing.T) {
	texts := []string{
		"BSU", "Computer Science", "2015 - 2019",
		"Coursera", "2020",
	}
	groups := groupEducationTexts(texts)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"BSU", "Computer Science", "2015 - 2019"}, groups[0])
	assert.Equal(t, []string{"Coursera", "2020"}, groups[1])
}

func TestEducationFromGroup(t *testing.T) {
	edu := educationFromGroup([]string{"BSU", "Computer Science", "2015 - 2019"})
	require.NotNil(t, edu)
	assert.Equal(t, "BSU", edu.InstitutionName)
	assert.Equal(t, "Computer Science", edu.Degree)
	assert.Equal(t, "2015", edu.FromDate)
	assert.Equal(t, "2019", edu.ToDate)

	// Two entries where the second is a date means no degree.
	edu = educationFromGroup([]string{"Coursera", "2020"})
	require.NotNil(t, edu)
	assert.Empty(t, edu.Degree)
	assert.Equal(t, "2020", edu.FromDate)

	assert.Nil(t, educationFromGroup(nil))
}

func TestParseMainExperience(t *testing.T) {
	exp := parseMainExperience(
		[]string{"Backend Engineer", "Acme Corp · Full-time", "Jan 2020 - Mar 2023 · 3 yrs", "Minsk, Belarus · Remote"},
		"Built the billing pipeline.",
		"/company/acme/",
	)
	require.NotNil(t, exp)
	assert.Equal(t, "Backend Engineer", exp.PositionTitle)
	assert.Equal(t, "Acme Corp", exp.InstitutionName)
	assert.Equal(t, "Jan 2020", exp.FromDate)
	assert.Equal(t, "Mar 2023", exp.ToDate)
	assert.Equal(t, "3 yrs", exp.Duration)
	assert.Equal(t, "Minsk, Belarus", exp.Location)
	assert.Equal(t, "Built the billing pipeline.", exp.Description)

	assert.Nil(t, parseMainExperience([]string{"only title"}, "", ""))
}

func TestParseAccomplishment(t *testing.T) {
	acc := parseAccomplishment(
		[]string{"AWS Solutions Architect", "Issued by Amazon · Jan 2023", "Credential ID ABC-123"},
		"https://verify.example.com/abc",
		"certification",
	)
	require.NotNil(t, acc)
	assert.Equal(t, "AWS Solutions Architect", acc.Title)
	assert.Equal(t, "Amazon", acc.Issuer)
	assert.Equal(t, "Jan 2023", acc.IssuedDate)
	assert.Equal(t, "ABC-123", acc.CredentialID)
	assert.Equal(t, "https://verify.example.com/abc", acc.CredentialURL)

	// Fallback: second span is the issuer when no "Issued by" marker exists.
	acc = parseAccomplishment([]string{"Deep Learning", "Coursera"}, "", "course")
	require.NotNil(t, acc)
	assert.Equal(t, "Coursera", acc.Issuer)

	assert.Nil(t, parseAccomplishment(nil, "", "honor"), "no title means no entry")
}

func TestInterestCategory(t *testing.T) {
	assert.Equal(t, "company", interestCategory("Companies"))
	assert.Equal(t, "group", interestCategory("Groups"))
	assert.Equal(t, "influencer", interestCategory("Top Voices"))
	assert.Equal(t, "newsletter", interestCategory("Newsletters"))
	assert.Equal(t, "pages", interestCategory("Pages"), "unknown labels pass through lowercased")
}

func TestContactType(t *testing.T) {
	assert.Equal(t, "linkedin", contactType("your profile"))
	assert.Equal(t, "email", contactType("email"))
	assert.Equal(t, "twitter", contactType("x.com"))
	assert.Empty(t, contactType("something else"))
}

func TestNormalizeResultURL(t *testing.T) {
	assert.Equal(t,
		"https://www.linkedin.com/in/ada",
		normalizeResultURL("/in/ada?miniProfileUrn=urn"))
	assert.Equal(t,
		"https://www.linkedin.com/in/ada",
		normalizeResultURL("https://www.linkedin.com/in/ada"))
	assert.Empty(t, normalizeResultURL(""))
}

func TestUniqueTexts(t *testing.T) {
	got := uniqueTexts([]string{
		"Backend Engineer",
		"Backend Engineer",       // exact duplicate
		"Backend Engineer · ...", // superset of an existing entry
		"Acme",
		"",
	})
	assert.Equal(t, []string{"Backend Engineer", "Acme"}, got)
}

func TestBuildSearchURL(t *testing.T) {
	assert.Equal(t,
		searchBaseURL+"?keywords=golang+minsk&origin=GLOBAL_SEARCH_HEADER",
		buildSearchURL("golang minsk", 1))
	assert.Contains(t, buildSearchURL("golang", 3), "page=3")
}
