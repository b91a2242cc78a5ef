// File: internal/scraper/parse.go
package scraper

import (
	"regexp"
	"strings"
)

// Section heading variants across the UI languages LinkedIn renders. The
// page picks the language from the viewer's locale, not the profile's.
var (
	aboutHeadings = []string{
		"About", "Общие сведения", "Acerca de", "À propos",
		"Info", "Informazioni", "Über", "关于", "소개",
	}
	experienceHeadings = []string{
		"Experience", "Опыт работы", "Experiencia", "Expérience",
		"Berufserfahrung", "Esperienza", "工作经历", "경력",
	}
	educationHeadings = []string{
		"Education", "Образование", "Educación", "Formation",
		"Ausbildung", "Istruzione", "教育背景", "학력",
	}
	interestHeadings = []string{
		"Interests", "Интересы", "Intereses", "Centres d'intérêt",
		"Interessen", "Interessi", "兴趣", "관심사",
	}
)

// Rendered text longer than this is layout noise, not a field value.
const maxFieldLength = 200

var (
	yearPattern    = regexp.MustCompile(`\d{4}`)
	ruRangePattern = regexp.MustCompile(`^[Сс]\s+(.+?)\s+по\s+(.+)$`)
)

// dateSeparators cover the dash variants LinkedIn renders between dates.
var dateSeparators = []string{" – ", " - "}

// parseWorkTimes splits a rendered employment span like
// "Jan 2020 - Mar 2023 · 3 yrs 3 mos" into from, to, and duration.
func parseWorkTimes(text string) (from, to, duration string) {
	if text == "" {
		return "", "", ""
	}
	parts := strings.SplitN(text, "·", 2)
	times := strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		duration = strings.TrimSpace(parts[1])
	}
	from = times
	for _, sep := range dateSeparators {
		if strings.Contains(times, sep) {
			dp := strings.SplitN(times, sep, 2)
			from = strings.TrimSpace(dp[0])
			to = strings.TrimSpace(dp[1])
			break
		}
	}
	return from, to, duration
}

// parseEduTimes splits an education date range, including the Russian
// "С X по Y" form.
func parseEduTimes(text string) (from, to string) {
	if text == "" {
		return "", ""
	}
	if m := ruRangePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	for _, sep := range dateSeparators {
		if strings.Contains(text, sep) {
			parts := strings.SplitN(text, sep, 2)
			return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		}
	}
	t := strings.TrimSpace(text)
	return t, t
}

func looksLikeDate(text string) bool {
	return yearPattern.MatchString(text)
}

// groupEducationTexts splits the flat paragraph list of the education
// section into per-entry groups, each terminated by a date line.
func groupEducationTexts(texts []string) [][]string {
	var groups [][]string
	var current []string
	for _, t := range texts {
		current = append(current, t)
		if looksLikeDate(t) {
			groups = append(groups, current)
			current = nil
		}
	}
	return groups
}

// educationFromGroup interprets one grouped entry: institution first, then
// optionally a degree and a date range.
func educationFromGroup(group []string) *Education {
	if len(group) == 0 {
		return nil
	}
	edu := &Education{InstitutionName: group[0]}
	times := ""
	switch {
	case len(group) >= 3:
		edu.Degree = strings.TrimSpace(group[1])
		times = group[2]
	case len(group) == 2:
		if looksLikeDate(group[1]) {
			times = group[1]
		} else {
			edu.Degree = strings.TrimSpace(group[1])
		}
	}
	edu.FromDate, edu.ToDate = parseEduTimes(times)
	return edu
}

// parseMainExperience interprets the paragraph texts of one card on the
// profile's own experience section.
func parseMainExperience(texts []string, description, href string) *Experience {
	if len(texts) < 2 {
		return nil
	}
	exp := &Experience{
		PositionTitle:   texts[0],
		InstitutionName: strings.TrimSpace(strings.SplitN(texts[1], " · ", 2)[0]),
		LinkedInURL:     href,
		Description:     description,
	}
	if len(texts) > 2 {
		exp.FromDate, exp.ToDate, exp.Duration = parseWorkTimes(texts[2])
	}
	if len(texts) > 3 {
		exp.Location = strings.TrimSpace(strings.SplitN(texts[3], " · ", 2)[0])
	}
	return exp
}

// parseDetailExperience interprets the de-duplicated texts of one item on
// the details/experience page.
func parseDetailExperience(texts []string, href string) *Experience {
	if len(texts) < 2 {
		return nil
	}
	exp := &Experience{
		PositionTitle:   texts[0],
		InstitutionName: texts[1],
		LinkedInURL:     href,
	}
	if len(texts) > 2 {
		exp.FromDate, exp.ToDate, exp.Duration = parseWorkTimes(texts[2])
	}
	if len(texts) > 3 {
		exp.Location = texts[3]
	}
	return exp
}

// parseDetailEducation interprets the de-duplicated texts of one item on
// the details/education page.
func parseDetailEducation(texts []string, href string) *Education {
	if len(texts) == 0 {
		return nil
	}
	edu := &Education{InstitutionName: texts[0], LinkedInURL: href}
	times := ""
	switch {
	case len(texts) >= 3:
		edu.Degree = strings.TrimSpace(texts[1])
		times = texts[2]
	case len(texts) == 2:
		second := texts[1]
		if strings.Contains(second, " - ") || strings.ContainsAny(second, "0123456789") {
			times = second
		} else {
			edu.Degree = strings.TrimSpace(second)
		}
	}
	edu.FromDate, edu.ToDate = parseEduTimes(times)
	return edu
}

// parseAccomplishment interprets the leading span texts of one item on an
// accomplishment detail page.
func parseAccomplishment(texts []string, credentialURL, category string) *Accomplishment {
	acc := &Accomplishment{Category: category, CredentialURL: credentialURL}
	for i, t := range texts {
		if i >= 5 {
			break
		}
		t = strings.TrimSpace(t)
		if t == "" || len(t) > 500 {
			continue
		}
		switch {
		case i == 0:
			acc.Title = t
		case strings.Contains(t, "Issued by"):
			parts := strings.SplitN(t, "·", 2)
			acc.Issuer = strings.TrimSpace(strings.ReplaceAll(parts[0], "Issued by", ""))
			if len(parts) > 1 {
				acc.IssuedDate = strings.TrimSpace(parts[1])
			}
		case strings.Contains(t, "Issued ") && acc.IssuedDate == "":
			acc.IssuedDate = strings.ReplaceAll(t, "Issued ", "")
		case strings.Contains(t, "Credential ID"):
			acc.CredentialID = strings.ReplaceAll(t, "Credential ID ", "")
		case i == 1 && acc.Issuer == "":
			acc.Issuer = t
		}
	}
	if acc.Title == "" || len(acc.Title) > maxFieldLength {
		return nil
	}
	return acc
}

// interestCategory maps a tab label onto a stable category name.
func interestCategory(label string) string {
	n := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(n, "compan"):
		return "company"
	case strings.Contains(n, "group"):
		return "group"
	case strings.Contains(n, "school"):
		return "school"
	case strings.Contains(n, "newsletter"):
		return "newsletter"
	case strings.Contains(n, "voice"), strings.Contains(n, "influencer"):
		return "influencer"
	}
	return n
}

// contactType maps a contact overlay heading onto a contact type, or ""
// when the heading is not a recognized contact block.
func contactType(heading string) string {
	h := strings.ToLower(heading)
	switch {
	case strings.Contains(h, "profile"):
		return "linkedin"
	case strings.Contains(h, "website"):
		return "website"
	case strings.Contains(h, "email"):
		return "email"
	case strings.Contains(h, "phone"):
		return "phone"
	case strings.Contains(h, "twitter"), strings.Contains(h, "x.com"):
		return "twitter"
	case strings.Contains(h, "birthday"):
		return "birthday"
	case strings.Contains(h, "address"):
		return "address"
	}
	return ""
}

// normalizeResultURL absolutizes a profile link and strips its query.
func normalizeResultURL(href string) string {
	if href == "" {
		return ""
	}
	if !strings.HasPrefix(href, "http") {
		href = "https://www.linkedin.com" + href
	}
	if i := strings.Index(href, "?"); i >= 0 {
		href = href[:i]
	}
	return href
}

// uniqueTexts drops duplicates and near-duplicates (one string containing
// the other) from rendered text fragments.
func uniqueTexts(texts []string) []string {
	var out []string
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" || len(t) >= maxFieldLength {
			continue
		}
		dup := false
		for _, s := range out {
			if t == s || (len(s) > 3 && (strings.Contains(t, s) || strings.Contains(s, t))) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}
