// File: internal/scraper/models.go
package scraper

// Person is a profile assembled from rendered page content. Fields mirror
// what the page exposes, which is shallower than the API profile.
type Person struct {
	LinkedInURL     string           `json:"linkedin_url"`
	Name            string           `json:"name"`
	Location        string           `json:"location,omitempty"`
	About           string           `json:"about,omitempty"`
	OpenToWork      bool             `json:"open_to_work,omitempty"`
	Experiences     []Experience     `json:"experiences,omitempty"`
	Educations      []Education      `json:"educations,omitempty"`
	Interests       []Interest       `json:"interests,omitempty"`
	Accomplishments []Accomplishment `json:"accomplishments,omitempty"`
	Contacts        []Contact        `json:"contacts,omitempty"`
}

// Experience is one position as rendered on the page. Dates stay as display
// strings because the page gives nothing more structured.
type Experience struct {
	PositionTitle   string `json:"position_title"`
	InstitutionName string `json:"institution_name,omitempty"`
	LinkedInURL     string `json:"linkedin_url,omitempty"`
	FromDate        string `json:"from_date,omitempty"`
	ToDate          string `json:"to_date,omitempty"`
	Duration        string `json:"duration,omitempty"`
	Location        string `json:"location,omitempty"`
	Description     string `json:"description,omitempty"`
}

// Education is one education entry as rendered on the page.
type Education struct {
	InstitutionName string `json:"institution_name"`
	Degree          string `json:"degree,omitempty"`
	LinkedInURL     string `json:"linkedin_url,omitempty"`
	FromDate        string `json:"from_date,omitempty"`
	ToDate          string `json:"to_date,omitempty"`
}

// Interest is a followed company, group, school, newsletter, or person.
type Interest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// Accomplishment is one entry from the detail accomplishment pages
// (certifications, honors, publications, patents, courses, projects,
// languages, organizations).
type Accomplishment struct {
	Category      string `json:"category"`
	Title         string `json:"title"`
	Issuer        string `json:"issuer,omitempty"`
	IssuedDate    string `json:"issued_date,omitempty"`
	CredentialID  string `json:"credential_id,omitempty"`
	CredentialURL string `json:"credential_url,omitempty"`
}

// Contact is one entry from the contact info overlay.
type Contact struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// SearchResult is one people search card.
type SearchResult struct {
	Name        string `json:"name"`
	Headline    string `json:"headline,omitempty"`
	Location    string `json:"location,omitempty"`
	LinkedInURL string `json:"linkedin_url"`
}

// SearchResponse is a de-duplicated people search outcome.
type SearchResponse struct {
	QueryKeywords string         `json:"query_keywords"`
	QueryLocation string         `json:"query_location,omitempty"`
	Results       []SearchResult `json:"results"`
	PagesScraped  int            `json:"total_pages_scraped"`
}
