// File: internal/linkedin/models.go
package linkedin

// PartialDate is a year/month date as LinkedIn reports it. Day precision is
// never available.
type PartialDate struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
}

// SearchResult is one lightweight hit from people search.
type SearchResult struct {
	URNID         string `json:"urn_id"`
	Distance      string `json:"distance,omitempty"`
	JobTitle      string `json:"jobtitle,omitempty"`
	Location      string `json:"location,omitempty"`
	Name          string `json:"name"`
	NavigationURL string `json:"navigation_url,omitempty"`
}

// Experience is a single position entry.
type Experience struct {
	Title          string       `json:"title,omitempty"`
	CompanyName    string       `json:"companyName,omitempty"`
	EmploymentType string       `json:"employmentType,omitempty"`
	Location       string       `json:"location,omitempty"`
	Description    string       `json:"description,omitempty"`
	StartDate      *PartialDate `json:"startDate,omitempty"`
	EndDate        *PartialDate `json:"endDate,omitempty"`
}

// Education is a single education entry.
type Education struct {
	SchoolName   string       `json:"schoolName,omitempty"`
	DegreeName   string       `json:"degreeName,omitempty"`
	FieldOfStudy string       `json:"fieldOfStudy,omitempty"`
	Description  string       `json:"description,omitempty"`
	StartDate    *PartialDate `json:"startDate,omitempty"`
	EndDate      *PartialDate `json:"endDate,omitempty"`
}

// Language pairs a language name with the self-reported proficiency.
type Language struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency,omitempty"`
}

// Certification is a single certification entry.
type Certification struct {
	Name      string       `json:"name,omitempty"`
	Authority string       `json:"authority,omitempty"`
	URL       string       `json:"url,omitempty"`
	StartDate *PartialDate `json:"startDate,omitempty"`
}

// Publication is a single publication entry.
type Publication struct {
	Name      string `json:"name,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Year      int    `json:"year,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Volunteer is a single volunteering entry.
type Volunteer struct {
	Role        string `json:"role,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Description string `json:"description,omitempty"`
}

// Project is a single project entry.
type Project struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Honor is a single award entry.
type Honor struct {
	Title       string `json:"title,omitempty"`
	Issuer      string `json:"issuer,omitempty"`
	Description string `json:"description,omitempty"`
}

// Profile is a fully denormalized and cleaned profile. It is built once per
// fetch and never mutated afterwards.
type Profile struct {
	PublicID          string          `json:"public_id,omitempty"`
	URNID             string          `json:"urn_id,omitempty"`
	FirstName         string          `json:"firstName,omitempty"`
	LastName          string          `json:"lastName,omitempty"`
	Headline          string          `json:"headline,omitempty"`
	Summary           string          `json:"summary,omitempty"`
	Location          string          `json:"location,omitempty"`
	OpenToWork        bool            `json:"openToWork,omitempty"`
	ProfilePictureURL string          `json:"profilePictureUrl,omitempty"`
	ProfileURL        string          `json:"profileUrl,omitempty"`
	Experience        []Experience    `json:"experience,omitempty"`
	Education         []Education     `json:"education,omitempty"`
	Skills            []string        `json:"skills,omitempty"`
	Languages         []Language      `json:"languages,omitempty"`
	Certifications    []Certification `json:"certifications,omitempty"`
	Publications      []Publication   `json:"publications,omitempty"`
	Volunteer         []Volunteer     `json:"volunteer,omitempty"`
	Honors            []Honor         `json:"honors,omitempty"`
	Projects          []Project       `json:"projects,omitempty"`
}

// IsEmpty reports whether the fetch resolved to nothing usable. Private and
// deleted profiles commonly produce this; it is not an error.
func (p *Profile) IsEmpty() bool {
	return p == nil || (p.PublicID == "" && p.URNID == "" && p.FirstName == "" && p.LastName == "")
}

// Cookie mirrors the browser storage-state cookie shape, so cookies captured
// by the headless browser round-trip through the caller's credential store
// unchanged.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// StorageState is the durable form of a browser session: cookies plus origin
// storage metadata. The core produces and consumes it but never persists it.
type StorageState struct {
	Cookies []Cookie `json:"cookies"`
	Origins []any    `json:"origins,omitempty"`
}
