// File: internal/scraper/profile.go
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sourcing-cli/internal/browser"
	"github.com/xkilldash9x/sourcing-cli/internal/linkedin"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// accomplishmentPages are the detail sub-pages harvested per profile.
var accomplishmentPages = []struct {
	path     string
	category string
}{
	{"details/certifications/", "certification"},
	{"details/honors/", "honor"},
	{"details/publications/", "publication"},
	{"details/patents/", "patent"},
	{"details/courses/", "course"},
	{"details/projects/", "project"},
	{"details/languages/", "language"},
	{"details/organizations/", "organization"},
}

// PersonScraper extracts a full profile from rendered pages. Individual
// section failures degrade to empty sections; only a failure to load the
// profile at all is an error.
type PersonScraper struct {
	session *browser.Session
	auth    *browser.Authenticator
	logger  *zap.Logger
}

func NewPersonScraper(session *browser.Session, auth *browser.Authenticator, logger *zap.Logger) *PersonScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonScraper{
		session: session,
		auth:    auth,
		logger:  logger.Named("scraper.person"),
	}
}

// Scrape loads a profile URL and walks its sections and detail pages.
func (s *PersonScraper) Scrape(ctx context.Context, profileURL string) (*Person, error) {
	person, err := s.scrape(ctx, profileURL)
	if err != nil {
		if linkedin.KindOf(err) != "" {
			return nil, err
		}
		return nil, linkedin.WrapError(linkedin.KindScraping, "scraping profile "+profileURL, err)
	}
	return person, nil
}

func (s *PersonScraper) scrape(ctx context.Context, profileURL string) (*Person, error) {
	if err := s.navigate(ctx, profileURL); err != nil {
		return nil, err
	}
	if err := s.ensureLoggedIn(ctx); err != nil {
		return nil, err
	}
	s.settle(ctx, 2*time.Second)

	person := &Person{LinkedInURL: profileURL}
	person.Name, person.Location = s.nameAndLocation(ctx)
	person.OpenToWork = s.openToWork(ctx)
	person.About = s.about(ctx)

	s.session.ScrollToHalf(ctx)
	s.session.ScrollToBottom(ctx, 500*time.Millisecond, 3)

	person.Experiences = s.experiences(ctx, profileURL)
	person.Educations = s.educations(ctx, profileURL)
	person.Interests = s.interests(ctx, profileURL)
	person.Accomplishments = s.accomplishments(ctx, profileURL)
	person.Contacts = s.contacts(ctx, profileURL)
	return person, nil
}

func (s *PersonScraper) navigate(ctx context.Context, url string) error {
	if err := s.session.Navigate(ctx, url); err != nil {
		return err
	}
	return s.auth.CheckRateLimit(ctx)
}

func (s *PersonScraper) ensureLoggedIn(ctx context.Context) error {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if s.auth.IsLoggedIn(ctx) {
			return nil
		}
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return linkedin.NewError(linkedin.KindAuthentication, "not logged in, authenticate before scraping")
}

func (s *PersonScraper) settle(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

const nameAndLocationJS = `(() => {
	const first = document.querySelector("main section");
	let name = "";
	if (first) {
		const h2 = first.querySelector("h2");
		if (h2) name = (h2.innerText || "").trim();
	}
	if (!name) {
		const h1 = document.querySelector("h1");
		if (h1) name = (h1.innerText || "").trim();
	}
	let location = "";
	if (first) {
		const ps = Array.from(first.querySelectorAll("p"));
		for (let i = 1; i < ps.length; i++) {
			if ((ps[i].innerText || "").trim() === "·") {
				location = (ps[i - 1].innerText || "").trim();
				break;
			}
		}
	}
	if (!location) {
		const el = document.querySelector(".text-body-small.inline.t-black--light.break-words");
		if (el) location = (el.innerText || "").trim();
	}
	return { name: name || "Unknown", location: location };
})()`

func (s *PersonScraper) nameAndLocation(ctx context.Context) (string, string) {
	var res struct {
		Name     string `json:"name"`
		Location string `json:"location"`
	}
	if err := s.session.Evaluate(ctx, nameAndLocationJS, &res); err != nil {
		s.logger.Warn("Failed to read name and location.", zap.Error(err))
		return "Unknown", ""
	}
	return res.Name, res.Location
}

func (s *PersonScraper) openToWork(ctx context.Context) bool {
	var title string
	expr := `(document.querySelector(".pv-top-card-profile-picture img") || {}).title || ""`
	if err := s.session.Evaluate(ctx, expr, &title); err != nil {
		return false
	}
	return strings.Contains(strings.ToUpper(title), "#OPEN_TO_WORK")
}

const aboutJS = `(() => {
	const sections = document.querySelectorAll("main section");
	const headings = %s;
	for (const sec of sections) {
		const h2 = sec.querySelector("h2");
		if (!h2 || !headings.includes((h2.innerText || "").trim())) continue;
		const box = sec.querySelector('[data-testid="expandable-text-box"]');
		if (box) return (box.innerText || "").trim();
	}
	for (const card of document.querySelectorAll('[data-view-name="profile-card"]')) {
		if (!(card.innerText || "").trim().startsWith("About")) continue;
		const spans = card.querySelectorAll('span[aria-hidden="true"]');
		if (spans.length > 1) return (spans[1].innerText || "").trim();
	}
	return "";
})()`

func (s *PersonScraper) about(ctx context.Context) string {
	var about string
	if err := s.session.Evaluate(ctx, fmt.Sprintf(aboutJS, mustJSON(aboutHeadings)), &about); err != nil {
		return ""
	}
	return about
}

// cardExtract carries one rendered card's raw content back from the page.
type cardExtract struct {
	Texts       []string `json:"texts"`
	Description string   `json:"description"`
	Href        string   `json:"href"`
}

const mainExperienceJS = `(() => {
	const headings = %s;
	const collect = (items) => Array.from(items).map(item => {
		const texts = Array.from(item.querySelectorAll("p"))
			.map(p => (p.innerText || "").trim()).filter(Boolean);
		const box = item.querySelector('[data-testid="expandable-text-box"]');
		const a = item.querySelector("a");
		return {
			texts: texts,
			description: box ? (box.innerText || "").trim() : "",
			href: a ? (a.getAttribute("href") || "") : ""
		};
	});
	const container = document.querySelector('[data-testid*="ExperienceTopLevelSection"]');
	if (container) return collect(container.querySelectorAll(":scope > div"));
	for (const sec of document.querySelectorAll("main section")) {
		const h2 = sec.querySelector("h2");
		if (h2 && headings.includes((h2.innerText || "").trim())) {
			return collect(sec.querySelectorAll("ul > li, ol > li"));
		}
	}
	return [];
})()`

const detailItemsJS = `(() => {
	let items = Array.from(document.querySelectorAll("main ul > li, main ol > li"));
	if (items.length === 0) {
		const old = document.querySelector(".pvs-list__container");
		if (old) items = Array.from(old.querySelectorAll(".pvs-list__paged-list-item"));
	}
	return items.map(item => {
		const a = item.querySelector("a");
		const spans = item.querySelectorAll('span[aria-hidden="true"], span, div');
		const texts = Array.from(spans).map(el => (el.innerText || "").trim()).filter(Boolean);
		return { texts: texts, description: "", href: a ? (a.getAttribute("href") || "") : "" };
	});
})()`

func (s *PersonScraper) experiences(ctx context.Context, baseURL string) []Experience {
	var cards []cardExtract
	expr := fmt.Sprintf(mainExperienceJS, mustJSON(experienceHeadings))
	if err := s.session.Evaluate(ctx, expr, &cards); err != nil {
		s.logger.Warn("Failed to read experience section.", zap.Error(err))
	}

	var out []Experience
	for _, card := range cards {
		if exp := parseMainExperience(card.Texts, card.Description, card.Href); exp != nil {
			out = append(out, *exp)
		}
	}
	if len(out) > 0 {
		return out
	}

	// Fall back to the dedicated detail page.
	if err := s.openDetailPage(ctx, baseURL, "details/experience"); err != nil {
		return nil
	}
	cards = nil
	if err := s.session.Evaluate(ctx, detailItemsJS, &cards); err != nil {
		return nil
	}
	for _, card := range cards {
		if exp := parseDetailExperience(uniqueTexts(card.Texts), card.Href); exp != nil {
			out = append(out, *exp)
		}
	}
	return out
}

const educationTextsJS = `(() => {
	const headings = %s;
	for (const sec of document.querySelectorAll("main section")) {
		const h2 = sec.querySelector("h2");
		if (h2 && headings.includes((h2.innerText || "").trim())) {
			return Array.from(sec.querySelectorAll("p"))
				.map(p => (p.innerText || "").trim()).filter(Boolean);
		}
	}
	return [];
})()`

func (s *PersonScraper) educations(ctx context.Context, baseURL string) []Education {
	var texts []string
	expr := fmt.Sprintf(educationTextsJS, mustJSON(educationHeadings))
	if err := s.session.Evaluate(ctx, expr, &texts); err != nil {
		s.logger.Warn("Failed to read education section.", zap.Error(err))
	}

	var out []Education
	for _, group := range groupEducationTexts(texts) {
		if edu := educationFromGroup(group); edu != nil {
			out = append(out, *edu)
		}
	}
	if len(out) > 0 {
		return out
	}

	if err := s.openDetailPage(ctx, baseURL, "details/education"); err != nil {
		return nil
	}
	var cards []cardExtract
	if err := s.session.Evaluate(ctx, detailItemsJS, &cards); err != nil {
		return nil
	}
	for _, card := range cards {
		if edu := parseDetailEducation(uniqueTexts(card.Texts), card.Href); edu != nil {
			out = append(out, *edu)
		}
	}
	return out
}

const interestTabsJS = `Array.from(document.querySelectorAll('[role="tab"]')).map(t => (t.innerText || "").trim())`

const interestPanelJS = `(() => {
	const panel = document.querySelector('[role="tabpanel"]');
	if (!panel) return [];
	return Array.from(panel.querySelectorAll("li")).map(item => {
		const a = item.querySelector("a");
		const spans = item.querySelectorAll('span[aria-hidden="true"], span, div');
		const texts = Array.from(spans).map(el => (el.innerText || "").trim()).filter(Boolean);
		return { texts: texts, description: "", href: a ? (a.getAttribute("href") || "") : "" };
	});
})()`

func (s *PersonScraper) interests(ctx context.Context, baseURL string) []Interest {
	if err := s.openDetailPage(ctx, baseURL, "details/interests/"); err != nil {
		return nil
	}

	var tabs []string
	if err := s.session.Evaluate(ctx, interestTabsJS, &tabs); err != nil {
		return nil
	}

	var out []Interest
	for i, label := range tabs {
		category := interestCategory(label)
		clickTab := fmt.Sprintf(`(() => {
			const tabs = document.querySelectorAll('[role="tab"]');
			if (tabs[%d]) tabs[%d].click();
		})()`, i, i)
		if err := s.session.Evaluate(ctx, clickTab, nil); err != nil {
			continue
		}
		s.settle(ctx, 800*time.Millisecond)

		var cards []cardExtract
		if err := s.session.Evaluate(ctx, interestPanelJS, &cards); err != nil {
			continue
		}
		for _, card := range cards {
			texts := uniqueTexts(card.Texts)
			if len(texts) == 0 || card.Href == "" {
				continue
			}
			out = append(out, Interest{Name: texts[0], Category: category, LinkedInURL: card.Href})
		}
	}
	return out
}

const emptyDetailPageJS = `document.body && document.body.innerText.includes("Nothing to see for now")`

const accomplishmentItemsJS = `(() => {
	const container = document.querySelector(".pvs-list__container, main ul, main ol");
	if (!container) return [];
	let items = Array.from(container.querySelectorAll(".pvs-list__paged-list-item"));
	if (items.length === 0) items = Array.from(container.querySelectorAll(":scope > li"));
	return items.map(item => {
		const entity = item.querySelector('div[data-view-name="profile-component-entity"]') || item;
		const spans = Array.from(entity.querySelectorAll('span[aria-hidden="true"]'))
			.map(el => (el.innerText || "").trim()).filter(Boolean);
		const cred = item.querySelector('a[href*="credential"], a[href*="verify"]');
		return { texts: spans, description: "", href: cred ? (cred.getAttribute("href") || "") : "" };
	});
})()`

func (s *PersonScraper) accomplishments(ctx context.Context, baseURL string) []Accomplishment {
	var out []Accomplishment
	for _, page := range accomplishmentPages {
		if err := s.openDetailPage(ctx, baseURL, page.path); err != nil {
			continue
		}
		var empty bool
		if err := s.session.Evaluate(ctx, emptyDetailPageJS, &empty); err == nil && empty {
			continue
		}
		var cards []cardExtract
		if err := s.session.Evaluate(ctx, accomplishmentItemsJS, &cards); err != nil {
			continue
		}
		seen := make(map[string]bool)
		for _, card := range cards {
			acc := parseAccomplishment(card.Texts, card.Href, page.category)
			if acc == nil || seen[acc.Title] {
				continue
			}
			seen[acc.Title] = true
			out = append(out, *acc)
		}
	}
	return out
}

// contactBlock carries one heading's links from the contact info overlay.
type contactBlock struct {
	Heading string `json:"heading"`
	Links   []struct {
		Href string `json:"href"`
		Text string `json:"text"`
	} `json:"links"`
	Raw string `json:"raw"`
}

const contactBlocksJS = `(() => {
	const dialog = document.querySelector('dialog, [role="dialog"]');
	if (!dialog) return [];
	return Array.from(dialog.querySelectorAll("h3")).map(h => {
		const container = h.parentElement;
		const links = container
			? Array.from(container.querySelectorAll("a")).map(a => ({
				href: a.getAttribute("href") || "",
				text: (a.innerText || "").trim()
			}))
			: [];
		return {
			heading: (h.innerText || "").trim(),
			links: links,
			raw: container ? (container.innerText || "").trim() : ""
		};
	});
})()`

func (s *PersonScraper) contacts(ctx context.Context, baseURL string) []Contact {
	if err := s.navigate(ctx, joinProfileURL(baseURL, "overlay/contact-info/")); err != nil {
		return nil
	}
	s.settle(ctx, time.Second)

	var blocks []contactBlock
	if err := s.session.Evaluate(ctx, contactBlocksJS, &blocks); err != nil {
		s.logger.Warn("Failed to read contact info overlay.", zap.Error(err))
		return nil
	}

	var out []Contact
	for _, block := range blocks {
		ctype := contactType(strings.ToLower(block.Heading))
		if ctype == "" {
			continue
		}
		for _, link := range block.Links {
			if link.Href == "" || link.Text == "" {
				continue
			}
			switch {
			case ctype == "linkedin":
				out = append(out, Contact{Type: ctype, Value: link.Href})
			case ctype == "email" && strings.Contains(link.Href, "mailto:"):
				out = append(out, Contact{Type: ctype, Value: strings.ReplaceAll(link.Href, "mailto:", "")})
			default:
				out = append(out, Contact{Type: ctype, Value: link.Text})
			}
		}
		if len(block.Links) == 0 && (ctype == "birthday" || ctype == "phone" || ctype == "address") {
			if val := strings.TrimSpace(strings.Replace(block.Raw, block.Heading, "", 1)); val != "" {
				out = append(out, Contact{Type: ctype, Value: val})
			}
		}
	}
	return out
}

// openDetailPage navigates to a profile sub-page and scrolls it out.
func (s *PersonScraper) openDetailPage(ctx context.Context, baseURL, path string) error {
	if err := s.navigate(ctx, joinProfileURL(baseURL, path)); err != nil {
		return err
	}
	s.settle(ctx, 1500*time.Millisecond)
	s.session.ScrollToHalf(ctx)
	s.session.ScrollToBottom(ctx, 500*time.Millisecond, 5)
	return nil
}

// joinProfileURL appends a sub-path to a profile URL, tolerating a missing
// trailing slash.
func joinProfileURL(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + path
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
