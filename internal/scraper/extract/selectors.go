package extract

import "job-pipeline-go/internal/models"

// SelectorSet holds the candidate selectors for one content shape. Every
// list is ordered from the most to the least specific markup version.
type SelectorSet struct {
	Containers      []string
	Title           Cascade
	Company         Cascade
	Location        Cascade
	URL             Cascade
	Description     Cascade
	EmploymentType  Cascade
	Salary          Cascade
	Benefits        Cascade
	CompanySize     Cascade
	CompanyIndustry Cascade
	CompanyDomain   Cascade
	PostedAt        Cascade
}

// SearchPageSelectors covers the known markup versions of the search results page.
func SearchPageSelectors() SelectorSet {
	return SelectorSet{
		Containers: []string{
			".jobs-search__results-list li",
			".base-card",
			"[data-job-id]",
			".job-result-card",
			".job-search-card",
			".job-card-container",
			".ember-view.jobs-search__result-item",
			".jobs-search-results__list-item",
			"li.job-result-card",
		},
		Title: Texts(
			".base-search-card__title",
			".job-result-card__title",
			".job-search-card__title",
			"h3",
			".job-title",
			"[data-test-job-title]",
		),
		Company: Texts(
			".base-search-card__subtitle",
			".job-result-card__company-name",
			".job-search-card__company-name",
			".company-name",
			"[data-test-company-name]",
			"h4",
		),
		Location: Texts(
			".job-search-card__location",
			".job-result-card__location",
			".job-location",
			".location",
			"[data-test-location]",
		),
		URL: append(Attrs("href",
			"a.base-card__full-link",
			"a.job-result-card__link",
			`a[href*="/jobs/view/"]`,
			`a[href*="/jobs/"]`,
		), SelfAttr("href")),
		Description: Texts(
			".base-search-card__snippet",
			".job-search-card__snippet",
			".job-result-card__snippet",
			".job-description",
			"[data-test-description]",
		),
		EmploymentType: Texts(
			".job-search-card__employment-type",
			".employment-type",
			"[data-test-employment-type]",
		),
		Salary: Texts(
			".job-search-card__salary-info",
			".salary",
			"[data-test-salary]",
		),
		Benefits: Texts(
			".job-search-card__benefits",
			".result-benefits__text",
			".benefits",
		),
		CompanySize: Texts(
			".company-size",
			"[data-test-company-size]",
		),
		CompanyIndustry: Texts(
			".company-industry",
			"[data-test-company-industry]",
		),
		CompanyDomain: Cascade{
			Attr("[data-company-domain]", "data-company-domain"),
			Text(".company-domain"),
		},
		PostedAt: Cascade{
			Attr("time.job-search-card__listdate--new", "datetime"),
			Attr("time.job-search-card__listdate", "datetime"),
			Attr("time", "datetime"),
			SelfAttr("data-posted-at"),
		},
	}
}

// FragmentSelectors covers the progressive-loading API fragment, which
// ships bare cards without the surrounding results list.
func FragmentSelectors() SelectorSet {
	set := SearchPageSelectors()
	set.Containers = []string{
		".base-card",
		".base-search-card",
		"[data-entity-urn]",
		".job-search-card",
		"li",
	}
	return set
}

// DefaultSelectors maps each HTML content shape to its selector set.
func DefaultSelectors() map[models.ContentType]SelectorSet {
	return map[models.ContentType]SelectorSet{
		models.ContentSearchPage: SearchPageSelectors(),
		models.ContentFragment:   FragmentSelectors(),
	}
}
