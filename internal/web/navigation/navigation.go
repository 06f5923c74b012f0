// Package navigation provides utilities for managing navigation state and breadcrumbs.
package navigation

// Sections of the console menu.
const (
	SectionDashboard = "dashboard"
	SectionDirectory = "directory"
	SectionConfig    = "config"
	SectionSettings  = "settings"
)

// MenuItem is a single entry of the side menu.
type MenuItem struct {
	Title   string
	URL     string
	Section string
	Page    string
}

// Menu is the side menu of the console in display order.
var Menu = []MenuItem{
	{Title: "Dashboard", URL: "/dashboard", Section: SectionDashboard, Page: "dashboard"},
	{Title: "Directory", URL: "/directory", Section: SectionDirectory, Page: "browser"},
	{Title: "CSV import", URL: "/config/import", Section: SectionConfig, Page: "import"},
	{Title: "Attribute mappings", URL: "/config/mappings", Section: SectionConfig, Page: "mappings"},
	{Title: "Teams", URL: "/config/teams", Section: SectionConfig, Page: "teams"},
	{Title: "API server", URL: "/settings/api", Section: SectionSettings, Page: "api"},
}

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	PageTitle     string
	Menu          []MenuItem
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
		Menu:          Menu,
	}
}

// New creates a navigation context whose breadcrumbs start at the dashboard.
func New(pageTitle, activeSection, activePage string) *Context {
	c := NewContext(pageTitle, activeSection, activePage)
	if activeSection == SectionDashboard {
		return c.AddBreadcrumb("Dashboard", "/dashboard", true)
	}

	return c.AddBreadcrumb("Dashboard", "/dashboard", false).AddBreadcrumb(pageTitle, "", true)
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}
