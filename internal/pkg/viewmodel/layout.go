package viewmodel

import "github.com/gofiber/fiber/v2"

// Layout carries what every page template needs besides its own data.
type Layout struct {
	Page          string
	SiteTitle     string
	FromProtected bool
	IsError       bool
	Msg           fiber.Map
	Username      string
	IsAdmin       bool
	CSRF          string
	Year          int
}

// Title joins the page name and the site title the way the header shows it.
func (l Layout) Title() string {
	if l.Page == "" {
		return l.SiteTitle
	}
	return l.Page + " | " + l.SiteTitle
}
