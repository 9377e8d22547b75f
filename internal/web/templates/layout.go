// Package templates renders the console screens. Components are written in
// .templ files; run `templ generate` after editing them.
package templates

import (
	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/session"
)

// NavItem is one sidebar link.
type NavItem struct {
	Key   string
	Label string
	Href  string
}

// NavGroup is a titled block of sidebar links.
type NavGroup struct {
	Name  string
	Items []NavItem
}

// Nav is the sidebar and header state.
type Nav struct {
	Groups []NavGroup
	Active string
	User   session.Session
}

// Flash is a one-shot notification shown above the page body.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

// PageData is what every full page needs besides its body.
type PageData struct {
	Title string
	Nav   Nav
	Flash *Flash
}

// NewNav groups the visible resources for the sidebar. The audit log link is
// added when the user may view it.
func NewNav(defs []core.ResourceDefinition, active string, user session.Session) Nav {
	nav := Nav{Active: active, User: user}
	index := make(map[string]int)
	for _, def := range defs {
		i, ok := index[def.Info.Group]
		if !ok {
			i = len(nav.Groups)
			index[def.Info.Group] = i
			nav.Groups = append(nav.Groups, NavGroup{Name: def.Info.Group})
		}
		nav.Groups[i].Items = append(nav.Groups[i].Items, NavItem{
			Key:   def.Info.Key,
			Label: def.Info.Label,
			Href:  "/r/" + def.Info.Key,
		})
	}
	if user.CanView(session.GroupAudit) {
		nav.Groups = append(nav.Groups, NavGroup{
			Name:  session.GroupAudit,
			Items: []NavItem{{Key: "audit-log", Label: "Audit Log", Href: "/audit-log"}},
		})
	}
	return nav
}

func displayName(u session.Session) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func flashKind(kind string) string {
	if kind == "error" {
		return "error"
	}
	return "success"
}
