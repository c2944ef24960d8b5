package router

import "strings"

// Links builds shareable URLs. Base is the origin plus path the dashboard is
// served from, for example "https://clients.example.com/app/".
type Links struct {
	Base string
}

func (l Links) base() string {
	return strings.TrimSuffix(l.Base, "#")
}

// ClientLink returns the URL of a client's detail view.
func (l Links) ClientLink(id string) string {
	return l.base() + Client(id).Fragment()
}

// BriefingLink returns the URL of a client's public briefing form.
func (l Links) BriefingLink(id string) string {
	return l.base() + Briefing(id).Fragment()
}
