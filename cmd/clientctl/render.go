package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nataliagff23/checklist-clientes/dashboard"
	"github.com/nataliagff23/checklist-clientes/domain"
	"github.com/nataliagff23/checklist-clientes/router"
)

const barWidth = 20

var checklistTitles = map[domain.ChecklistType]string{
	domain.ChecklistSetup:      "Technical setup",
	domain.ChecklistOnboarding: "Onboarding",
}

type printer struct {
	w     io.Writer
	title lipgloss.Style
	muted lipgloss.Style
	done  lipgloss.Style
	warn  lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:     w,
		title: r.NewStyle().Bold(true),
		muted: r.NewStyle().Faint(true),
		done:  r.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("#e53935")),
	}
}

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func progressBar(pct int) string {
	filled := pct * barWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled) + fmt.Sprintf("] %3d%%", pct)
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func (p *printer) listing(l dashboard.Listing) {
	if len(l.Clients) == 0 {
		p.line("%s", p.muted.Render("no clients yet"))
		return
	}
	nameWidth := len("CLIENT")
	for _, c := range l.Clients {
		nameWidth = max(nameWidth, lipgloss.Width(c.BusinessName))
	}
	p.line("%s", p.title.Render(fmt.Sprintf("%-36s  %-*s  %-27s  %s", "ID", nameWidth, "CLIENT", "SETUP", "ONBOARDING")))
	for _, c := range l.Clients {
		pr := l.ProgressOf(c.ID)
		p.line("%-36s  %-*s  %s  %s", c.ID, nameWidth, c.BusinessName, progressBar(pr.Setup), progressBar(pr.Onboarding))
	}
}

func (p *printer) checklist(cl *dashboard.Checklist, t domain.ChecklistType) {
	completed, total := cl.Counts(t)
	p.line("%s  %s", p.title.Render(checklistTitles[t]), progressBar(cl.Progress(t)))
	p.line("%s", p.muted.Render(fmt.Sprintf("%d of %d tasks completed", completed, total)))
	for _, s := range cl.Sections(t) {
		p.line("  %s (%d/%d)", s.Name, s.Completed, s.Total)
		for _, task := range s.Tasks {
			box := checkbox(task.IsCompleted)
			if task.IsCompleted {
				box = p.done.Render(box)
			}
			p.line("    %s %s  %s", box, task.TaskName, p.muted.Render(task.ID))
		}
	}
	p.line("")
}

func (p *printer) clientHeader(c domain.Client, links router.Links) {
	p.line("%s", p.title.Render(c.BusinessName))
	for _, kv := range [][2]string{
		{"legal name", c.LegalName},
		{"business manager", c.BusinessManagerID},
		{"admin email", c.AdminEmail},
		{"website", c.Website},
		{"industry", c.Industry},
		{"country", c.Country},
	} {
		if kv[1] != "" {
			p.line("  %-17s %s", kv[0]+":", kv[1])
		}
	}
	p.line("  %-17s %s", "briefing link:", links.BriefingLink(c.ID))
	p.line("")
}

func (p *printer) briefing(c domain.Client, ed *dashboard.BriefingEditor, links router.Links) {
	p.line("%s", p.title.Render("Briefing for "+c.BusinessName))
	if !ed.Persisted() {
		p.line("%s", p.muted.Render("not submitted yet"))
	}
	p.line("%s", p.muted.Render(links.BriefingLink(c.ID)))
	data := ed.Data()
	section := 0
	for _, f := range domain.BriefingFields {
		if !data.Visible(f) {
			continue
		}
		if f.Section != section {
			section = f.Section
			p.line("")
			p.line("%s", p.title.Render(fmt.Sprintf("%d. %s", section, domain.BriefingSections[section-1])))
		}
		v, _ := data.Get(f.Key)
		answer := v.Text
		if f.Kind == domain.FieldMulti {
			answer = strings.Join(v.List, ", ")
		}
		if answer == "" {
			answer = p.muted.Render("-")
		}
		p.line("  %s %s: %s", p.muted.Render(f.Key), f.Label, answer)
	}
}

func (p *printer) screen(s dashboard.Screen, links router.Links) {
	switch {
	case s.Route.View == router.ViewDirectory && s.Listing != nil:
		p.listing(*s.Listing)
	case s.Invalid:
		p.line("%s", p.warn.Render("invalid link: no client "+s.Route.ClientID))
	case s.Route.View == router.ViewClient && s.Client != nil && s.Checklist != nil:
		p.clientHeader(*s.Client, links)
		for _, t := range domain.ChecklistTypes {
			p.checklist(s.Checklist, t)
		}
	case s.Route.View == router.ViewBriefing && s.Client != nil && s.Briefing != nil:
		p.line("Hola, %s", s.Client.BusinessName)
		p.briefing(*s.Client, s.Briefing, links)
	}
}
