package router

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		fragment string
		want     Route
	}{
		{fragment: "", want: Directory},
		{fragment: "#", want: Directory},
		{fragment: "#/", want: Directory},
		{fragment: "#/foo", want: Directory},
		{fragment: "#/client/", want: Directory},
		{fragment: "#/client/abc", want: Client("abc")},
		{fragment: "/client/abc", want: Client("abc")},
		{fragment: "#/briefing/xyz", want: Briefing("xyz")},
		{fragment: "#/client/a%2Fb", want: Client("a/b")},
		{fragment: "#/client/a/b", want: Client("a/b")},
	}
	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			if got := Parse(tt.fragment); got != tt.want {
				t.Fatalf("Parse(%q) = %#v, want %#v", tt.fragment, got, tt.want)
			}
		})
	}
}

func TestFragmentRoundTrip(t *testing.T) {
	for _, r := range []Route{Directory, Client("abc"), Briefing("x y")} {
		if got := Parse(r.Fragment()); got != r {
			t.Fatalf("round trip of %#v gave %#v", r, got)
		}
	}
}

func TestRouterDispatchIsUniform(t *testing.T) {
	r := New("#/client/abc")
	if got := r.Current(); got != Client("abc") {
		t.Fatalf("initial route = %#v", got)
	}
	// History navigation into a briefing is handled like the initial load.
	r.Dispatch("#/briefing/abc")
	if got := r.Current(); got != Briefing("abc") {
		t.Fatalf("after dispatch = %#v", got)
	}
	r.Dispatch("")
	if got := r.Current(); got != Directory {
		t.Fatalf("after clear = %#v", got)
	}
}

func TestRouterNavigateAndBack(t *testing.T) {
	r := New("")
	if frag := r.Navigate(Client("c1")); frag != "#/client/c1" {
		t.Fatalf("unexpected fragment: %q", frag)
	}
	if r.Current() != Client("c1") {
		t.Fatalf("navigate did not update state")
	}
	if frag := r.Back(); frag != "" {
		t.Fatalf("back should clear fragment, got %q", frag)
	}
	if r.Current() != Directory {
		t.Fatalf("back did not return to directory")
	}
	if frag := r.Navigate(Route{View: ViewClient}); frag != "" || r.Current() != Directory {
		t.Fatalf("client route without id should fall back to directory")
	}
}

func TestLinks(t *testing.T) {
	l := Links{Base: "https://dash.example.com/app/"}
	if got := l.ClientLink("c1"); got != "https://dash.example.com/app/#/client/c1" {
		t.Fatalf("unexpected client link: %s", got)
	}
	if got := l.BriefingLink("c1"); got != "https://dash.example.com/app/#/briefing/c1" {
		t.Fatalf("unexpected briefing link: %s", got)
	}
}

func TestViewString(t *testing.T) {
	if ViewDirectory.String() != "directory" || ViewClient.String() != "client" || ViewBriefing.String() != "briefing" {
		t.Fatalf("unexpected view names")
	}
}
