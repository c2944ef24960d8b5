package dashboard

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/nataliagff23/checklist-clientes/domain"
	"github.com/nataliagff23/checklist-clientes/router"
)

// ErrStale is returned by Session when a newer view was requested while the
// data for the current one was still being fetched. The fetched data has been
// discarded.
var ErrStale = errors.New("view superseded by a newer navigation")

// Screen is the loaded state of one view.
type Screen struct {
	Route router.Route

	// Directory view.
	Listing *Listing

	// Client and briefing views. Client is nil and Invalid is set when the
	// id in the route does not resolve.
	Client    *domain.Client
	Invalid   bool
	Checklist *Checklist
	Briefing  *BriefingEditor
}

// Session drives the three views from URL fragments. Each load carries a
// generation number; results of loads that were overtaken are dropped.
type Session struct {
	store     Store
	events    Publisher
	log       *log.Logger
	directory *Directory
	router    *router.Router

	mu     sync.Mutex
	gen    uint64
	screen Screen
}

// NewSession creates a session positioned at the directory. Call Open with
// the initial fragment to load the first view.
func NewSession(store Store, events Publisher, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Session{
		store:     store,
		events:    events,
		log:       logger,
		directory: NewDirectory(store, events, logger),
		router:    router.New(""),
		screen:    Screen{Route: router.Directory},
	}
}

// Directory returns the client directory used by the session.
func (s *Session) Directory() *Directory { return s.directory }

// Open dispatches a fragment, whether it comes from the initial load or a
// history change, and loads its view.
func (s *Session) Open(ctx context.Context, fragment string) (Screen, error) {
	route := s.router.Dispatch(fragment)
	return s.load(ctx, route)
}

// Navigate moves to route and loads it. It returns the fragment the location
// should show.
func (s *Session) Navigate(ctx context.Context, route router.Route) (string, Screen, error) {
	fragment := s.router.Navigate(route)
	screen, err := s.load(ctx, s.router.Current())
	return fragment, screen, err
}

// Back returns to the directory.
func (s *Session) Back(ctx context.Context) (string, Screen, error) {
	return s.Navigate(ctx, router.Directory)
}

// Current returns the last screen whose load completed.
func (s *Session) Current() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// Route returns the route most recently requested.
func (s *Session) Route() router.Route {
	return s.router.Current()
}

func (s *Session) load(ctx context.Context, route router.Route) (Screen, error) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	screen, err := s.fetch(ctx, route)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.log.WithFields(log.Fields{"route": route.View.String(), "client": route.ClientID}).Debug("discarding stale view")
		return Screen{}, ErrStale
	}
	if err != nil {
		return Screen{}, err
	}
	s.screen = screen
	return screen, nil
}

func (s *Session) fetch(ctx context.Context, route router.Route) (Screen, error) {
	screen := Screen{Route: route}
	if route.View == router.ViewDirectory {
		listing, err := s.directory.List(ctx)
		if err != nil {
			return Screen{}, err
		}
		screen.Listing = &listing
		return screen, nil
	}

	client, err := s.directory.Get(ctx, route.ClientID)
	if errors.Is(err, domain.ErrNotFound) {
		screen.Invalid = true
		return screen, nil
	}
	if err != nil {
		return Screen{}, err
	}
	screen.Client = &client

	switch route.View {
	case router.ViewClient:
		cl := NewChecklist(s.store, s.events, s.log, client.ID)
		if err := cl.Load(ctx); err != nil {
			return Screen{}, err
		}
		screen.Checklist = cl
	case router.ViewBriefing:
		ed := NewBriefingEditor(s.store, s.events, s.log, client.ID)
		if err := ed.Load(ctx); err != nil {
			return Screen{}, err
		}
		screen.Briefing = ed
	}
	return screen, nil
}
