package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/nataliagff23/checklist-clientes/domain"
	"github.com/nataliagff23/checklist-clientes/router"
	"github.com/nataliagff23/checklist-clientes/storage/memory"
)

func TestSessionOpensEachView(t *testing.T) {
	ctx := context.Background()
	store := memory.New(testTemplates)
	s := NewSession(store, nil, quietLogger())
	c, err := s.Directory().Create(ctx, domain.NewClient{BusinessName: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	screen, err := s.Open(ctx, "")
	if err != nil || screen.Listing == nil || len(screen.Listing.Clients) != 1 {
		t.Fatalf("directory: %+v, %v", screen, err)
	}

	screen, err = s.Open(ctx, "#/client/"+c.ID)
	if err != nil || screen.Client == nil || screen.Checklist == nil {
		t.Fatalf("client view: %+v, %v", screen, err)
	}
	if len(screen.Checklist.Tasks()) != len(testTemplates) {
		t.Fatalf("checklist not loaded")
	}

	screen, err = s.Open(ctx, "#/briefing/"+c.ID)
	if err != nil || screen.Briefing == nil || screen.Client.BusinessName != "Acme" {
		t.Fatalf("briefing view: %+v, %v", screen, err)
	}

	screen, err = s.Open(ctx, "#/briefing/missing")
	if err != nil || !screen.Invalid || screen.Route != router.Briefing("missing") {
		t.Fatalf("invalid link: %+v, %v", screen, err)
	}

	screen, err = s.Open(ctx, "#/foo")
	if err != nil || screen.Route != router.Directory {
		t.Fatalf("unknown fragment: %+v, %v", screen, err)
	}
}

func TestSessionNavigateAndBack(t *testing.T) {
	ctx := context.Background()
	store := memory.New(testTemplates)
	s := NewSession(store, nil, quietLogger())
	c, _ := s.Directory().Create(ctx, domain.NewClient{BusinessName: "Acme"})

	frag, screen, err := s.Navigate(ctx, router.Client(c.ID))
	if err != nil || frag != "#/client/"+c.ID || screen.Checklist == nil {
		t.Fatalf("navigate: %q %+v %v", frag, screen, err)
	}
	frag, screen, err = s.Back(ctx)
	if err != nil || frag != "" || screen.Listing == nil {
		t.Fatalf("back: %q %+v %v", frag, screen, err)
	}
}

type gatedStore struct {
	*memory.Store
	started chan struct{}
	release chan struct{}
}

func (g *gatedStore) ListClients(ctx context.Context) ([]domain.Client, error) {
	close(g.started)
	<-g.release
	return g.Store.ListClients(ctx)
}

func TestSessionDiscardsStaleResults(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{Store: memory.New(testTemplates), started: make(chan struct{}), release: make(chan struct{})}
	s := NewSession(store, nil, quietLogger())
	c, err := s.Directory().Create(ctx, domain.NewClient{BusinessName: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	type result struct {
		screen Screen
		err    error
	}
	slow := make(chan result, 1)
	go func() {
		screen, err := s.Open(ctx, "")
		slow <- result{screen, err}
	}()
	<-store.started

	screen, err := s.Open(ctx, "#/client/"+c.ID)
	if err != nil || screen.Client == nil {
		t.Fatalf("client view: %+v, %v", screen, err)
	}

	close(store.release)
	r := <-slow
	if !errors.Is(r.err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", r.err)
	}
	if cur := s.Current(); cur.Route != router.Client(c.ID) || cur.Listing != nil {
		t.Fatalf("stale directory overwrote the client view: %+v", cur)
	}
}
