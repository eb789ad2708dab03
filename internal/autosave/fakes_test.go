package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/debemdeboas/inkpot/internal/clock"
	"github.com/debemdeboas/inkpot/internal/model"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type gatewayCall struct {
	op     string
	id     model.BlogID
	fields model.BlogFields
	at     time.Time
}

// fakeGateway records calls. When hold is set, each call signals started and
// waits for release before returning.
type fakeGateway struct {
	clock *clock.Fake

	mu     sync.Mutex
	calls  []gatewayCall
	nextID int
	err    error
	hold   bool

	started chan struct{}
	release chan struct{}
}

func newFakeGateway(c *clock.Fake) *fakeGateway {
	return &fakeGateway{
		clock:   c,
		started: make(chan struct{}, 8),
		release: make(chan struct{}, 8),
	}
}

func (g *fakeGateway) Create(ctx context.Context, f model.BlogFields) (*model.Blog, error) {
	return g.do("create", "", f)
}

func (g *fakeGateway) Update(ctx context.Context, id model.BlogID, f model.BlogFields) (*model.Blog, error) {
	return g.do("update", id, f)
}

func (g *fakeGateway) do(op string, id model.BlogID, f model.BlogFields) (*model.Blog, error) {
	g.mu.Lock()
	g.calls = append(g.calls, gatewayCall{op: op, id: id, fields: f, at: g.clock.Now()})
	err := g.err
	hold := g.hold
	if id == "" {
		g.nextID++
		id = model.BlogID(fmt.Sprintf("blog-%d", g.nextID))
	}
	g.mu.Unlock()

	if hold {
		g.started <- struct{}{}
		<-g.release
	}
	if err != nil {
		return nil, err
	}
	return model.NewBlog(id, "demo-user-123", f, epoch), nil
}

func (g *fakeGateway) setErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *fakeGateway) setHold(hold bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hold = hold
}

func (g *fakeGateway) Calls() []gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gatewayCall(nil), g.calls...)
}
