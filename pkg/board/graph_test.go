package board

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	errs "github.com/matzehuels/boardviz/pkg/errors"
)

// fakeRenderer returns the DOT source as the "image" so tests can inspect
// exactly what would be rendered without running Graphviz.
func fakeRenderer(_ context.Context, dot string) ([]byte, error) {
	return []byte(dot), nil
}

func newReference(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	g, err := New(ReferenceGridSize, ReferenceCoordSize, ReferenceContacts(), opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return g
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		gridSize  int
		coordSize float64
		contacts  map[string]Tile
		wantErr   bool
	}{
		{"reference", 8, 8.0, ReferenceContacts(), false},
		{"empty contacts", 4, 1.0, map[string]Tile{}, false},
		{"nil contacts", 4, 1.0, nil, false},
		{"zero grid", 0, 8.0, nil, true},
		{"negative grid", -1, 8.0, nil, true},
		{"zero coord", 8, 0, nil, true},
		{"bad contact id", 8, 8.0, map[string]Tile{"0 5": {0, 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.gridSize, tt.coordSize, tt.contacts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errs.Is(err, errs.ErrCodeInvalidConfig) {
					t.Errorf("New() error code = %v, want %v", errs.GetCode(err), errs.ErrCodeInvalidConfig)
				}
				return
			}
			if got := len(g.Contacts()); got != len(tt.contacts) {
				t.Errorf("Contacts() = %d, want %d", got, len(tt.contacts))
			}
			if g.EdgeCount() != 0 {
				t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
			}
		})
	}
}

func TestNewComputesPositions(t *testing.T) {
	g, err := New(8, 4.0, map[string]Tile{"08": {7, 6}})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	c, ok := g.Contact("08")
	if !ok {
		t.Fatal("Contact(08) not found")
	}
	if c.Pos != (Point{3.5, 3}) {
		t.Errorf("Pos = %v, want {3.5 3}", c.Pos)
	}
}

func TestContactsSorted(t *testing.T) {
	g := newReference(t)
	ids := make([]string, 0, 24)
	for _, c := range g.Contacts() {
		ids = append(ids, c.ID)
	}
	if !slices.IsSorted(ids) {
		t.Errorf("Contacts() not sorted: %v", ids)
	}
}

func TestAddConnection(t *testing.T) {
	g := newReference(t, WithRenderer(fakeRenderer))

	if err := g.AddConnection(context.Background(), "05", "06"); err != nil {
		t.Fatalf("AddConnection() error: %v", err)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount() = %d, want 1", g.EdgeCount())
	}

	c := g.Connections()[0]
	if !c.Joins("06", "05") {
		t.Errorf("connection = %v, want 05-06", c)
	}
	if c.Style != DefaultStyle {
		t.Errorf("style = %v, want %v", c.Style, DefaultStyle)
	}
	if !strings.Contains(g.DOT(), `"05" -- "06" [color="red", penwidth="5"];`) {
		t.Errorf("DOT() missing edge:\n%s", g.DOT())
	}
}

func TestAddConnectionInvalidContact(t *testing.T) {
	tests := []struct {
		name          string
		first, second string
		wantUnknown   []string
	}{
		{"first unknown", "99", "06", []string{"99"}},
		{"second unknown", "05", "25", []string{"25"}},
		{"both unknown", "98", "99", []string{"98", "99"}},
		{"same unknown twice", "99", "99", []string{"99"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newReference(t, WithRenderer(fakeRenderer))
			notified := 0
			g.Subscribe(func(Update) { notified++ })

			err := g.AddConnection(context.Background(), tt.first, tt.second)
			if !errors.Is(err, ErrInvalidContact) {
				t.Fatalf("AddConnection() error = %v, want ErrInvalidContact", err)
			}
			if !errs.Is(err, errs.ErrCodeInvalidContact) {
				t.Errorf("error code = %v, want %v", errs.GetCode(err), errs.ErrCodeInvalidContact)
			}
			var ice *InvalidContactError
			if !errors.As(err, &ice) {
				t.Fatalf("error type = %T, want *InvalidContactError", err)
			}
			if !slices.Equal(ice.Unknown, tt.wantUnknown) {
				t.Errorf("Unknown = %v, want %v", ice.Unknown, tt.wantUnknown)
			}
			if g.EdgeCount() != 0 {
				t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
			}
			if notified != 0 {
				t.Errorf("subscribers notified %d times, want 0", notified)
			}
		})
	}
}

func TestAddConnectionSelf(t *testing.T) {
	g := newReference(t, WithRenderer(fakeRenderer))
	err := g.AddConnection(context.Background(), "05", "05")
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Fatalf("AddConnection(05, 05) error = %v, want INVALID_INPUT", err)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
}

func TestAddConnectionDuplicate(t *testing.T) {
	g := newReference(t, WithRenderer(fakeRenderer))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := g.AddConnection(ctx, "05", "06"); err != nil {
			t.Fatalf("AddConnection() #%d error: %v", i+1, err)
		}
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	if got := strings.Count(g.DOT(), `"05" -- "06"`); got != 2 {
		t.Errorf("DOT() has %d 05--06 edges, want 2", got)
	}
}

func TestSubscribe(t *testing.T) {
	g := newReference(t, WithRenderer(fakeRenderer))
	ctx := context.Background()

	var order []string
	var updates []Update
	g.Subscribe(func(u Update) {
		order = append(order, "first")
		updates = append(updates, u)
	})
	unsubscribe := g.Subscribe(func(Update) { order = append(order, "second") })

	if err := g.AddConnection(ctx, "01", "02"); err != nil {
		t.Fatalf("AddConnection() error: %v", err)
	}
	if !slices.Equal(order, []string{"first", "second"}) {
		t.Errorf("notification order = %v, want [first second]", order)
	}

	unsubscribe()
	if err := g.AddConnection(ctx, "03", "04"); err != nil {
		t.Fatalf("AddConnection() error: %v", err)
	}
	if !slices.Equal(order, []string{"first", "second", "first"}) {
		t.Errorf("after unsubscribe order = %v", order)
	}

	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if updates[0].Seq != 1 || updates[1].Seq != 2 {
		t.Errorf("Seq = %d, %d, want 1, 2", updates[0].Seq, updates[1].Seq)
	}
	if updates[1].Connection.First != "03" || updates[1].EdgeCount != 2 {
		t.Errorf("second update = %+v", updates[1])
	}
	if !strings.Contains(string(updates[1].SVG), `"01" -- "02"`) {
		t.Error("update image should contain every connection so far")
	}
}

func TestAddConnectionRenderFailure(t *testing.T) {
	renderErr := errors.New("graphviz exploded")
	g := newReference(t, WithRenderer(func(context.Context, string) ([]byte, error) {
		return nil, renderErr
	}))
	notified := false
	g.Subscribe(func(Update) { notified = true })

	err := g.AddConnection(context.Background(), "05", "06")
	if !errs.Is(err, errs.ErrCodeRender) {
		t.Fatalf("AddConnection() error = %v, want RENDER_FAILED", err)
	}
	if !errors.Is(err, renderErr) {
		t.Error("error should wrap the renderer error")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1 (connection kept)", g.EdgeCount())
	}
	if notified {
		t.Error("subscribers should not be notified when rendering fails")
	}
}

func TestConnectionsIsCopy(t *testing.T) {
	g := newReference(t, WithRenderer(fakeRenderer))
	_ = g.AddConnection(context.Background(), "05", "06")

	conns := g.Connections()
	conns[0].First = "99"
	if g.Connections()[0].First != "05" {
		t.Error("Connections() should return a copy")
	}
}

func TestWithStyle(t *testing.T) {
	g := newReference(t, WithRenderer(fakeRenderer), WithStyle(Style{Color: "blue", Width: 2.5}))
	_ = g.AddConnection(context.Background(), "05", "06")
	if !strings.Contains(g.DOT(), `[color="blue", penwidth="2.5"]`) {
		t.Errorf("DOT() missing custom style:\n%s", g.DOT())
	}
}

// The following tests run the real Graphviz renderer.

func TestRenderNoConnections(t *testing.T) {
	g := newReference(t)

	svg, err := g.Render(context.Background())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	s := string(svg)
	if got := strings.Count(s, `class="node"`); got != 24 {
		t.Errorf("Render() nodes = %d, want 24", got)
	}
	if got := strings.Count(s, `class="edge"`); got != 0 {
		t.Errorf("Render() edges = %d, want 0", got)
	}
	if g.EdgeCount() != 0 {
		t.Error("Render() should not mutate the graph")
	}
}

func TestRenderEmptyBoard(t *testing.T) {
	g, err := New(4, 4.0, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := g.Render(context.Background()); err != nil {
		t.Fatalf("Render() of empty board error: %v", err)
	}
}

func TestRenderAfterConnection(t *testing.T) {
	g := newReference(t)
	ctx := context.Background()

	var delivered []byte
	g.Subscribe(func(u Update) { delivered = u.SVG })

	if err := g.AddConnection(ctx, "05", "06"); err != nil {
		t.Fatalf("AddConnection() error: %v", err)
	}
	svg, err := g.Render(ctx)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	s := string(svg)
	if got := strings.Count(s, `class="edge"`); got != 1 {
		t.Errorf("Render() edges = %d, want 1", got)
	}
	if !strings.Contains(s, "<title>05&#45;&#45;06</title>") {
		t.Error("Render() missing edge between 05 and 06")
	}
	if !bytes.Equal(delivered, svg) {
		t.Error("image delivered to subscribers should match Render()")
	}
}

func TestRenderDuplicateConnections(t *testing.T) {
	g := newReference(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := g.AddConnection(ctx, "05", "06"); err != nil {
			t.Fatalf("AddConnection() error: %v", err)
		}
	}
	svg, err := g.Render(ctx)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if got := strings.Count(string(svg), "<title>05&#45;&#45;06</title>"); got != 2 {
		t.Errorf("Render() has %d 05-06 edges, want 2", got)
	}
}

func TestRenderInvalidLeavesImageUnchanged(t *testing.T) {
	g := newReference(t)
	ctx := context.Background()

	before, err := g.Render(ctx)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if err := g.AddConnection(ctx, "99", "06"); err == nil {
		t.Fatal("AddConnection(99, 06) should fail")
	}
	after, err := g.Render(ctx)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("rejected connection changed the image")
	}
}

func TestRenderDeterministic(t *testing.T) {
	pairs := [][2]string{{"05", "06"}, {"01", "24"}, {"12", "13"}, {"05", "06"}}

	build := func() []byte {
		g := newReference(t)
		ctx := context.Background()
		for _, p := range pairs {
			if err := g.AddConnection(ctx, p[0], p[1]); err != nil {
				t.Fatalf("AddConnection(%s, %s) error: %v", p[0], p[1], err)
			}
		}
		svg, err := g.Render(ctx)
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}
		return svg
	}

	first, second := build(), build()
	if !bytes.Equal(first, second) {
		t.Error("identical inputs produced different SVG")
	}
}
