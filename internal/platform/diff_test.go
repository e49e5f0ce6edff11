package platform

import (
	"reflect"
	"testing"

	"github.com/1broseidon/intellidock/internal/dock"
)

func TestDiffClients(t *testing.T) {
	added, removed := DiffClients([]uint32{5, 1, 3}, []uint32{3, 9, 7, 1})
	if !reflect.DeepEqual(added, []uint32{7, 9}) {
		t.Errorf("added = %v", added)
	}
	if !reflect.DeepEqual(removed, []uint32{5}) {
		t.Errorf("removed = %v", removed)
	}

	added, removed = DiffClients(nil, nil)
	if added != nil || removed != nil {
		t.Errorf("empty diff = %v, %v", added, removed)
	}
}

func TestGeometryEvents(t *testing.T) {
	base := Placement{Rect: dock.Rect{X: 10, Y: 10, Width: 100, Height: 100}, Monitor: 0}

	tests := []struct {
		name string
		next Placement
		want []dock.EventKind
	}{
		{"unchanged", base, nil},
		{"moved", Placement{Rect: dock.Rect{X: 20, Y: 10, Width: 100, Height: 100}}, []dock.EventKind{dock.WindowMoved}},
		{"resized", Placement{Rect: dock.Rect{X: 10, Y: 10, Width: 50, Height: 100}}, []dock.EventKind{dock.WindowResized}},
		{
			"moved across monitors",
			Placement{Rect: dock.Rect{X: 2000, Y: 10, Width: 100, Height: 100}, Monitor: 1},
			[]dock.EventKind{dock.WindowMoved, dock.WindowMonitorChanged},
		},
	}
	for _, tt := range tests {
		if got := GeometryEvents(base, tt.next); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStateEvents(t *testing.T) {
	got := StateEvents(4, StateFlags{}, StateFlags{Minimized: true, Attention: true})
	want := []dock.Event{
		{Kind: dock.WindowMinimized, Window: 4, Active: true},
		{Kind: dock.Attention, Window: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if got := StateEvents(4, StateFlags{Attention: true}, StateFlags{Attention: true}); got != nil {
		t.Fatalf("steady attention should not repeat, got %v", got)
	}

	got = StateEvents(4, StateFlags{}, StateFlags{Fullscreen: true})
	if len(got) != 1 || got[0].Kind != dock.WindowResized {
		t.Fatalf("fullscreen change should report a resize, got %v", got)
	}
}

func TestRootPropertyEvent(t *testing.T) {
	tests := map[string]dock.EventKind{
		"_NET_CLIENT_LIST_STACKING": dock.Restacked,
		"_NET_WORKAREA":             dock.WorkareaChanged,
		"_NET_CURRENT_DESKTOP":      dock.WorkspaceChanged,
		"_NET_SHOWING_DESKTOP":      dock.OverviewChanged,
	}
	for name, want := range tests {
		got, ok := RootPropertyEvent(name)
		if !ok || got != want {
			t.Errorf("%s = %v, %v", name, got, ok)
		}
	}
	if _, ok := RootPropertyEvent("_NET_ACTIVE_WINDOW"); ok {
		t.Error("active window changes should not map to an event")
	}
}
