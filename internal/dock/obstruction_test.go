package dock

import "testing"

var fullHD = Monitor{Index: 0, X: 0, Y: 0, Width: 1920, Height: 1080}

func bottomDock() Placement {
	return Placement{Position: PositionBottom, Thickness: 68, Length: 200}
}

func win(r Rect) WindowSnapshot {
	return WindowSnapshot{ID: 1, Rect: r, MonitorIndex: 0, OnCurrentWorkspace: true}
}

func TestPlacementRect(t *testing.T) {
	tests := []struct {
		name string
		p    Placement
		mon  Monitor
		want Rect
	}{
		{
			name: "bottom centred",
			p:    bottomDock(),
			mon:  fullHD,
			want: Rect{X: 860, Y: 1012, Width: 200, Height: 68},
		},
		{
			name: "bottom with margin",
			p:    Placement{Position: PositionBottom, Thickness: 68, Length: 200, Margin: 8},
			mon:  fullHD,
			want: Rect{X: 860, Y: 1004, Width: 200, Height: 68},
		},
		{
			name: "top",
			p:    Placement{Position: PositionTop, Thickness: 40, Length: 400, Margin: 4},
			mon:  fullHD,
			want: Rect{X: 760, Y: 4, Width: 400, Height: 40},
		},
		{
			name: "left",
			p:    Placement{Position: PositionLeft, Thickness: 60, Length: 300},
			mon:  fullHD,
			want: Rect{X: 0, Y: 390, Width: 60, Height: 300},
		},
		{
			name: "right on second monitor",
			p:    Placement{Position: PositionRight, Thickness: 60, Length: 300, Margin: 2},
			mon:  Monitor{Index: 1, X: 1920, Y: 0, Width: 1280, Height: 1024},
			want: Rect{X: 3138, Y: 362, Width: 60, Height: 300},
		},
		{
			name: "panel mode spans monitor",
			p:    Placement{Position: PositionBottom, Thickness: 32, Length: 200, PanelMode: true},
			mon:  fullHD,
			want: Rect{X: 0, Y: 1048, Width: 1920, Height: 32},
		},
		{
			name: "vertical panel mode",
			p:    Placement{Position: PositionLeft, Thickness: 32, PanelMode: true},
			mon:  fullHD,
			want: Rect{X: 0, Y: 0, Width: 32, Height: 1080},
		},
		{
			name: "non-positive sizes fall back",
			p:    Placement{Position: PositionBottom, Thickness: 0, Length: -5, Fallback: 72},
			mon:  fullHD,
			want: Rect{X: 924, Y: 1008, Width: 72, Height: 72},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.p.Rect(tt.mon)
			if got != tt.want {
				t.Fatalf("Rect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlacementRectWithoutFallbackNeverDegenerates(t *testing.T) {
	got := Placement{Position: PositionBottom}.Rect(fullHD)
	if got.Empty() {
		t.Fatalf("expected synthetic non-empty rect, got %+v", got)
	}
}

func TestObstructed(t *testing.T) {
	tests := []struct {
		name     string
		windows  []WindowSnapshot
		overview bool
		want     bool
	}{
		{
			name:    "overlapping window",
			windows: []WindowSnapshot{win(Rect{X: 800, Y: 900, Width: 400, Height: 150})},
			want:    true,
		},
		{
			name:    "no windows",
			windows: nil,
			want:    false,
		},
		{
			name:    "window above dock",
			windows: []WindowSnapshot{win(Rect{X: 0, Y: 0, Width: 1920, Height: 1000})},
			want:    false,
		},
		{
			name:    "edge touching is not overlap",
			windows: []WindowSnapshot{win(Rect{X: 0, Y: 0, Width: 1920, Height: 1012})},
			want:    false,
		},
		{
			name:    "one pixel overlap",
			windows: []WindowSnapshot{win(Rect{X: 0, Y: 0, Width: 1920, Height: 1013})},
			want:    true,
		},
		{
			name:    "horizontal edge touch",
			windows: []WindowSnapshot{win(Rect{X: 1060, Y: 1000, Width: 200, Height: 80})},
			want:    false,
		},
		{
			name: "minimized window ignored",
			windows: []WindowSnapshot{{
				Rect: Rect{X: 800, Y: 900, Width: 400, Height: 150}, OnCurrentWorkspace: true, Minimized: true,
			}},
			want: false,
		},
		{
			name: "other workspace ignored",
			windows: []WindowSnapshot{{
				Rect: Rect{X: 800, Y: 900, Width: 400, Height: 150}, OnCurrentWorkspace: false,
			}},
			want: false,
		},
		{
			name: "other monitor ignored",
			windows: []WindowSnapshot{{
				Rect: Rect{X: 800, Y: 900, Width: 400, Height: 150}, MonitorIndex: 1, OnCurrentWorkspace: true,
			}},
			want: false,
		},
		{
			name:     "overview forces unobstructed",
			windows:  []WindowSnapshot{win(Rect{X: 800, Y: 900, Width: 400, Height: 150})},
			overview: true,
			want:     false,
		},
		{
			name: "second window obstructs",
			windows: []WindowSnapshot{
				win(Rect{X: 0, Y: 0, Width: 100, Height: 100}),
				win(Rect{X: 900, Y: 1050, Width: 10, Height: 10}),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Obstructed(bottomDock(), fullHD, tt.windows, tt.overview)
			if got != tt.want {
				t.Fatalf("Obstructed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFirstObstructionReturnsFirstHit(t *testing.T) {
	windows := []WindowSnapshot{
		{ID: 7, Rect: Rect{X: 850, Y: 1000, Width: 50, Height: 50}, OnCurrentWorkspace: true},
		{ID: 8, Rect: Rect{X: 900, Y: 1000, Width: 50, Height: 50}, OnCurrentWorkspace: true},
	}
	got, ok := FirstObstruction(bottomDock(), fullHD, windows, false)
	if !ok {
		t.Fatal("expected an obstruction")
	}
	if got.ID != 7 {
		t.Fatalf("expected window 7, got %d", got.ID)
	}
}

func TestHiddenOffset(t *testing.T) {
	tests := []struct {
		pos    Position
		dx, dy int
	}{
		{PositionBottom, 0, 68},
		{PositionTop, 0, -68},
		{PositionLeft, -68, 0},
		{PositionRight, 68, 0},
	}
	for _, tt := range tests {
		p := Placement{Position: tt.pos, Thickness: 68}
		dx, dy := p.HiddenOffset()
		if dx != tt.dx || dy != tt.dy {
			t.Errorf("%s: HiddenOffset() = (%d, %d), want (%d, %d)", tt.pos, dx, dy, tt.dx, tt.dy)
		}
	}
}
