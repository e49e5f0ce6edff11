package dock

import "testing"

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    Position
		wantErr bool
	}{
		{"bottom", PositionBottom, false},
		{"Left", PositionLeft, false},
		{" right ", PositionRight, false},
		{"TOP", PositionTop, false},
		{"middle", PositionBottom, true},
		{"", PositionBottom, true},
	}
	for _, tt := range tests {
		got, err := ParsePosition(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParsePosition(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParsePosition(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPositionTextRoundTrip(t *testing.T) {
	for _, p := range []Position{PositionBottom, PositionLeft, PositionRight, PositionTop} {
		text, err := p.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", p, err)
		}
		var got Position
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if got != p {
			t.Fatalf("round trip %v -> %q -> %v", p, text, got)
		}
	}
}

func TestPositionVertical(t *testing.T) {
	if PositionBottom.Vertical() || PositionTop.Vertical() {
		t.Fatal("horizontal positions reported vertical")
	}
	if !PositionLeft.Vertical() || !PositionRight.Vertical() {
		t.Fatal("vertical positions reported horizontal")
	}
}

func TestMonitorIndexFor(t *testing.T) {
	monitors := []Monitor{
		{Index: 0, X: 0, Y: 0, Width: 1920, Height: 1080},
		{Index: 1, X: 1920, Y: 0, Width: 1280, Height: 1024},
	}
	tests := []struct {
		name string
		r    Rect
		want int
	}{
		{"left monitor", Rect{X: 100, Y: 100, Width: 400, Height: 300}, 0},
		{"right monitor", Rect{X: 2000, Y: 100, Width: 400, Height: 300}, 1},
		{"straddling uses centre", Rect{X: 1800, Y: 0, Width: 400, Height: 300}, 1},
		{"off screen", Rect{X: -900, Y: -900, Width: 100, Height: 100}, -1},
	}
	for _, tt := range tests {
		if got := MonitorIndexFor(monitors, tt.r); got != tt.want {
			t.Errorf("%s: MonitorIndexFor() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestThickness(t *testing.T) {
	if got := Thickness(48, 6, 0); got != 72 {
		t.Fatalf("Thickness(48, 6, 0) = %d, want 72", got)
	}
	if got := Thickness(32, 4, 1); got != 54 {
		t.Fatalf("Thickness(32, 4, 1) = %d, want 54", got)
	}
	if got := Thickness(-1, -1, -1); got != ThicknessSlack {
		t.Fatalf("negative inputs = %d, want %d", got, ThicknessSlack)
	}
}
