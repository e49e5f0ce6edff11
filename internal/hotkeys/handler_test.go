package hotkeys

import (
	"reflect"
	"testing"
)

func TestIgnoreMasks(t *testing.T) {
	tests := []struct {
		name  string
		locks []uint16
		want  []uint16
	}{
		{"caps only", []uint16{2, 0, 0}, []uint16{0, 2}},
		{"caps and numlock", []uint16{2, 16, 0}, []uint16{0, 2, 16, 18}},
		{"all three", []uint16{2, 16, 128}, []uint16{0, 2, 16, 18, 128, 130, 144, 146}},
		{"duplicate numlock", []uint16{2, 2, 16}, []uint16{0, 2, 16, 18}},
		{"none", nil, []uint16{0}},
	}
	for _, tt := range tests {
		if got := IgnoreMasks(tt.locks...); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: IgnoreMasks = %v, want %v", tt.name, got, tt.want)
		}
	}
}
