package core

import (
	"image/color"
	"testing"
)

func TestColorDefault(t *testing.T) {
	c := ColorDefault
	if !c.IsDefault() {
		t.Error("ColorDefault should be default")
	}
	if c.Equals(ColorBlack) {
		t.Error("default should not equal black")
	}
}

func TestColorFromIndex(t *testing.T) {
	c := ColorFromIndex(42)

	if c.R != 42 {
		t.Errorf("expected index 42, got %d", c.R)
	}
	if !c.Indexed {
		t.Error("indexed color should have Indexed true")
	}
	if c.Equals(ColorFromRGB(42, 0, 0)) {
		t.Error("indexed color should not equal an RGB color")
	}
}

func TestColorFromHex(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b uint8
		wantErr bool
	}{
		{"#FF8040", 255, 128, 64, false},
		{"#ff8040", 255, 128, 64, false},
		{"FF8040", 255, 128, 64, false},
		{"#FFF", 255, 255, 255, false},
		{"#000", 0, 0, 0, false},
		{"invalid", 0, 0, 0, true},
		{"#GGG", 0, 0, 0, true},
		{"#12345", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			c, err := ColorFromHex(tt.hex)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.hex)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.R != tt.r || c.G != tt.g || c.B != tt.b {
				t.Errorf("got %s, want #%02X%02X%02X", c, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestColorFromImage(t *testing.T) {
	tests := []struct {
		name string
		in   color.Color
		want Color
	}{
		{"opaque", color.RGBA{R: 10, G: 20, B: 30, A: 255}, ColorFromRGB(10, 20, 30)},
		{"transparent is white", color.RGBA{}, ColorWhite},
		{"half black", color.RGBA{A: 128}, ColorFromRGB(127, 127, 127)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColorFromImage(tt.in); !got.Equals(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStyleBuilders(t *testing.T) {
	s := DefaultStyle().WithForeground(ColorRed).Bold().Reverse()

	if !s.Foreground.Equals(ColorRed) {
		t.Errorf("foreground = %s", s.Foreground)
	}
	if !s.Background.IsDefault() {
		t.Error("background should stay default")
	}
	if !s.Attributes.Has(AttrBold) || !s.Attributes.Has(AttrReverse) {
		t.Errorf("attributes = %b", s.Attributes)
	}
	if s.Attributes.Has(AttrItalic) {
		t.Error("italic should not be set")
	}
	if s.Equals(DefaultStyle()) {
		t.Error("styled should differ from default")
	}
}

func TestRuneWidth(t *testing.T) {
	tests := []struct {
		r    rune
		want int
	}{
		{'a', 1},
		{'\t', 0},
		{0x7F, 0},
		{'世', 2},
	}
	for _, tt := range tests {
		if got := RuneWidth(tt.r); got != tt.want {
			t.Errorf("RuneWidth(%q) = %d, want %d", tt.r, got, tt.want)
		}
	}
	if got := StringWidth("ab世"); got != 4 {
		t.Errorf("StringWidth = %d, want 4", got)
	}
	if got := Truncate("abcdef", 5, "..."); got != "ab..." {
		t.Errorf("Truncate = %q", got)
	}
}

func TestScreenRect(t *testing.T) {
	r := RectFromSize(2, 3, 10, 20)

	if r.Width() != 20 || r.Height() != 10 {
		t.Errorf("size = %dx%d", r.Width(), r.Height())
	}
	if !r.Contains(ScreenPos{Row: 2, Col: 3}) {
		t.Error("should contain top-left")
	}
	if r.Contains(ScreenPos{Row: 12, Col: 3}) {
		t.Error("bottom is exclusive")
	}
	if !NewScreenRect(5, 5, 5, 10).IsEmpty() {
		t.Error("zero-height rect should be empty")
	}

	got := r.Intersection(NewScreenRect(0, 0, 5, 5))
	if got != NewScreenRect(2, 3, 5, 5) {
		t.Errorf("intersection = %+v", got)
	}
	if !r.Intersection(NewScreenRect(50, 50, 60, 60)).IsEmpty() {
		t.Error("disjoint intersection should be empty")
	}
}

func TestScreenRectSplit(t *testing.T) {
	r := NewScreenRect(0, 0, 10, 40)

	top, rest := r.SplitTop(1)
	if top != NewScreenRect(0, 0, 1, 40) || rest != NewScreenRect(1, 0, 10, 40) {
		t.Errorf("SplitTop = %+v, %+v", top, rest)
	}
	rest, bottom := r.SplitBottom(3)
	if rest != NewScreenRect(0, 0, 7, 40) || bottom != NewScreenRect(7, 0, 10, 40) {
		t.Errorf("SplitBottom = %+v, %+v", rest, bottom)
	}
	left, rest := r.SplitLeft(15)
	if left != NewScreenRect(0, 0, 10, 15) || rest != NewScreenRect(0, 15, 10, 40) {
		t.Errorf("SplitLeft = %+v, %+v", left, rest)
	}
	rest, right := r.SplitRight(100)
	if !rest.IsEmpty() || right != r {
		t.Errorf("SplitRight beyond width = %+v, %+v", rest, right)
	}
}
