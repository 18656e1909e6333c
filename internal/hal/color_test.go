package hal

import "testing"

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#ff8000", Color{R: 255, G: 128}, false},
		{"00FF7f", Color{G: 255, B: 127}, false},
		{" White ", White, false},
		{"orange", Color{R: 255, G: 128}, false},
		{"#fff", Color{}, true},
		{"zzzzzz", Color{}, true},
		{"mauve", Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestColorHex(t *testing.T) {
	if got := (Color{R: 255, G: 8, B: 0}).Hex(); got != "#ff0800" {
		t.Errorf("Hex() = %q", got)
	}
}
