package tui

import "testing"

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"", false},
		{"2.17", false},
		{" 2.31 ", false},
		{"2.31.1", false},
		{"2.", true},
		{"v2.17", true},
		{"2..17", true},
		{"latest", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := validateVersion(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestLinksGlibc(t *testing.T) {
	tests := []struct {
		triple string
		want   bool
	}{
		{"x86_64-unknown-linux-gnu", true},
		{"armv7-unknown-linux-gnueabihf", true},
		{"arm-unknown-linux-gnueabihf", true},
		{"aarch64-unknown-linux-musl", false},
		{"x86_64-pc-windows-gnu", false},
		{"aarch64-apple-darwin", false},
	}

	for _, tt := range tests {
		t.Run(tt.triple, func(t *testing.T) {
			if got := linksGlibc(tt.triple); got != tt.want {
				t.Errorf("linksGlibc(%q) = %v, want %v", tt.triple, got, tt.want)
			}
		})
	}
}

func TestIndexedOptions(t *testing.T) {
	opts := indexedOptions([]string{"a", "b"}, func(s string) string { return s })
	if len(opts) != 2 {
		t.Fatalf("len = %d, want 2", len(opts))
	}
	if opts[1].Key != "b" || opts[1].Value != 1 {
		t.Errorf("opts[1] = %+v", opts[1])
	}
}
