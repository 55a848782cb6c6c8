package version

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		name                   string
		version, commit, built string
		want                   string
	}{
		{"full build", "1.2.0", "0123456789abcdef", "2025-02-10T09:00:00Z", "remedy 1.2.0 (commit: 0123456, built: 2025-02-10T09:00:00Z)"},
		{"short commit kept", "dev", "abc", "", "remedy dev (commit: abc, built: unknown)"},
		{"nothing stamped", "dev", "", "", "remedy dev (commit: unknown, built: unknown)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := format(tt.version, tt.commit, tt.built); got != tt.want {
				t.Errorf("format() = %q, want %q", got, tt.want)
			}
		})
	}
}
