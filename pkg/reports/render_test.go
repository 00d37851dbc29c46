package reports

import (
	"strings"
	"testing"
)

const renderTestPrefix = "reports:render_test"

func TestRenderHTML_Table(t *testing.T) {
	tbl := newTable("A", "B")
	tbl.row("x|y", "multi\nline")
	tbl.row("", "z")
	html, err := RenderHTML(tbl.String())
	if err != nil {
		t.Fatalf("%s - RenderHTML failed: %v", renderTestPrefix, err)
	}
	for _, want := range []string{"<table>", "<th>A</th>", "x|y", "multi line", "<td>-</td>"} {
		if !strings.Contains(html, want) {
			t.Errorf("%s - output missing %q:\n%s", renderTestPrefix, want, html)
		}
	}
}

func TestRenderHTML_EscapesHTML(t *testing.T) {
	html, err := RenderHTML("<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("%s - RenderHTML failed: %v", renderTestPrefix, err)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("%s - raw html should not pass through: %s", renderTestPrefix, html)
	}
}

func TestVersionLine(t *testing.T) {
	tests := []struct {
		installed, latest, want string
	}{
		{"1.2.0", "1.3.0", "1.2.0 (update available: 1.3.0)"},
		{"1.3.0", "1.3.0", "1.3.0 (up to date)"},
		{"1.3.0", "", "1.3.0"},
		{"", "1.0.0", "unknown"},
		{"banana", "1.0.0", "banana"},
	}
	for _, tt := range tests {
		if got := VersionLine(tt.installed, tt.latest); got != tt.want {
			t.Errorf("%s - VersionLine(%q, %q) = %q, want %q", renderTestPrefix, tt.installed, tt.latest, got, tt.want)
		}
	}
}

func TestUpdateAvailable_InvalidVersion(t *testing.T) {
	if _, err := UpdateAvailable("1.0.0", "not-a-version"); err == nil {
		t.Errorf("%s - expected error for invalid latest", renderTestPrefix)
	}
}

func TestHumanBytes(t *testing.T) {
	tests := map[uint64]string{0: "0 B", 1536: "1.5 KiB", 1 << 30: "1.0 GiB"}
	for in, want := range tests {
		if got := HumanBytes(in); got != want {
			t.Errorf("%s - HumanBytes(%d) = %q, want %q", renderTestPrefix, in, got, want)
		}
	}
}
