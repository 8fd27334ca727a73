package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Started", "Duration", "Rate"}
	rows := [][]string{
		{"09:00", "00:10:00", "70.0%"},
		{"会議", "01:00:00", "100.0%"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Started Duration   Rate" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "09:00   00:10:00  70.0%" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	// Wide runes occupy two cells each.
	if lines[2] != "会議    01:00:00 100.0%" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}
