package model

import "testing"

func TestParseColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   Column
		wantOK bool
	}{
		{in: "parameter", want: ColParameter, wantOK: true},
		{in: "Actual_Value", want: ColActualValue, wantOK: true},
		{in: "expected-value", want: ColExpectedValue, wantOK: true},
		{in: " is_compliant ", want: ColIsCompliant, wantOK: true},
		{in: "5", want: ColExplanation, wantOK: true},
		{in: "1", want: ColParameter, wantOK: true},
		{in: "0", wantOK: false},
		{in: "6", wantOK: false},
		{in: "", wantOK: false},
		{in: "status", wantOK: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseColumn(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseColumn(%q) ok=%v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseColumn(%q)=%v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	if got := DeriveStatus("65", true); got != StatusYes {
		t.Fatalf("expected Yes, got %q", got)
	}
	if got := DeriveStatus("65", false); got != StatusNo {
		t.Fatalf("expected No, got %q", got)
	}
	// Unknown expected value wins over the flag.
	if got := DeriveStatus("  Non Stated ", true); got != StatusNA {
		t.Fatalf("expected --, got %q", got)
	}
}

func TestEntryCells_ColumnOrder(t *testing.T) {
	t.Parallel()

	e := Entry{Parameter: "Temp", ActualValue: "70", ExpectedValue: "65", IsCompliant: false, Explanation: "high"}
	got := e.Cells()
	want := [NumColumns]string{"Temp", "70", "65", "No", "high"}
	if got != want {
		t.Fatalf("Cells()=%v, want %v", got, want)
	}
	for i, c := range Columns() {
		if int(c) != i {
			t.Fatalf("Columns()[%d]=%d", i, c)
		}
		if c.Key() == "" || c.Title() == "" {
			t.Fatalf("column %d missing key/title", i)
		}
	}
}
