package publish

import (
	"bytes"
	"strings"

	"complyview/internal/model"
)

const (
	introText = "This document presents the compliance analysis for the batch manufacturing record (BMR). " +
		"The table below compares the actual values recorded during the manufacturing process against " +
		"the expected values specified in the master BMR."
	footerText = "Generated by complyview"
)

// Report is everything a compliance report shows.
type Report struct {
	Product        string
	Entries        []model.Entry
	StandardParams []model.StandardParam
}

type RenderOptions struct {
	// NonCompliantOnly renders the summary: only entries whose compliance
	// flag is false.
	NonCompliantOnly bool
}

// NonCompliant returns the entries with a false compliance flag. The raw
// flag decides, so an entry shown as "--" is included when its flag is false.
func NonCompliant(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.IsCompliant {
			out = append(out, e)
		}
	}
	return out
}

func RenderMarkdown(r Report, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	product := strings.TrimSpace(r.Product)
	title := "Compliance Report"
	subtitle := "Batch Compliance Report"
	if opt.NonCompliantOnly {
		title = "Compliance Report Summary"
		subtitle = "Batch Compliance Report Summary"
	}
	if product != "" {
		subtitle += " for " + product
	}

	writeLn("# " + title)
	writeLn("")
	writeLn("## " + subtitle)
	writeLn("")

	if len(r.StandardParams) > 0 {
		writeLn("## Standard Parameters")
		writeLn("")
		for _, p := range r.StandardParams {
			writeLn("- " + inline(p.Name) + ": " + inline(p.Value))
		}
		writeLn("")
	}

	writeLn(introText)
	writeLn("")
	writeLn("## Compliance Details")
	writeLn("")
	writeLn("The following table summarizes the compliance status for key parameters:")
	writeLn("")

	entries := r.Entries
	if opt.NonCompliantOnly {
		writeLn("All parameters are complied with except the below:")
		writeLn("")
		entries = NonCompliant(entries)
		if len(entries) == 0 {
			writeLn("No non-compliant parameters found. All parameters are compliant.")
			writeLn("")
		}
	}

	if len(entries) > 0 {
		writeLn("| " + strings.Join(headerTitles(), " | ") + " |")
		writeLn(strings.Repeat("| --- ", model.NumColumns) + "|")
		for _, e := range entries {
			cells := e.Cells()
			for i := range cells {
				cells[i] = cell(cells[i])
			}
			writeLn("| " + strings.Join(cells[:], " | ") + " |")
		}
		writeLn("")
	}

	writeLn("---")
	writeLn("")
	writeLn("_" + footerText + "_")
	return buf.String()
}

func headerTitles() []string {
	out := make([]string, 0, model.NumColumns)
	for _, c := range model.Columns() {
		out = append(out, c.Title())
	}
	return out
}

// cell escapes text for a pipe-table cell.
func cell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\n", "<br>")
	if s == "" {
		return " "
	}
	return s
}

func inline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
