package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD75F"))

	paramStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// renderDebug prints the debug listing as a table, header bytes highlighted.
func renderDebug(p Patch, report DebugReport) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Patch bytes"))
	b.WriteByte('\n')
	b.WriteString(helpStyle.Render(fmt.Sprintf("%d bytes, %d non-zero, transport length %d",
		p.Len(), len(report.Debug), 3*p.Len())))
	b.WriteByte('\n')
	b.WriteString(fmt.Sprintf("%5s  %5s  %-9s  %s\n", "index", "value", "kind", "description"))

	for _, e := range report.Debug {
		kind, style := RoleParameter, paramStyle
		if e.IsHeader() {
			kind, style = RoleHeader, headStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%5d  %5d  %-9s  %s", e.Index, e.Value, kind.String(), e.Description)))
		b.WriteByte('\n')
	}
	return b.String()
}

// describeLayout prints the memory map: header and slot offsets per block and
// the parameter bindings of every type.
func describeLayout(l *Layout) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d bytes, header = 0x%02X | type id when enabled, 0 when disabled\n",
		l.Name(), l.Length(), l.def.EnableMask)
	for _, def := range l.def.Blocks {
		fmt.Fprintf(&b, "\n%s  head @%d  slots %v\n", def.Key, def.Head, def.Slots)
		for _, v := range def.Variants {
			fmt.Fprintf(&b, "  %2d %s\n", v.ID, v.Name)
			for _, p := range v.Params {
				fmt.Fprintf(&b, "       %-12s @%-3d %s\n", p.Name, def.Slots[p.Slot], describeRule(p.Rule))
			}
		}
	}
	return b.String()
}

func describeRule(r Rule) string {
	if r.Kind == RuleEnum {
		return fmt.Sprintf("enum %v", r.Values)
	}
	return fmt.Sprintf("%g..%g%s -> %d..%d", r.Min, r.Max, r.Unit, r.RawMin, r.RawMax)
}
