package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/schedule"
)

// Styles for CLI output.
var (
	// Colors
	colorPrimary = lipgloss.Color("#0EA5E9") // Sky blue
	colorAccent  = lipgloss.Color("#10B981") // Green
	colorMuted   = lipgloss.Color("#6B7280") // Gray
	colorWarning = lipgloss.Color("#F59E0B") // Yellow
	colorError   = lipgloss.Color("#EF4444") // Red

	// Styles
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorAccent)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)

	styleMedicine = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleTime = lipgloss.NewStyle().
			Foreground(colorAccent)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	if c.IsColorEnabled() {
		c.Println(styleTitle.Render(text))
	} else {
		c.Println(text)
	}
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	if c.IsColorEnabled() {
		c.Println(styleSuccess.Render("✓ " + text))
	} else {
		c.Println("✓ " + text)
	}
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	if c.IsColorEnabled() {
		c.Println(styleWarning.Render("⚠ " + text))
	} else {
		c.Println("⚠ " + text)
	}
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	if c.IsColorEnabled() {
		c.Println(styleError.Render("✗ " + text))
	} else {
		c.Println("✗ " + text)
	}
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	if c.IsColorEnabled() {
		c.Println(styleMuted.Render(text))
	} else {
		c.Println(text)
	}
}

// MedicineName formats a medicine name.
func (c *CLIFormatter) MedicineName(name string) string {
	if c.IsColorEnabled() {
		return styleMedicine.Render(name)
	}
	return name
}

// ClockTime formats an "HH:MM" dose time.
func (c *CLIFormatter) ClockTime(t string) string {
	if c.IsColorEnabled() {
		return styleTime.Render(t)
	}
	return t
}

// PrintMedicine prints one medicine with its schedule.
func (c *CLIFormatter) PrintMedicine(med *model.Medicine) {
	state := ""
	if !med.Enabled {
		state = "  (disabled)"
	}
	c.Printf("%s  %s%s\n", med.ShortID(), c.MedicineName(med.Name), state)
	if med.Dosage != "" {
		c.Printf("  Dosage: %s\n", med.Dosage)
	}
	c.Printf("  Times: %s\n", c.ClockTime(strings.Join(med.Times, ", ")))
	c.Printf("  Days: %s\n", model.DaysSignature(med.EffectiveDays()))
}

// PrintTriggerGroups prints the alarm schedule as the evaluator sees it.
func (c *CLIFormatter) PrintTriggerGroups(groups []*schedule.TriggerGroup) {
	if len(groups) == 0 {
		c.Muted("No alarms scheduled.")
		c.Muted("Use 'pilltick medicine add' to register a medicine.")
		return
	}

	rows := make([]TableRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, TableRow{Columns: []string{
			g.Time,
			model.DaysSignature(g.Days),
			strings.Join(g.MedicineNames, ", "),
		}})
	}
	c.PrintTable([]string{"TIME", "DAYS", "MEDICINES"}, rows)
}

// PrintDoseLogs prints taken doses.
func (c *CLIFormatter) PrintDoseLogs(entries []*model.DoseLog) {
	if len(entries) == 0 {
		c.Muted("No doses recorded.")
		return
	}

	rows := make([]TableRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, TableRow{Columns: []string{
			FormatTimeShort(e.TakenAt),
			e.ScheduledTime,
			e.MedicineName,
		}})
	}
	c.PrintTable([]string{"TAKEN AT", "SCHEDULED", "MEDICINE"}, rows)
}

// TableRow is one row of a simple table.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple table.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && len(col) > widths[i] {
				widths[i] = len(col)
			}
		}
	}

	var headerLine strings.Builder
	for i, h := range headers {
		headerLine.WriteString(fmt.Sprintf("%-*s  ", widths[i], h))
	}
	if c.IsColorEnabled() {
		c.Println(styleBold.Render(headerLine.String()))
	} else {
		c.Println(headerLine.String())
	}

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(sep.String())

	for _, row := range rows {
		var rowLine strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				rowLine.WriteString(fmt.Sprintf("%-*s  ", widths[i], col))
			}
		}
		c.Println(rowLine.String())
	}
}
