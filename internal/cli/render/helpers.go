package render

import (
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	headerStyle    = color.New(color.Bold, color.FgHiWhite)
	addressStyle   = color.New(color.FgWhite)
	timestampStyle = color.New(color.Faint)
	nameStyle      = color.New(color.FgCyan, color.Bold)
	filterStyle    = color.New(color.FgYellow)
	okStyle        = color.New(color.FgGreen)
	failStyle      = color.New(color.FgRed)
	mutedStyle     = color.New(color.Faint)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon. Only the
// innermost cause of a wrapped error chain is shown, capitalized.
func FormatError(message string) string {
	parts := strings.Split(message, ": ")
	msg := parts[len(parts)-1]

	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}

	return color.New(color.FgRed).Sprintf("❌ %s", msg)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// ActionName title-cases an action for display (deploy -> Deploy)
func ActionName(action models.ActionType) string {
	return cases.Title(language.English).String(string(action))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// newTable returns a borderless table writer in the house style
func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{
		PaddingRight: "   ",
	}
	t.Style().Format.Header = text.FormatDefault
	return t
}

func header(cols ...string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = headerStyle.Sprint(c)
	}
	return row
}
