package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Out receives everything meant for a human. It defaults to stderr so SQL
// written to stdout stays clean.
var Out io.Writer = os.Stderr

// PrintLogo prints the logo
func PrintLogo() {
	fmt.Fprintln(Out, LogoStyle.Render(Logo))
}

// PrintTitle prints a styled title
func PrintTitle(title string) {
	fmt.Fprintln(Out, TitleStyle.Render(title))
}

// PrintSubtitle prints a styled subtitle
func PrintSubtitle(subtitle string) {
	fmt.Fprintln(Out, SubtitleStyle.Render(subtitle))
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Fprintln(Out, SuccessStyle.Render("✓ "+message))
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintln(Out, ErrorStyle.Render("✗ "+message))
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintln(Out, WarningStyle.Render("! "+message))
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Fprintln(Out, InfoStyle.Render(message))
}

// PrintHighlight prints a highlighted message
func PrintHighlight(message string) {
	fmt.Fprintln(Out, HighlightStyle.Render(message))
}

// PrintBox prints content in a styled box
func PrintBox(title string, content string) {
	titleText := HighlightStyle.Render(title)
	contentText := InfoStyle.Render(content)
	boxContent := lipgloss.JoinVertical(lipgloss.Left, titleText, contentText)
	fmt.Fprintln(Out, BoxStyle.Render(boxContent))
}

// DisplayTable prints a styled table with headers and rows. Rows listed in
// muted are rendered dimmed.
func DisplayTable(headers []string, rows [][]string, muted map[int]bool) {
	fmt.Fprint(Out, RenderTable(headers, rows, muted))
}

// RenderTable lays out the table DisplayTable prints
func RenderTable(headers []string, rows [][]string, muted map[int]bool) string {
	// Calculate column widths
	colWidths := make([]int, len(headers))
	for i, header := range headers {
		colWidths[i] = lipgloss.Width(header)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && lipgloss.Width(cell) > colWidths[i] {
				colWidths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder

	headerCells := make([]string, len(headers))
	for i, header := range headers {
		headerCells[i] = TableHeaderStyle.Render(
			lipgloss.PlaceHorizontal(colWidths[i], lipgloss.Left, header),
		)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headerCells...))
	b.WriteString("\n")

	separator := make([]string, len(headers))
	for i, width := range colWidths {
		separator[i] = strings.Repeat("─", width+2) // cell padding
	}
	b.WriteString(HighlightStyle.Render(strings.Join(separator, "")))
	b.WriteString("\n")

	for r, row := range rows {
		style := TableCellStyle
		if muted[r] {
			style = TableMutedCellStyle
		}
		rowCells := make([]string, 0, len(row))
		for i, cell := range row {
			if i < len(colWidths) {
				rowCells = append(rowCells, style.Render(
					lipgloss.PlaceHorizontal(colWidths[i], lipgloss.Left, cell),
				))
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rowCells...))
		b.WriteString("\n")
	}
	return b.String()
}
