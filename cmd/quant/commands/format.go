package commands

import (
	"fmt"
	"strings"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// StudyHeader holds what a study printout starts with
type StudyHeader struct {
	Title   string
	StudyID string
	Period  *Period // Optional
	Symbols []string
}

// Period represents a date range
type Period struct {
	StartDate string
	EndDate   string
}

// PrintStudyHeader prints a formatted study header
func PrintStudyHeader(h StudyHeader) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", h.Title)
	PrintSeparator()
	fmt.Printf("  Study     : %s\n", h.StudyID)

	if h.Period != nil {
		fmt.Printf("  Period    : %s ~ %s\n", h.Period.StartDate, h.Period.EndDate)
	}

	if len(h.Symbols) > 0 {
		fmt.Printf("  Symbols   : %s\n", compactList(h.Symbols, 8))
	}

	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// compactList joins items, eliding the middle of long lists
func compactList(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	head := strings.Join(items[:max/2], ", ")
	tail := strings.Join(items[len(items)-max/2:], ", ")
	return fmt.Sprintf("%s, ... (%d more), %s", head, len(items)-max, tail)
}
