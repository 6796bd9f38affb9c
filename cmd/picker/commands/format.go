package commands

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/internal/snapshot"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a boxed command header
func PrintHeader(title string, lines ...string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	if len(lines) > 0 {
		PrintSeparator()
		for _, l := range lines {
			fmt.Printf("  %s\n", l)
		}
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
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintTable prints rows under header with columns padded by display width.
// CJK characters count as two cells.
func PrintTable(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = displayWidth(h)
	}
	for _, row := range rows {
		for i, v := range row {
			if i < len(widths) && displayWidth(v) > widths[i] {
				widths[i] = displayWidth(v)
			}
		}
	}

	printRow(header, widths)
	total := 0
	for i, w := range widths {
		total += w
		if i < len(widths)-1 {
			total += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", total))
	for _, row := range rows {
		printRow(row, widths)
	}
}

func printRow(values []string, widths []int) {
	var b strings.Builder
	for i, v := range values {
		if i >= len(widths) {
			break
		}
		b.WriteString(v)
		if i < len(values)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-displayWidth(v)+2))
		}
	}
	fmt.Println(b.String())
}

func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r >= 0x1100 && utf8.RuneLen(r) >= 3 {
			w += 2
		} else {
			w++
		}
	}
	return w
}

// PrintSelection prints the picks under the display columns
func PrintSelection(picks []contracts.ScoredRecord, priceField contracts.Field) {
	records := make([]contracts.SecurityRecord, len(picks))
	for i := range picks {
		records[i] = picks[i].SecurityRecord
	}
	header, rows := snapshot.Columns(records, priceField)

	header = append([]string{"#"}, header...)
	header = append(header, "score")
	for i := range rows {
		row := append([]string{fmt.Sprintf("%d", picks[i].Rank)}, rows[i]...)
		rows[i] = append(row, fmt.Sprintf("%.3f", picks[i].CompositeScore))
	}
	PrintTable(header, rows)
}

// PrintEnriched prints the AI-enriched ranking
func PrintEnriched(enriched []contracts.EnrichedRecord) {
	header := []string{"#", "代码", "名称", "final", "ai", "rec", "analysis"}
	rows := make([][]string, len(enriched))
	for i, e := range enriched {
		rows[i] = []string{
			fmt.Sprintf("%d", e.FinalRank),
			e.Code,
			e.Name,
			fmt.Sprintf("%.1f", e.FinalScore),
			fmt.Sprintf("%.1f", e.AIScore),
			string(e.Recommendation),
			truncate(e.Analysis, 40),
		}
	}
	PrintTable(header, rows)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
