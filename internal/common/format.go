package common

import (
	"fmt"
	"strings"

	"mcengine-currency-go/internal/models"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// FormatRecord renders one history line, e.g. "pay  alice -> bob  20 gold  (rent)"
func FormatRecord(r models.TransactionRecord) string {
	line := fmt.Sprintf("%-8s %s -> %s  %s %s", r.Kind, r.From, r.To, r.Amount.String(), r.Denomination)
	if r.Note != "" {
		line += fmt.Sprintf("  (%s)", r.Note)
	}
	return r.CreatedAt.Format("2006-01-02 15:04:05") + "  " + line
}

// PrintBalances prints one line per denomination under an account heading
func PrintBalances(accountId string, balances []models.DenominationBalance) {
	fmt.Printf("\nAccount: %s\n", accountId)
	for i, b := range balances {
		fmt.Printf("%s%-10s %s\n", BoxPrefix(i == len(balances)-1), b.Denomination, b.Balance.String())
	}
}
