package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// stdout is where every command writes its result
var stdout io.Writer = os.Stdout

// Table renders data as a formatted table.
type Table struct {
	headers []string
	rows    [][]string
	writer  io.Writer
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		writer:  stdout,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cols ...string) {
	t.rows = append(t.rows, cols)
}

// Render writes the table.
func (t *Table) Render() {
	w := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

	// Header
	fmt.Fprintln(w, strings.Join(t.headers, "\t"))

	// Separator
	sep := make([]string, len(t.headers))
	for i, h := range t.headers {
		sep[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(sep, "\t"))

	// Rows
	for _, row := range t.rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
}

// printOutput prints data as json or yaml, or calls table for the table format.
func printOutput(data interface{}, table func()) error {
	switch getOutputFormat() {
	case "json":
		return printJSON(data)
	case "yaml":
		return printYAML(data)
	case "table", "":
		if table == nil {
			return printJSON(data)
		}
		table()
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use table, json or yaml)", getOutputFormat())
	}
}

func printJSON(data interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printYAML goes through JSON first so field names follow the json tags.
func printYAML(data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return err
	}

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(generic)
}

// printMessage writes a plain confirmation line unless a structured format was asked for.
func printMessage(data interface{}, format string, args ...interface{}) error {
	return printOutput(data, func() {
		fmt.Fprintf(stdout, format+"\n", args...)
	})
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// formatStatus returns a status string with visual indicator.
func formatStatus(status string) string {
	switch strings.ToLower(status) {
	case "active", "approved", "accepted", "closed":
		return "[+] " + status
	case "rejected", "expired", "cancelled":
		return "[-] " + status
	case "pending", "awaiting_approval", "in_negotiation":
		return "[*] " + status
	default:
		return status
	}
}

func formatMoney(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}

func formatPrice(v float64) string {
	return formatMoney(decimal.NewFromFloat(v))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}
