package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sisatech/tablewriter"
)

// printTable renders rows as a borderless, left-aligned table unless
// --json was given, in which case it renders asJSON instead.
func printTable(headers []string, rows [][]string, asJSON interface{}) error {
	if flagJSON {
		return printJSON(asJSON)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func warnf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString(format, args...))
}

func logVerbose(format string, args ...interface{}) {
	if flagVerbose {
		fmt.Fprintln(os.Stderr, color.CyanString(format, args...))
	}
}
