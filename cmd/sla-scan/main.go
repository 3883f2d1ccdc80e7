// sla-scan prints every application that is overdue or approaching its
// SLA budget, overdue first. Intended for cron or an ops terminal.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/sla-scan
//   go run ./cmd/sla-scan --xlsx=/tmp/sla.xlsx
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models/reports"
)

func main() {
	xlsxPath := flag.String("xlsx", "", "Also write the report as a workbook to this path")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	entries, err := reports.GetSLAReport(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sla report failed: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("all applications on track")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "APPLICATION\tSTATUS\tELAPSED\tBUDGET\tURGENCY")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
				e.ApplicationNumber, e.Status, e.ElapsedDays, e.BudgetDays, e.Urgency)
		}
		w.Flush()
	}

	if *xlsxPath != "" {
		f, err := reports.ExportSLAExcel(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "excel export failed: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := f.SaveAs(*xlsxPath); err != nil {
			fmt.Fprintf(os.Stderr, "excel save failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *xlsxPath)
	}
}
