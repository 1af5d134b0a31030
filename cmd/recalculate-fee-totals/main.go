// recalculate-fee-totals reruns the totals reconciler over one
// hostel-period, repairing any derived columns that drifted from the
// ledger rows.
//
// Usage:
//
//	go run ./cmd/recalculate-fee-totals -hostel 1 -year 2026 -month 9 [-carry-forward]
//
// The -carry-forward flag additionally re-derives each row's
// carry_forward_amount from the prior month's balance before
// reconciling.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/workflow"
)

func main() {
	hostel := flag.Int("hostel", 0, "hostel id (required)")
	year := flag.Int("year", 0, "billing year (required)")
	month := flag.Int("month", 0, "billing month 1-12 (required)")
	carryForward := flag.Bool("carry-forward", false, "also repair carry_forward_amount from prior balances")
	flag.Parse()

	if *hostel <= 0 || *year <= 0 || *month <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	logger := config.GetLogger()

	var summary *workflow.MonthRepairSummary
	var err error
	if *carryForward {
		summary, err = workflow.RecalculateCarryForwardForMonth(context.Background(), logger, *hostel, *year, *month)
	} else {
		summary, err = workflow.RecalculateMonthTotals(db, logger, *hostel, *year, *month)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "repair failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
	if len(summary.FailedFeeIds) > 0 {
		os.Exit(1)
	}
}
