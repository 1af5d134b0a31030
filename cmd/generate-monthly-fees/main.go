// generate-monthly-fees runs fee generation for one billing period from
// the command line, for scheduled jobs or operational reruns.
//
// Usage:
//
//	go run ./cmd/generate-monthly-fees -year 2026 -month 9 [-hostels 1,2,3]
//
// Without -hostels the batch covers every active hostel.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/workflow"
)

func main() {
	now := time.Now()
	year := flag.Int("year", now.Year(), "billing year")
	month := flag.Int("month", int(now.Month()), "billing month (1-12)")
	hostels := flag.String("hostels", "", "comma-separated hostel ids (default: all active)")
	flag.Parse()

	var hostelIds []int
	if *hostels != "" {
		for _, part := range strings.Split(*hostels, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || id <= 0 {
				fmt.Fprintf(os.Stderr, "invalid hostel id %q\n", part)
				os.Exit(2)
			}
			hostelIds = append(hostelIds, id)
		}
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	logger := config.GetLogger()

	outcomes, err := workflow.GenerateMonthlyFees(db, logger, *year, *month, hostelIds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(outcomes, "", "  ")
	fmt.Println(string(out))

	for _, o := range outcomes {
		if o.Error != "" {
			os.Exit(1)
		}
	}
}
