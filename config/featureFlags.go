package config

import (
	"os"
	"strings"
)

// CarryForwardCreditEnabled controls the overpayment carry policy:
// when true, a negative (overpaid) balance carries into the next period
// as credit; when false (default), carry-forward clamps at zero.
//
// Set via env:
// - CARRY_FORWARD_CREDIT=true
func CarryForwardCreditEnabled() bool {
	return envBool(os.Getenv("CARRY_FORWARD_CREDIT"), false)
}

// IncludeMidMonthJoiners controls generation eligibility: when true
// (default), a student who becomes active during the billing month is
// billed for that month; when false, only students active at the period
// start are billed.
//
// Set via env:
// - INCLUDE_MID_MONTH_JOINERS=false
func IncludeMidMonthJoiners() bool {
	return envBool(os.Getenv("INCLUDE_MID_MONTH_JOINERS"), true)
}

func envBool(raw string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
