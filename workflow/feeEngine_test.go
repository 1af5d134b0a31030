package workflow

import (
	"testing"

	"github.com/hosteldesk/hostel_backend/models"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name    string
		balance string
		paid    string
		want    models.FeeStatus
	}{
		{"nothing paid", "5000", "0", models.FeeStatusPending},
		{"partial payment", "2000", "3000", models.FeeStatusPartiallyPaid},
		{"settled exactly", "0", "5000", models.FeeStatusPaid},
		{"settled with no due", "0", "0", models.FeeStatusPaid},
		{"overpaid", "-500", "5500", models.FeeStatusOverpaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveStatus(dec(tc.balance), dec(tc.paid))
			if got != tc.want {
				t.Fatalf("DeriveStatus(%s, %s) = %s; want %s", tc.balance, tc.paid, got, tc.want)
			}
		})
	}
}

func TestComputeTotals(t *testing.T) {
	t.Run("rent plus carry forward", func(t *testing.T) {
		totals := ComputeTotals(dec("5000"), dec("1200"), nil, nil)
		if !totals.TotalDue.Equal(dec("6200")) {
			t.Fatalf("total due = %s; want 6200", totals.TotalDue)
		}
		if !totals.Balance.Equal(dec("6200")) {
			t.Fatalf("balance = %s; want 6200", totals.Balance)
		}
		if totals.Status != models.FeeStatusPending {
			t.Fatalf("status = %s; want Pending", totals.Status)
		}
	})

	t.Run("adjustments move due both ways", func(t *testing.T) {
		adjustments := []decimal.Decimal{dec("300"), dec("-800")}
		totals := ComputeTotals(dec("5000"), dec("0"), adjustments, nil)
		if !totals.AdjustmentsTotal.Equal(dec("-500")) {
			t.Fatalf("adjustments total = %s; want -500", totals.AdjustmentsTotal)
		}
		if !totals.TotalDue.Equal(dec("4500")) {
			t.Fatalf("total due = %s; want 4500", totals.TotalDue)
		}
	})

	t.Run("payments settle the balance", func(t *testing.T) {
		payments := []decimal.Decimal{dec("2000"), dec("3000")}
		totals := ComputeTotals(dec("5000"), dec("0"), nil, payments)
		if !totals.Balance.IsZero() {
			t.Fatalf("balance = %s; want 0", totals.Balance)
		}
		if totals.Status != models.FeeStatusPaid {
			t.Fatalf("status = %s; want Paid", totals.Status)
		}
	})

	t.Run("overpayment goes negative", func(t *testing.T) {
		totals := ComputeTotals(dec("5000"), dec("0"), nil, []decimal.Decimal{dec("5500")})
		if !totals.Balance.Equal(dec("-500")) {
			t.Fatalf("balance = %s; want -500", totals.Balance)
		}
		if totals.Status != models.FeeStatusOverpaid {
			t.Fatalf("status = %s; want Overpaid", totals.Status)
		}
	})
}

func TestCarryForwardFromBalance(t *testing.T) {
	if got := CarryForwardFromBalance(dec("1500"), false); !got.Equal(dec("1500")) {
		t.Fatalf("debt carry = %s; want 1500", got)
	}
	if got := CarryForwardFromBalance(dec("-300"), false); !got.IsZero() {
		t.Fatalf("credit carry with policy off = %s; want 0", got)
	}
	if got := CarryForwardFromBalance(dec("-300"), true); !got.Equal(dec("-300")) {
		t.Fatalf("credit carry with policy on = %s; want -300", got)
	}
	if got := CarryForwardFromBalance(dec("0"), false); !got.IsZero() {
		t.Fatalf("zero balance carry = %s; want 0", got)
	}
}

func TestPlanAllocation(t *testing.T) {
	t.Run("oldest debt first", func(t *testing.T) {
		fees := []OutstandingFee{
			{FeeId: 1, FeeYear: 2026, FeeMonth: 7, Balance: dec("100")},
			{FeeId: 2, FeeYear: 2026, FeeMonth: 8, Balance: dec("200")},
		}
		slices := PlanAllocation(dec("250"), fees)
		if len(slices) != 2 {
			t.Fatalf("got %d slices; want 2", len(slices))
		}
		if slices[0].FeeId != 1 || !slices[0].Amount.Equal(dec("100")) {
			t.Fatalf("first slice = %+v; want fee 1 amount 100", slices[0])
		}
		if slices[1].FeeId != 2 || !slices[1].Amount.Equal(dec("150")) {
			t.Fatalf("second slice = %+v; want fee 2 amount 150", slices[1])
		}
	})

	t.Run("surplus lands on newest fee", func(t *testing.T) {
		fees := []OutstandingFee{
			{FeeId: 1, FeeYear: 2026, FeeMonth: 7, Balance: dec("100")},
			{FeeId: 2, FeeYear: 2026, FeeMonth: 8, Balance: dec("200")},
		}
		slices := PlanAllocation(dec("400"), fees)
		if len(slices) != 2 {
			t.Fatalf("got %d slices; want 2", len(slices))
		}
		if !slices[1].Amount.Equal(dec("300")) {
			t.Fatalf("newest slice = %s; want 300 (200 due + 100 surplus)", slices[1].Amount)
		}
	})

	t.Run("payment stops when money runs out", func(t *testing.T) {
		fees := []OutstandingFee{
			{FeeId: 1, Balance: dec("100")},
			{FeeId: 2, Balance: dec("200")},
			{FeeId: 3, Balance: dec("300")},
		}
		slices := PlanAllocation(dec("100"), fees)
		if len(slices) != 1 {
			t.Fatalf("got %d slices; want 1", len(slices))
		}
		if slices[0].FeeId != 1 {
			t.Fatalf("slice fee = %d; want 1", slices[0].FeeId)
		}
	})

	t.Run("settled middle months are skipped", func(t *testing.T) {
		fees := []OutstandingFee{
			{FeeId: 1, Balance: dec("100")},
			{FeeId: 2, Balance: dec("0")},
			{FeeId: 3, Balance: dec("50")},
		}
		slices := PlanAllocation(dec("150"), fees)
		if len(slices) != 2 {
			t.Fatalf("got %d slices; want 2", len(slices))
		}
		if slices[1].FeeId != 3 || !slices[1].Amount.Equal(dec("50")) {
			t.Fatalf("second slice = %+v; want fee 3 amount 50", slices[1])
		}
	})

	t.Run("all settled pushes everything onto newest", func(t *testing.T) {
		fees := []OutstandingFee{
			{FeeId: 1, Balance: dec("0")},
			{FeeId: 2, Balance: dec("0")},
		}
		slices := PlanAllocation(dec("500"), fees)
		if len(slices) != 1 {
			t.Fatalf("got %d slices; want 1", len(slices))
		}
		if slices[0].FeeId != 2 || !slices[0].Amount.Equal(dec("500")) {
			t.Fatalf("slice = %+v; want fee 2 amount 500", slices[0])
		}
	})

	t.Run("no fees yields no slices", func(t *testing.T) {
		if slices := PlanAllocation(dec("500"), nil); len(slices) != 0 {
			t.Fatalf("got %d slices; want 0", len(slices))
		}
	})
}

func TestPeriodHelpers(t *testing.T) {
	start, end := PeriodBounds(2026, 2)
	if start.Day() != 1 || start.Month() != 2 {
		t.Fatalf("period start = %s; want 2026-02-01", start)
	}
	if end.Day() != 28 {
		t.Fatalf("period end day = %d; want 28", end.Day())
	}

	y, m := PreviousPeriod(2026, 1)
	if y != 2025 || m != 12 {
		t.Fatalf("PreviousPeriod(2026, 1) = %d-%d; want 2025-12", y, m)
	}
	y, m = PreviousPeriod(2026, 7)
	if y != 2026 || m != 6 {
		t.Fatalf("PreviousPeriod(2026, 7) = %d-%d; want 2026-6", y, m)
	}

	if ValidPeriod(2026, 13) || ValidPeriod(2026, 0) || ValidPeriod(1800, 5) {
		t.Fatal("out-of-range periods accepted")
	}
	if !ValidPeriod(2026, 9) {
		t.Fatal("valid period rejected")
	}
}
