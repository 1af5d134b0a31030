package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/models"
	"github.com/hosteldesk/hostel_backend/utils"
	"github.com/hosteldesk/hostel_backend/workflow"
	"github.com/shopspring/decimal"
)

// Fee ledger regression harness.
//
// Covers the invariants that must never drift:
// - generation is idempotent per student-period and reruns fill gaps
// - carry-forward chains prior balances across months
// - hostels are isolated inside one batch
// - payments allocate oldest-first and deletion reverses cleanly
// - operator accounts never see another hostel's rows
//
// Usage (requires Docker):
//
//	INTEGRATION_TESTS=1 go test ./models -run FeeLedger -v

func setupIntegrationEnv(t *testing.T) {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "hosteldesk_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.AutoMigrate(config.GetDB()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func adminContext() context.Context {
	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test Admin")
	ctx = utils.SetRoleIdInContext(ctx, models.RoleIdAdmin)
	ctx = utils.SetHostelIdInContext(ctx, 0)
	return ctx
}

func operatorContext(hostelId int) context.Context {
	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 2)
	ctx = utils.SetUserNameInContext(ctx, "Test Operator")
	ctx = utils.SetRoleIdInContext(ctx, models.RoleIdHostelOperator)
	ctx = utils.SetHostelIdInContext(ctx, hostelId)
	return ctx
}

func mustCreateHostel(t *testing.T, ctx context.Context, name string, defaultRent string) *models.Hostel {
	t.Helper()
	hostel, err := models.CreateHostel(ctx, &models.NewHostel{Name: name, DefaultRent: defaultRent})
	if err != nil {
		t.Fatalf("CreateHostel(%s): %v", name, err)
	}
	return hostel
}

func mustCreateStudent(t *testing.T, ctx context.Context, hostelId int, name string, joinDate string) *models.Student {
	t.Helper()
	student, err := models.CreateStudent(ctx, &models.NewStudent{
		HostelId: hostelId,
		Name:     name,
		JoinDate: joinDate,
	})
	if err != nil {
		t.Fatalf("CreateStudent(%s): %v", name, err)
	}
	return student
}

func findOutcome(t *testing.T, outcomes []workflow.GenerationOutcome, hostelId int) workflow.GenerationOutcome {
	t.Helper()
	for _, o := range outcomes {
		if o.HostelId == hostelId {
			return o
		}
	}
	t.Fatalf("no outcome for hostel %d", hostelId)
	return workflow.GenerationOutcome{}
}

func feeForPeriod(t *testing.T, ctx context.Context, studentId int, year int, month int) *models.MonthlyFee {
	t.Helper()
	fees, err := models.ListMonthlyFees(ctx, models.MonthlyFeeFilters{
		StudentId: studentId,
		FeeYear:   year,
		FeeMonth:  month,
	})
	if err != nil {
		t.Fatalf("ListMonthlyFees(student=%d %d-%d): %v", studentId, year, month, err)
	}
	if len(fees) != 1 {
		t.Fatalf("expected 1 fee for student %d in %d-%d; got %d", studentId, year, month, len(fees))
	}
	return fees[0]
}

func TestFeeLedger_GenerationCarryForwardAndIsolation(t *testing.T) {
	setupIntegrationEnv(t)

	ctx := adminContext()
	db := config.GetDB()
	logger := config.GetLogger()

	hostelA := mustCreateHostel(t, ctx, "Hostel A", "5000")
	hostelB := mustCreateHostel(t, ctx, "Hostel B", "4000")
	hostelEmpty := mustCreateHostel(t, ctx, "Hostel Empty", "3000")

	alice := mustCreateStudent(t, ctx, hostelA.ID, "Alice", "2026-06-01")
	bob := mustCreateStudent(t, ctx, hostelA.ID, "Bob", "2026-06-01")
	carol := mustCreateStudent(t, ctx, hostelB.ID, "Carol", "2026-06-15")
	// joins mid July; billed for July under the default joiner policy
	grace := mustCreateStudent(t, ctx, hostelB.ID, "Grace", "2026-07-20")

	// July: first billing period for all three hostels.
	outcomes, err := workflow.GenerateMonthlyFees(db, logger, 2026, 7, nil)
	if err != nil {
		t.Fatalf("GenerateMonthlyFees(July): %v", err)
	}

	julyA := findOutcome(t, outcomes, hostelA.ID)
	if !julyA.Success || julyA.FeesCreated != 2 {
		t.Fatalf("hostel A July outcome = %+v; want success with 2 fees", julyA)
	}
	julyB := findOutcome(t, outcomes, hostelB.ID)
	if !julyB.Success || julyB.FeesCreated != 2 {
		t.Fatalf("hostel B July outcome = %+v; want success with 2 fees", julyB)
	}
	graceJuly := feeForPeriod(t, ctx, grace.ID, 2026, 7)
	if graceJuly.Status != models.FeeStatusPending {
		t.Fatalf("grace July status = %s; want Pending", graceJuly.Status)
	}
	julyEmpty := findOutcome(t, outcomes, hostelEmpty.ID)
	if !julyEmpty.Skipped {
		t.Fatalf("empty hostel outcome = %+v; want skipped", julyEmpty)
	}

	aliceJuly := feeForPeriod(t, ctx, alice.ID, 2026, 7)
	if !aliceJuly.RentAmount.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("alice July rent = %s; want 5000", aliceJuly.RentAmount)
	}
	if !aliceJuly.CarryForwardAmount.IsZero() {
		t.Fatalf("alice July carry forward = %s; want 0 (first month)", aliceJuly.CarryForwardAmount)
	}
	if aliceJuly.Status != models.FeeStatusPending {
		t.Fatalf("alice July status = %s; want Pending", aliceJuly.Status)
	}

	// Rerun must skip, not duplicate.
	outcomes, err = workflow.GenerateMonthlyFees(db, logger, 2026, 7, nil)
	if err != nil {
		t.Fatalf("GenerateMonthlyFees(July rerun): %v", err)
	}
	if rerun := findOutcome(t, outcomes, hostelA.ID); !rerun.Skipped {
		t.Fatalf("July rerun outcome = %+v; want skipped", rerun)
	}
	var julyCount int64
	if err := db.Model(&models.MonthlyFee{}).Where("fee_year = 2026 AND fee_month = 7").Count(&julyCount).Error; err != nil {
		t.Fatalf("count July fees: %v", err)
	}
	if julyCount != 4 {
		t.Fatalf("July fee count after rerun = %d; want 4", julyCount)
	}

	// A student added after the first run is billed by the next rerun
	// instead of being left without a July row forever.
	heidi := mustCreateStudent(t, ctx, hostelA.ID, "Heidi", "2026-07-25")
	outcomes, err = workflow.GenerateMonthlyFees(db, logger, 2026, 7, nil)
	if err != nil {
		t.Fatalf("GenerateMonthlyFees(July refill): %v", err)
	}
	refill := findOutcome(t, outcomes, hostelA.ID)
	if !refill.Success || refill.FeesCreated != 1 {
		t.Fatalf("July refill outcome = %+v; want success with 1 new fee", refill)
	}
	heidiJuly := feeForPeriod(t, ctx, heidi.ID, 2026, 7)
	if heidiJuly.Status != models.FeeStatusPending {
		t.Fatalf("heidi July status = %s; want Pending", heidiJuly.Status)
	}

	// Alice pays 3000 of 5000; Bob pays nothing.
	if _, err := workflow.RecordPayment(ctx, logger, &models.NewFeePayment{
		StudentId:     alice.ID,
		HostelId:      hostelA.ID,
		Amount:        "3000",
		PaymentMode:   "Cash",
		ReceiptNumber: "RCPT-001",
		PaymentDate:   "2026-07-10",
	}); err != nil {
		t.Fatalf("RecordPayment(alice July): %v", err)
	}

	// August: unpaid balances ride forward.
	outcomes, err = workflow.GenerateMonthlyFees(db, logger, 2026, 8, nil)
	if err != nil {
		t.Fatalf("GenerateMonthlyFees(August): %v", err)
	}
	augustA := findOutcome(t, outcomes, hostelA.ID)
	if !augustA.Success || augustA.CarryForwardCount != 3 {
		t.Fatalf("hostel A August outcome = %+v; want 3 carried", augustA)
	}

	aliceAugust := feeForPeriod(t, ctx, alice.ID, 2026, 8)
	if !aliceAugust.CarryForwardAmount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("alice August carry forward = %s; want 2000", aliceAugust.CarryForwardAmount)
	}
	if !aliceAugust.TotalDue.Equal(decimal.NewFromInt(7000)) {
		t.Fatalf("alice August total due = %s; want 7000", aliceAugust.TotalDue)
	}

	bobAugust := feeForPeriod(t, ctx, bob.ID, 2026, 8)
	if !bobAugust.CarryForwardAmount.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("bob August carry forward = %s; want 5000", bobAugust.CarryForwardAmount)
	}

	carolAugust := feeForPeriod(t, ctx, carol.ID, 2026, 8)
	if !carolAugust.CarryForwardAmount.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("carol August carry forward = %s; want 4000 (hostel B rent)", carolAugust.CarryForwardAmount)
	}
}

func TestFeeLedger_PaymentAllocationAndReversal(t *testing.T) {
	setupIntegrationEnv(t)

	ctx := adminContext()
	db := config.GetDB()
	logger := config.GetLogger()

	hostel := mustCreateHostel(t, ctx, "Hostel C", "100")
	student := mustCreateStudent(t, ctx, hostel.ID, "Dave", "2026-06-01")
	neighbour := mustCreateStudent(t, ctx, hostel.ID, "Erin", "2026-06-01")

	for month := 7; month <= 8; month++ {
		if _, err := workflow.GenerateMonthlyFees(db, logger, 2026, month, nil); err != nil {
			t.Fatalf("GenerateMonthlyFees(2026-%d): %v", month, err)
		}
	}

	julyFee := feeForPeriod(t, ctx, student.ID, 2026, 7)
	augustFee := feeForPeriod(t, ctx, student.ID, 2026, 8)
	if !augustFee.TotalDue.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("august due = %s; want 200 (100 rent + 100 carried)", augustFee.TotalDue)
	}

	// 250 settles July's 100, August's 200-due gets 150.
	result, err := workflow.RecordPayment(ctx, logger, &models.NewFeePayment{
		StudentId:     student.ID,
		HostelId:      hostel.ID,
		Amount:        "250",
		PaymentMode:   "UPI",
		ReceiptNumber: "RCPT-100",
		PaymentDate:   "2026-08-05",
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if len(result.Slices) != 2 {
		t.Fatalf("payment slices = %d; want 2", len(result.Slices))
	}
	if result.Slices[0].MonthlyFeeId != julyFee.ID || !result.Slices[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("first slice = %+v; want 100 on July fee", result.Slices[0])
	}

	julyFee = feeForPeriod(t, ctx, student.ID, 2026, 7)
	if julyFee.Status != models.FeeStatusPaid {
		t.Fatalf("july status = %s; want Paid", julyFee.Status)
	}
	augustFee = feeForPeriod(t, ctx, student.ID, 2026, 8)
	if augustFee.Status != models.FeeStatusPartiallyPaid {
		t.Fatalf("august status = %s; want PartiallyPaid", augustFee.Status)
	}
	if !augustFee.Balance.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("august balance = %s; want 50", augustFee.Balance)
	}

	// The receipt number is taken hostel-wide, not just per student.
	if _, err := workflow.RecordPayment(ctx, logger, &models.NewFeePayment{
		StudentId:     neighbour.ID,
		HostelId:      hostel.ID,
		Amount:        "40",
		PaymentMode:   "Cash",
		ReceiptNumber: "RCPT-100",
		PaymentDate:   "2026-08-06",
	}); err == nil {
		t.Fatal("expected receipt reuse by another student to be rejected")
	}

	// Duplicate receipts are rejected within the hostel.
	if _, err := workflow.RecordPayment(ctx, logger, &models.NewFeePayment{
		StudentId:     student.ID,
		HostelId:      hostel.ID,
		Amount:        "10",
		PaymentMode:   "Cash",
		ReceiptNumber: "RCPT-100",
		PaymentDate:   "2026-08-06",
	}); err == nil {
		t.Fatal("expected duplicate receipt to be rejected")
	}

	// Deleting the whole group restores both months.
	if _, err := workflow.DeletePaymentGroup(ctx, logger, result.PaymentGroupId); err != nil {
		t.Fatalf("DeletePaymentGroup: %v", err)
	}
	julyFee = feeForPeriod(t, ctx, student.ID, 2026, 7)
	if julyFee.Status != models.FeeStatusPending || !julyFee.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("july after reversal = %s/%s; want Pending/100", julyFee.Status, julyFee.Balance)
	}
	augustFee = feeForPeriod(t, ctx, student.ID, 2026, 8)
	if !augustFee.Balance.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("august balance after reversal = %s; want 200", augustFee.Balance)
	}

	// Reversing the group frees its receipt number.
	if _, err := workflow.RecordPayment(ctx, logger, &models.NewFeePayment{
		StudentId:     neighbour.ID,
		HostelId:      hostel.ID,
		Amount:        "40",
		PaymentMode:   "Cash",
		ReceiptNumber: "RCPT-100",
		PaymentDate:   "2026-08-07",
	}); err != nil {
		t.Fatalf("RecordPayment(reissued receipt): %v", err)
	}

	// Adjustment waives 50 of August and the reconciler rederives status.
	_, adjusted, err := workflow.AddAdjustment(ctx, logger, augustFee.ID, &models.NewFeeAdjustment{
		Amount: "-50",
		Reason: "maintenance outage waiver",
	})
	if err != nil {
		t.Fatalf("AddAdjustment: %v", err)
	}
	if !adjusted.TotalDue.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("august due after waiver = %s; want 150", adjusted.TotalDue)
	}
}

func TestFeeLedger_OperatorScoping(t *testing.T) {
	setupIntegrationEnv(t)

	admin := adminContext()
	db := config.GetDB()
	logger := config.GetLogger()

	hostelA := mustCreateHostel(t, admin, "Hostel D", "1000")
	hostelB := mustCreateHostel(t, admin, "Hostel E", "1000")
	studentA := mustCreateStudent(t, admin, hostelA.ID, "Eve", "2026-06-01")
	mustCreateStudent(t, admin, hostelB.ID, "Frank", "2026-06-01")

	if _, err := workflow.GenerateMonthlyFees(db, logger, 2026, 7, nil); err != nil {
		t.Fatalf("GenerateMonthlyFees: %v", err)
	}

	operator := operatorContext(hostelB.ID)

	// Foreign student is invisible, not merely forbidden.
	if _, err := models.GetStudent(operator, studentA.ID); !models.IsNotFound(err) {
		t.Fatalf("GetStudent across hostels = %v; want not found", err)
	}

	// Requesting another hostel's fees is an authorization error.
	if _, err := models.ListMonthlyFees(operator, models.MonthlyFeeFilters{HostelId: hostelA.ID}); !models.IsAuthorization(err) {
		t.Fatalf("ListMonthlyFees across hostels = %v; want authorization error", err)
	}

	// Unscoped list silently narrows to the operator's hostel.
	fees, err := models.ListMonthlyFees(operator, models.MonthlyFeeFilters{})
	if err != nil {
		t.Fatalf("ListMonthlyFees(operator): %v", err)
	}
	for _, fee := range fees {
		if fee.HostelId != hostelB.ID {
			t.Fatalf("operator saw fee for hostel %d", fee.HostelId)
		}
	}

	// Asking to generate fees for a foreign hostel is rejected, not
	// silently narrowed to the operator's own hostel.
	if _, err := models.ResolveHostelScopeList(operator, []int{hostelA.ID}); !models.IsAuthorization(err) {
		t.Fatalf("ResolveHostelScopeList across hostels = %v; want authorization error", err)
	}

	// Payments cannot cross the boundary either.
	if _, err := workflow.RecordPayment(operator, logger, &models.NewFeePayment{
		StudentId:     studentA.ID,
		Amount:        "100",
		PaymentMode:   "Cash",
		ReceiptNumber: "RCPT-X",
		PaymentDate:   "2026-07-10",
	}); err == nil {
		t.Fatal("expected cross-hostel payment to fail")
	}
}

func TestFeeLedger_BatchIsolationAcrossHostels(t *testing.T) {
	setupIntegrationEnv(t)

	ctx := adminContext()
	db := config.GetDB()
	logger := config.GetLogger()

	healthy := mustCreateHostel(t, ctx, "Hostel Healthy", "2000")
	broken := mustCreateHostel(t, ctx, "Hostel Broken", "2000")
	okStudent := mustCreateStudent(t, ctx, healthy.ID, "Ivan", "2026-06-01")
	badStudent := mustCreateStudent(t, ctx, broken.ID, "Judy", "2026-06-01")

	// Make every fee insert for the broken hostel blow up, standing in
	// for a malformed student record.
	triggerSQL := fmt.Sprintf(`CREATE TRIGGER reject_broken_hostel_fees BEFORE INSERT ON monthly_fees FOR EACH ROW
BEGIN
	IF NEW.hostel_id = %d THEN
		SIGNAL SQLSTATE '45000' SET MESSAGE_TEXT = 'corrupted student roster';
	END IF;
END`, broken.ID)
	if err := db.Exec(triggerSQL).Error; err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	outcomes, err := workflow.GenerateMonthlyFees(db, logger, 2026, 7, nil)
	if err != nil {
		t.Fatalf("GenerateMonthlyFees: %v", err)
	}

	brokenOutcome := findOutcome(t, outcomes, broken.ID)
	if brokenOutcome.Success || brokenOutcome.Error == "" {
		t.Fatalf("broken hostel outcome = %+v; want error", brokenOutcome)
	}
	healthyOutcome := findOutcome(t, outcomes, healthy.ID)
	if !healthyOutcome.Success || healthyOutcome.FeesCreated != 1 {
		t.Fatalf("healthy hostel outcome = %+v; want success with 1 fee", healthyOutcome)
	}
	feeForPeriod(t, ctx, okStudent.ID, 2026, 7)

	// Once the data problem is gone a rerun bills the hostel that
	// errored, without touching the one already covered.
	if err := db.Exec("DROP TRIGGER reject_broken_hostel_fees").Error; err != nil {
		t.Fatalf("drop trigger: %v", err)
	}
	outcomes, err = workflow.GenerateMonthlyFees(db, logger, 2026, 7, nil)
	if err != nil {
		t.Fatalf("GenerateMonthlyFees(rerun): %v", err)
	}
	if repaired := findOutcome(t, outcomes, broken.ID); !repaired.Success || repaired.FeesCreated != 1 {
		t.Fatalf("broken hostel rerun outcome = %+v; want success with 1 fee", repaired)
	}
	if covered := findOutcome(t, outcomes, healthy.ID); !covered.Skipped {
		t.Fatalf("healthy hostel rerun outcome = %+v; want skipped", covered)
	}
	feeForPeriod(t, ctx, badStudent.ID, 2026, 7)
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("hosteldesk-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("hosteldesk-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=hosteldesk_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
