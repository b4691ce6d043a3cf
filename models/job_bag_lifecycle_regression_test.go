package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/models"
	"bitbucket.org/auricsoft/atelier_backend/utils"
)

// Regression: the full job bag lifecycle against real MySQL + Redis.
// Run (requires Docker): INTEGRATION_TESTS=1 go test ./models -run JobBagLifecycle -v
func TestJobBagLifecycle_IssueConsumeReceiveClose(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "atelier_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	company, err := models.CreateCompany(ctx, &models.NewCompany{
		LegalName:   "Aurum Jewels Pvt Ltd",
		CompanyCode: "AURUM",
	})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	ctx = utils.SetCompanyIdInContext(ctx, company.ID)

	karigar, err := models.CreateKarigar(ctx, &models.NewKarigar{FullName: "Ramesh"})
	if err != nil {
		t.Fatalf("CreateKarigar: %v", err)
	}
	factory, err := models.CreateWarehouse(ctx, &models.NewWarehouse{
		WarehouseCode: "FACT",
		Name:          "Factory",
		WarehouseType: models.WarehouseTypeFactory,
	})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}

	batch, err := models.CreateGoldBatch(ctx, &models.NewGoldBatch{
		BatchNumber:   "GB-001",
		PurityKarat:   "22K",
		PurityPercent: d("91.60"),
		TotalWeightG:  d("100.000"),
		WarehouseId:   factory.ID,
	})
	if err != nil {
		t.Fatalf("CreateGoldBatch: %v", err)
	}

	jobBag, err := models.CreateJobBag(ctx, &models.NewJobBag{
		JobBagNumber:        "JB-001",
		KarigarId:           karigar.ID,
		GoldExpectedWeightG: d("10.000"),
		WarehouseId:         factory.ID,
	})
	if err != nil {
		t.Fatalf("CreateJobBag: %v", err)
	}
	if jobBag.Status != models.JobBagStatusOpen {
		t.Fatalf("new bag status = %s, want open", jobBag.Status)
	}

	// consumption before any issue must be rejected
	_, err = models.RecordGoldConsumption(ctx, jobBag.ID, &models.NewGoldConsumption{
		GoldBatchId:     batch.ID,
		ConsumedWeightG: d("1.000"),
	})
	if !errors.Is(err, models.ErrInvalidJobState) {
		t.Fatalf("consume before issue: err = %v, want ErrInvalidJobState", err)
	}

	if _, err := models.IssueGoldToJob(ctx, jobBag.ID, &models.NewGoldIssue{
		GoldBatchId:   batch.ID,
		IssuedWeightG: d("10.000"),
	}); err != nil {
		t.Fatalf("IssueGoldToJob: %v", err)
	}

	// over-issue must fail and leave remaining untouched
	_, err = models.IssueGoldToJob(ctx, jobBag.ID, &models.NewGoldIssue{
		GoldBatchId:   batch.ID,
		IssuedWeightG: d("1000.000"),
	})
	if !errors.Is(err, models.ErrInsufficientStock) {
		t.Fatalf("over-issue: err = %v, want ErrInsufficientStock", err)
	}

	db := config.GetDB()
	var freshBatch models.GoldBatch
	if err := db.WithContext(ctx).First(&freshBatch, batch.ID).Error; err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	if freshBatch.RemainingWeightG.StringFixed(3) != "90.000" {
		t.Fatalf("batch remaining = %s, want 90.000", freshBatch.RemainingWeightG)
	}

	bag, err := models.GetJobBag(ctx, jobBag.ID)
	if err != nil {
		t.Fatalf("GetJobBag: %v", err)
	}
	if bag.Status != models.JobBagStatusIssued {
		t.Fatalf("after issue status = %s, want issued", bag.Status)
	}

	if _, err := models.RecordGoldConsumption(ctx, jobBag.ID, &models.NewGoldConsumption{
		GoldBatchId:     batch.ID,
		ConsumedWeightG: d("9.000"),
		LossWeightG:     d("0.500"),
	}); err != nil {
		t.Fatalf("RecordGoldConsumption: %v", err)
	}

	// a top-up issue while the bag is in_progress is legal and keeps the bag
	// in_progress
	bag, err = models.GetJobBag(ctx, jobBag.ID)
	if err != nil {
		t.Fatalf("GetJobBag: %v", err)
	}
	if bag.Status != models.JobBagStatusInProgress {
		t.Fatalf("after consumption status = %s, want in_progress", bag.Status)
	}
	if _, err := models.IssueGoldToJob(ctx, jobBag.ID, &models.NewGoldIssue{
		GoldBatchId:   batch.ID,
		IssuedWeightG: d("0.500"),
	}); err != nil {
		t.Fatalf("top-up issue to in_progress bag: %v", err)
	}
	bag, err = models.GetJobBag(ctx, jobBag.ID)
	if err != nil {
		t.Fatalf("GetJobBag: %v", err)
	}
	if bag.Status != models.JobBagStatusInProgress {
		t.Fatalf("after top-up issue status = %s, want in_progress", bag.Status)
	}
	if _, err := models.RecordGoldConsumption(ctx, jobBag.ID, &models.NewGoldConsumption{
		GoldBatchId:     batch.ID,
		ConsumedWeightG: d("0.500"),
	}); err != nil {
		t.Fatalf("RecordGoldConsumption top-up: %v", err)
	}

	item, err := models.ReceiveFinishedGoods(ctx, jobBag.ID, &models.NewInventoryItem{
		Barcode:             "ITEM-0001",
		ItemName:            "Solitaire Ring",
		GrossWeightG:        d("9.300"),
		TotalStoneWeightCts: d("2.00"),
		PurityKarat:         "22K",
		WarehouseId:         factory.ID,
	})
	if err != nil {
		t.Fatalf("ReceiveFinishedGoods: %v", err)
	}
	if item.NetWeightG.StringFixed(3) != "8.900" {
		t.Fatalf("net weight = %s, want 8.900", item.NetWeightG)
	}
	if item.Status != models.InventoryItemStatusInStock {
		t.Fatalf("item status = %s, want in_stock", item.Status)
	}

	// the bag cannot yield the same barcode twice
	jobBag2, err := models.CreateJobBag(ctx, &models.NewJobBag{
		JobBagNumber: "JB-002",
		KarigarId:    karigar.ID,
		WarehouseId:  factory.ID,
	})
	if err != nil {
		t.Fatalf("CreateJobBag 2: %v", err)
	}
	// concurrent issues against the same bag must all land; a stuck posting
	// lock would stall every issue after the first
	var wg sync.WaitGroup
	issueErrs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := models.IssueGoldToJob(ctx, jobBag2.ID, &models.NewGoldIssue{
				GoldBatchId:   batch.ID,
				IssuedWeightG: d("1.000"),
			})
			issueErrs <- err
		}()
	}
	wg.Wait()
	close(issueErrs)
	for err := range issueErrs {
		if err != nil {
			t.Fatalf("concurrent IssueGoldToJob bag2: %v", err)
		}
	}
	if _, err := models.RecordGoldConsumption(ctx, jobBag2.ID, &models.NewGoldConsumption{
		GoldBatchId:     batch.ID,
		ConsumedWeightG: d("4.000"),
	}); err != nil {
		t.Fatalf("RecordGoldConsumption bag2: %v", err)
	}
	_, err = models.ReceiveFinishedGoods(ctx, jobBag2.ID, &models.NewInventoryItem{
		Barcode:      "ITEM-0001",
		ItemName:     "Duplicate",
		GrossWeightG: d("4.000"),
		WarehouseId:  factory.ID,
	})
	if !errors.Is(err, models.ErrDuplicateBarcode) {
		t.Fatalf("duplicate barcode: err = %v, want ErrDuplicateBarcode", err)
	}

	recon, err := models.ReconcileJobBag(ctx, jobBag.ID)
	if err != nil {
		t.Fatalf("ReconcileJobBag: %v", err)
	}
	if recon.Gold.Issued.StringFixed(3) != "10.500" {
		t.Fatalf("reconciliation issued = %s, want 10.500", recon.Gold.Issued)
	}
	if recon.Gold.Remaining.StringFixed(3) != "0.500" {
		t.Fatalf("reconciliation remaining = %s, want 0.500", recon.Gold.Remaining)
	}

	closed, err := models.CloseJobBag(ctx, jobBag.ID)
	if err != nil {
		t.Fatalf("CloseJobBag: %v", err)
	}
	if closed.Status != models.JobBagStatusClosed {
		t.Fatalf("closed status = %s, want closed", closed.Status)
	}

	// closed bags are immutable
	_, err = models.IssueGoldToJob(ctx, jobBag.ID, &models.NewGoldIssue{
		GoldBatchId:   batch.ID,
		IssuedWeightG: d("1.000"),
	})
	if !errors.Is(err, models.ErrInvalidJobState) {
		t.Fatalf("issue to closed bag: err = %v, want ErrInvalidJobState", err)
	}
	if _, err := models.CloseJobBag(ctx, jobBag.ID); !errors.Is(err, models.ErrInvalidJobState) {
		t.Fatalf("double close: err = %v, want ErrInvalidJobState", err)
	}

	// new accounts belong to the caller's company, whatever the body says
	user, err := models.CreateAppUser(ctx, &models.NewAppUser{
		Name:     "Counter Clerk",
		Email:    "clerk@aurum.example",
		Password: "s3cretpass",
		Role:     models.UserRoleStaff,
	})
	if err != nil {
		t.Fatalf("CreateAppUser: %v", err)
	}
	if user.CompanyId != company.ID {
		t.Fatalf("user company = %s, want %s", user.CompanyId, company.ID)
	}

	// every posting produced an outbox row
	var outboxCount int64
	if err := db.WithContext(ctx).Model(&models.StockMovementRecord{}).
		Where("company_id = ?", company.ID).
		Count(&outboxCount).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if outboxCount < 5 {
		t.Fatalf("expected at least 5 outbox rows, got %d", outboxCount)
	}
}

func TestDeleteJobBag_OnlyOpenBags(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })
	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "atelier_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	company, err := models.CreateCompany(ctx, &models.NewCompany{
		LegalName:   "Delete Co",
		CompanyCode: "DEL",
	})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	ctx = utils.SetCompanyIdInContext(ctx, company.ID)

	karigar, err := models.CreateKarigar(ctx, &models.NewKarigar{FullName: "Suresh"})
	if err != nil {
		t.Fatalf("CreateKarigar: %v", err)
	}
	safe, err := models.CreateWarehouse(ctx, &models.NewWarehouse{
		WarehouseCode: "FACT",
		Name:          "Factory",
		WarehouseType: models.WarehouseTypeFactory,
	})
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}

	jobBag, err := models.CreateJobBag(ctx, &models.NewJobBag{
		JobBagNumber: "JB-DEL-1",
		KarigarId:    karigar.ID,
		WarehouseId:  safe.ID,
	})
	if err != nil {
		t.Fatalf("CreateJobBag: %v", err)
	}
	if err := models.DeleteJobBag(ctx, jobBag.ID); err != nil {
		t.Fatalf("DeleteJobBag open: %v", err)
	}

	batch, err := models.CreateGoldBatch(ctx, &models.NewGoldBatch{
		BatchNumber:  "GB-DEL",
		PurityKarat:  "22K",
		TotalWeightG: d("10.000"),
		WarehouseId:  safe.ID,
	})
	if err != nil {
		t.Fatalf("CreateGoldBatch: %v", err)
	}
	active, err := models.CreateJobBag(ctx, &models.NewJobBag{
		JobBagNumber: "JB-DEL-2",
		KarigarId:    karigar.ID,
		WarehouseId:  safe.ID,
	})
	if err != nil {
		t.Fatalf("CreateJobBag 2: %v", err)
	}
	if _, err := models.IssueGoldToJob(ctx, active.ID, &models.NewGoldIssue{
		GoldBatchId:   batch.ID,
		IssuedWeightG: d("1.000"),
	}); err != nil {
		t.Fatalf("IssueGoldToJob: %v", err)
	}
	if err := models.DeleteJobBag(ctx, active.ID); !errors.Is(err, models.ErrInvalidJobState) {
		t.Fatalf("delete issued bag: err = %v, want ErrInvalidJobState", err)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("atelier-test-redis-%d", time.Now().UnixNano())
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
	name := fmt.Sprintf("atelier-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=atelier_test",
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
