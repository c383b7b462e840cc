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

	"bitbucket.org/mmdatafocus/marketplace_backend/config"
	"bitbucket.org/mmdatafocus/marketplace_backend/models"
	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
	"github.com/shopspring/decimal"
)

func TestStockMutations(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

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
	t.Setenv("DB_NAME", "marketplace_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	// History and movement rows require user context.
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	biz, err := models.CreateBusiness(ctx, &models.NewBusiness{
		Name:  "Stock Test Co",
		Email: "owner@stock.test",
	})
	if err != nil {
		t.Fatalf("CreateBusiness: %v", err)
	}
	businessID := biz.ID.String()
	ctx = utils.SetBusinessIdInContext(ctx, businessID)

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}
	var primary models.InventoryLocation
	if err := db.WithContext(ctx).Where("business_id = ? AND name = ?", businessID, "Primary Warehouse").First(&primary).Error; err != nil {
		t.Fatalf("fetch primary warehouse: %v", err)
	}

	mug, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:       "Coffee Mug",
		Sku:        "MUG-001",
		Kind:       models.ProductKindSimple,
		SalesPrice: decimal.NewFromInt(3500),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	shirt, err := models.CreateProduct(ctx, &models.NewProduct{
		Name: "T-Shirt",
		Sku:  "TS-001",
		Kind: models.ProductKindVariable,
		Variations: []models.NewProductVariation{
			{Name: "Color: Red / Size: M"},
			{Name: "Color: Blue / Size: M"},
		},
	})
	if err != nil {
		t.Fatalf("CreateProduct variable: %v", err)
	}
	if len(shirt.Variations) != 2 {
		t.Fatalf("expected 2 variations; got %d", len(shirt.Variations))
	}

	// seed 5, adjust +10, expect 15
	if _, err := models.SetStock(ctx, &models.StockSetInput{
		ProductId:   mug.ID,
		ProductType: models.ProductTypeSingle,
		WarehouseId: primary.ID,
		Quantity:    decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("SetStock seed: %v", err)
	}
	result, err := models.AdjustStock(ctx, &models.StockAdjustInput{
		ProductId:   mug.ID,
		ProductType: models.ProductTypeSingle,
		WarehouseId: primary.ID,
		Delta:       decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if !result.CurrentQty.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected qty 15 after +10 on 5; got %s", result.CurrentQty.String())
	}

	// set to the same value twice: quantity stays, second movement has delta 0
	for i := 0; i < 2; i++ {
		if _, err := models.SetStock(ctx, &models.StockSetInput{
			ProductId:   mug.ID,
			ProductType: models.ProductTypeSingle,
			WarehouseId: primary.ID,
			Quantity:    decimal.NewFromInt(15),
		}); err != nil {
			t.Fatalf("SetStock idempotent #%d: %v", i+1, err)
		}
	}
	var lastMovement models.StockMovement
	if err := db.WithContext(ctx).
		Where("business_id = ? AND product_id = ? AND product_type = ?", businessID, mug.ID, models.ProductTypeSingle).
		Order("id DESC").First(&lastMovement).Error; err != nil {
		t.Fatalf("fetch last movement: %v", err)
	}
	if !lastMovement.Delta.IsZero() {
		t.Fatalf("expected delta 0 on repeated set; got %s", lastMovement.Delta.String())
	}
	if lastMovement.Reason != models.MovementReasonSet {
		t.Fatalf("expected reason set; got %s", lastMovement.Reason)
	}

	// bulk adjust: 3 valid rows + 1 invalid warehouse, never aborts
	bulkResult, err := models.BulkAdjustStock(ctx, []*models.StockAdjustInput{
		{ProductId: mug.ID, ProductType: models.ProductTypeSingle, WarehouseId: primary.ID, Delta: decimal.NewFromInt(1)},
		{ProductId: shirt.Variations[0].ID, ProductType: models.ProductTypeVariation, WarehouseId: primary.ID, Delta: decimal.NewFromInt(2)},
		{ProductId: shirt.Variations[1].ID, ProductType: models.ProductTypeVariation, WarehouseId: primary.ID, Delta: decimal.NewFromInt(3)},
		{ProductId: mug.ID, ProductType: models.ProductTypeSingle, WarehouseId: 99999, Delta: decimal.NewFromInt(1)},
	})
	if err != nil {
		t.Fatalf("BulkAdjustStock: %v", err)
	}
	if bulkResult.SuccessCount != 3 || bulkResult.ErrorCount != 1 {
		t.Fatalf("expected success=3 error=1; got %+v", bulkResult)
	}

	// import resolves the warehouse by case-insensitive name
	importFile := strings.Join([]string{
		"product_id,product_name,warehouse_id,warehouse_name,stock_quantity",
		fmt.Sprintf("%d,T-Shirt - Red M,0,primary warehouse,42", shirt.Variations[0].ID),
		fmt.Sprintf("%d,T-Shirt - Blue M,0,PRIMARY WAREHOUSE,7", shirt.Variations[1].ID),
		"999999,Ghost,0,primary warehouse,1",
	}, "\n")
	importResult, err := models.ImportInventoryCSV(ctx, strings.NewReader(importFile))
	if err != nil {
		t.Fatalf("ImportInventoryCSV: %v", err)
	}
	if importResult.SuccessCount != 2 || importResult.ErrorCount != 1 {
		t.Fatalf("expected import success=2 error=1; got %+v", importResult)
	}

	// snapshot reflects the imported absolute values
	snapshot, err := models.LoadInventorySnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadInventorySnapshot: %v", err)
	}
	var redQty *decimal.Decimal
	for _, p := range snapshot.Products {
		if p.Product.ID != shirt.ID {
			continue
		}
		for _, v := range p.Variations {
			if v.Variation.ID != shirt.Variations[0].ID {
				continue
			}
			for _, row := range v.Stocks {
				if row.WarehouseId == primary.ID {
					q := row.Quantity
					redQty = &q
				}
			}
		}
	}
	if redQty == nil || !redQty.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("expected snapshot qty 42 for imported variation; got %v", redQty)
	}

	// variable products expose their ordered option set
	for _, p := range snapshot.Products {
		if p.Product.ID != shirt.ID {
			continue
		}
		if len(p.Options) != 2 || p.Options[0] != "Color" || p.Options[1] != "Size" {
			t.Fatalf("expected options [Color Size]; got %v", p.Options)
		}
	}

	// event products never track stock
	event, err := models.CreateProduct(ctx, &models.NewProduct{
		Name: "Launch Party Ticket",
		Sku:  "EVT-001",
		Kind: models.ProductKindEvent,
	})
	if err != nil {
		t.Fatalf("CreateProduct event: %v", err)
	}
	if _, err := models.AdjustStock(ctx, &models.StockAdjustInput{
		ProductId:   event.ID,
		ProductType: models.ProductTypeSingle,
		WarehouseId: primary.ID,
		Delta:       decimal.NewFromInt(1),
	}); err == nil {
		t.Fatalf("expected adjust on event product to fail")
	}

	// movement listing decorates the warehouse name
	movements, err := models.PaginateStockMovements(ctx, 5, nil, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("PaginateStockMovements: %v", err)
	}
	if len(movements.Edges) == 0 {
		t.Fatalf("expected movement rows")
	}
	if movements.Edges[0].Node.WarehouseName != "Primary Warehouse" {
		t.Fatalf("expected decorated warehouse name; got %q", movements.Edges[0].Node.WarehouseName)
	}

	// cached lookup list serves from db then redis
	allProducts, err := models.ListAllProduct(ctx)
	if err != nil {
		t.Fatalf("ListAllProduct: %v", err)
	}
	cached, err := models.ListAllProduct(ctx)
	if err != nil {
		t.Fatalf("ListAllProduct cached: %v", err)
	}
	if len(cached) != len(allProducts) || len(allProducts) < 3 {
		t.Fatalf("expected stable cached product list; got %d then %d", len(allProducts), len(cached))
	}

	// updates write an audit row readable through history pagination
	if _, err := models.UpdateProduct(ctx, mug.ID, &models.NewProduct{
		Name:       "Coffee Mug XL",
		Sku:        "MUG-001",
		SalesPrice: decimal.NewFromInt(4000),
	}); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	refType := "products"
	histories, err := models.PaginateHistory(ctx, 10, nil, &refType, &mug.ID, nil, nil)
	if err != nil {
		t.Fatalf("PaginateHistory: %v", err)
	}
	if len(histories.Edges) == 0 {
		t.Fatalf("expected history rows for updated product")
	}
	if histories.Edges[0].Node.ActionType != "UPDATE" {
		t.Fatalf("expected newest history row UPDATE; got %q", histories.Edges[0].Node.ActionType)
	}

	// sign-in rejects wrong passwords and corrupted stored hashes
	if _, err := models.CreateUser(ctx, &models.NewUser{
		BusinessId: businessID,
		Username:   "cashier",
		Name:       "Cashier",
		Password:   "s3cret-pass",
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	login, err := models.SignIn(ctx, "cashier", "s3cret-pass")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if login.Token == "" {
		t.Fatalf("expected token on successful sign-in")
	}
	if _, err := models.SignIn(ctx, "cashier", "wrong-pass"); err == nil {
		t.Fatalf("expected wrong password to be rejected")
	}
	adminCtx := utils.SetSkipTenantScopeInContext(ctx, true)
	if err := db.WithContext(adminCtx).Model(&models.User{}).
		Where("username = ?", "cashier").
		Update("password", "not-a-bcrypt-hash").Error; err != nil {
		t.Fatalf("corrupt stored hash: %v", err)
	}
	if err := config.RemoveRedisKey("User:cashier"); err != nil {
		t.Fatalf("drop cached user: %v", err)
	}
	if _, err := models.SignIn(ctx, "cashier", "not-a-bcrypt-hash"); err == nil {
		t.Fatalf("expected corrupted stored hash to reject sign-in")
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("marketplace-test-redis-%d", time.Now().UnixNano())
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
	name := fmt.Sprintf("marketplace-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=marketplace_test",
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
