package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/marketplace_backend/config"
	"bitbucket.org/mmdatafocus/marketplace_backend/middlewares"
	"bitbucket.org/mmdatafocus/marketplace_backend/models"
	"bitbucket.org/mmdatafocus/marketplace_backend/models/reports"
	"bitbucket.org/mmdatafocus/marketplace_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func respond(c *gin.Context, result interface{}, err error) {
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(http.StatusOK, result)
}

/* auth */

type signInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func signInHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		info, err := models.SignIn(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func signOutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		respond(c, gin.H{"success": ok}, err)
	}
}

/* admin */

func createBusinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewBusiness
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		business, err := models.CreateBusiness(c.Request.Context(), &input)
		respond(c, business, err)
	}
}

func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		user, err := models.CreateUser(c.Request.Context(), &input)
		respond(c, user, err)
	}
}

/* products */

func createProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		product, err := models.CreateProduct(c.Request.Context(), &input)
		respond(c, product, err)
	}
}

func updateProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		product, err := models.UpdateProduct(c.Request.Context(), id, &input)
		respond(c, product, err)
	}
}

func deleteProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		product, err := models.DeleteProduct(c.Request.Context(), id)
		respond(c, product, err)
	}
}

func getProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		product, err := models.GetProduct(c.Request.Context(), id)
		respond(c, product, err)
	}
}

func listProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var name *string
		if v := c.Query("name"); v != "" {
			name = &v
		}
		var kind *models.ProductKind
		if v := c.Query("kind"); v != "" {
			k := models.ProductKind(v)
			kind = &k
		}
		result, err := models.ListProduct(c.Request.Context(), name, kind)
		respond(c, result, err)
	}
}

type toggleActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func toggleProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var req toggleActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
			return
		}
		product, err := models.ToggleActiveProduct(c.Request.Context(), id, *req.IsActive)
		respond(c, product, err)
	}
}

/* product variations */

func addVariationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewProductVariation
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		variation, err := models.AddProductVariation(c.Request.Context(), id, &input)
		respond(c, variation, err)
	}
}

func listVariationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		variations, err := models.ListProductVariations(c.Request.Context(), id)
		respond(c, variations, err)
	}
}

func updateVariationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewProductVariation
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		variation, err := models.UpdateProductVariation(c.Request.Context(), id, &input)
		respond(c, variation, err)
	}
}

func deleteVariationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		variation, err := models.DeleteProductVariation(c.Request.Context(), id)
		respond(c, variation, err)
	}
}

/* inventory locations */

func createLocationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewInventoryLocation
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		location, err := models.CreateInventoryLocation(c.Request.Context(), &input)
		respond(c, location, err)
	}
}

func updateLocationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewInventoryLocation
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		location, err := models.UpdateInventoryLocation(c.Request.Context(), id, &input)
		respond(c, location, err)
	}
}

func deleteLocationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		location, err := models.DeleteInventoryLocation(c.Request.Context(), id)
		respond(c, location, err)
	}
}

func getLocationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		location, err := models.GetInventoryLocation(c.Request.Context(), id)
		respond(c, location, err)
	}
}

func listLocationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var name *string
		if v := c.Query("name"); v != "" {
			name = &v
		}
		var locationType *models.LocationType
		if v := c.Query("type"); v != "" {
			t := models.LocationType(v)
			locationType = &t
		}
		result, err := models.ListInventoryLocation(c.Request.Context(), name, locationType)
		respond(c, result, err)
	}
}

func toggleLocationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var req toggleActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
			return
		}
		location, err := models.ToggleActiveInventoryLocation(c.Request.Context(), id, *req.IsActive)
		respond(c, location, err)
	}
}

/* inventory */

func inventorySnapshotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot, err := models.LoadInventorySnapshot(c.Request.Context())
		respond(c, snapshot, err)
	}
}

func adjustStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.StockAdjustInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		result, err := models.AdjustStock(c.Request.Context(), &input)
		respond(c, result, err)
	}
}

func setStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.StockSetInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		result, err := models.SetStock(c.Request.Context(), &input)
		respond(c, result, err)
	}
}

func bulkAdjustStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var inputs []*models.StockAdjustInput
		if err := c.ShouldBindJSON(&inputs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		result, err := models.BulkAdjustStock(c.Request.Context(), inputs)
		respond(c, result, err)
	}
}

func bulkSetStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var inputs []*models.StockSetInput
		if err := c.ShouldBindJSON(&inputs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		result, err := models.BulkSetStock(c.Request.Context(), inputs)
		respond(c, result, err)
	}
}

func exportInventoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := models.ExportInventoryCSV(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=inventory.csv")
		c.Data(http.StatusOK, "text/csv", data)
	}
}

func exportInventoryExcelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=inventory.xlsx")
		if err := reports.ExportInventoryExcel(c.Request.Context(), c.Writer); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
	}
}

func importInventoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer file.Close()
		result, err := models.ImportInventoryCSV(c.Request.Context(), file)
		respond(c, result, err)
	}
}

func listMovementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		var after *string
		if v := c.Query("after"); v != "" {
			after = &v
		}
		var warehouseId, productId *int
		if v, err := strconv.Atoi(c.Query("warehouse_id")); err == nil && v > 0 {
			warehouseId = &v
		}
		if v, err := strconv.Atoi(c.Query("product_id")); err == nil && v > 0 {
			productId = &v
		}
		var productType *models.ProductType
		if v := c.Query("product_type"); v != "" {
			t := models.ProductType(v)
			productType = &t
		}
		var reason *models.StockMovementReason
		if v := c.Query("reason"); v != "" {
			r := models.StockMovementReason(v)
			reason = &r
		}
		connection, err := models.PaginateStockMovements(c.Request.Context(), limit, after, warehouseId, productId, productType, reason)
		respond(c, connection, err)
	}
}

func inventorySummaryReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := reports.GetInventorySummaryReport(c.Request.Context())
		respond(c, rows, err)
	}
}

/* business self-management */

func getBusinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		business, err := models.GetBusiness(c.Request.Context())
		respond(c, business, err)
	}
}

func updateBusinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
		if !ok || businessId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "business id is required"})
			return
		}
		var input models.NewBusiness
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		business, err := models.UpdateBusiness(c.Request.Context(), businessId, &input)
		respond(c, business, err)
	}
}

/* cached lookup lists */

func allProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := models.ListAllProduct(c.Request.Context())
		respond(c, result, err)
	}
}

func allLocationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := models.ListAllInventoryLocation(c.Request.Context())
		respond(c, result, err)
	}
}

func allUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := models.ListAllUser(c.Request.Context())
		respond(c, result, err)
	}
}

/* stock lookups */

func availableStocksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		warehouseId, err := strconv.Atoi(c.Query("warehouse_id"))
		if err != nil || warehouseId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "warehouse_id is required"})
			return
		}
		stocks, err := models.GetAvailableStocks(c.Request.Context(), warehouseId)
		respond(c, stocks, err)
	}
}

func stockInHandHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		productId, err := strconv.Atoi(c.Query("product_id"))
		if err != nil || productId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
			return
		}
		productType := models.ProductType(c.Query("product_type"))
		if productType == "" {
			productType = models.ProductTypeSingle
		}
		total, err := models.GetStockInHand(c.Request.Context(), productId, productType)
		respond(c, gin.H{"product_id": productId, "product_type": productType, "stock_in_hand": total}, err)
	}
}

func listHistoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		var after *string
		if v := c.Query("after"); v != "" {
			after = &v
		}
		var referenceType, actionType *string
		if v := c.Query("reference_type"); v != "" {
			referenceType = &v
		}
		if v := c.Query("action_type"); v != "" {
			actionType = &v
		}
		var referenceId, userId *int
		if v, err := strconv.Atoi(c.Query("reference_id")); err == nil && v > 0 {
			referenceId = &v
		}
		if v, err := strconv.Atoi(c.Query("user_id")); err == nil && v > 0 {
			userId = &v
		}
		connection, err := models.PaginateHistory(c.Request.Context(), limit, after, referenceType, referenceId, userId, actionType)
		respond(c, connection, err)
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT_2")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/signin", signInHandler())

	api := r.Group("/", middlewares.RequireAuth())
	{
		api.POST("/signout", signOutHandler())

		admin := api.Group("/admin", middlewares.RequireAdmin())
		{
			admin.POST("/businesses", createBusinessHandler())
			admin.POST("/users", createUserHandler())
		}

		api.POST("/products", createProductHandler())
		api.GET("/products", listProductHandler())
		api.GET("/products/:id", getProductHandler())
		api.PUT("/products/:id", updateProductHandler())
		api.DELETE("/products/:id", deleteProductHandler())
		api.PATCH("/products/:id/active", toggleProductHandler())
		api.POST("/products/:id/variations", addVariationHandler())
		api.GET("/products/:id/variations", listVariationsHandler())
		api.PUT("/variations/:id", updateVariationHandler())
		api.DELETE("/variations/:id", deleteVariationHandler())

		api.POST("/locations", createLocationHandler())
		api.GET("/locations", listLocationHandler())
		api.GET("/locations/:id", getLocationHandler())
		api.PUT("/locations/:id", updateLocationHandler())
		api.DELETE("/locations/:id", deleteLocationHandler())
		api.PATCH("/locations/:id/active", toggleLocationHandler())

		api.GET("/inventory/snapshot", inventorySnapshotHandler())
		api.POST("/inventory/adjust", adjustStockHandler())
		api.POST("/inventory/set", setStockHandler())
		api.POST("/inventory/bulk-adjust", bulkAdjustStockHandler())
		api.POST("/inventory/bulk-set", bulkSetStockHandler())
		api.GET("/inventory/export", exportInventoryHandler())
		api.GET("/inventory/export-xlsx", exportInventoryExcelHandler())
		api.POST("/inventory/import", importInventoryHandler())
		api.GET("/inventory/movements", listMovementsHandler())
		api.GET("/inventory/available", availableStocksHandler())
		api.GET("/inventory/in-hand", stockInHandHandler())
		api.GET("/reports/inventory-summary", inventorySummaryReportHandler())

		api.GET("/business", getBusinessHandler())
		api.PUT("/business", updateBusinessHandler())
		api.GET("/histories", listHistoriesHandler())

		// cached id/name lookups for pickers
		api.GET("/all/products", allProductsHandler())
		api.GET("/all/locations", allLocationsHandler())
		api.GET("/all/users", allUsersHandler())
	}

	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP()

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
