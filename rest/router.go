package rest

import (
	"bitbucket.org/auricsoft/atelier_backend/middlewares"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the API surface. Everything under /api requires a
// valid token; /auth/signin and /companies bootstrap are open. Company and
// owner provisioning for a fresh install happens via cmd/seed-admin.
func RegisterRoutes(r *gin.Engine) {

	r.POST("/auth/signin", signinHandler())
	r.POST("/companies", createCompanyHandler())

	api := r.Group("/api", middlewares.RequireAuth())

	api.GET("/company", getCompanyHandler())
	api.POST("/users", createUserHandler())

	api.POST("/warehouses", createWarehouseHandler())
	api.PUT("/warehouses/:id", updateWarehouseHandler())
	api.GET("/warehouses", listWarehousesHandler())

	api.POST("/karigars", createKarigarHandler())
	api.GET("/karigars", listKarigarsHandler())

	api.POST("/suppliers", createSupplierHandler())
	api.GET("/suppliers", listSuppliersHandler())

	api.POST("/gold-batches", createGoldBatchHandler())
	api.GET("/gold-batches/availability", goldAvailabilityHandler())
	api.POST("/diamond-lots", createDiamondLotHandler())
	api.GET("/diamond-lots/availability", diamondAvailabilityHandler())

	api.POST("/job-bags", createJobBagHandler())
	api.GET("/job-bags", listJobBagsHandler())
	api.GET("/job-bags/:id", getJobBagHandler())
	api.DELETE("/job-bags/:id", deleteJobBagHandler())
	api.POST("/job-bags/:id/issue-gold", issueGoldHandler())
	api.POST("/job-bags/:id/issue-diamond", issueDiamondHandler())
	api.POST("/job-bags/:id/consume-gold", consumeGoldHandler())
	api.POST("/job-bags/:id/consume-diamond", consumeDiamondHandler())
	api.POST("/job-bags/:id/receive", receiveFinishedGoodsHandler())
	api.POST("/job-bags/:id/close", closeJobBagHandler())
	api.GET("/job-bags/:id/reconciliation", reconcileJobBagHandler())
	api.GET("/job-bags/:id/reconciliation.xlsx", reconciliationXlsxHandler())
	api.GET("/job-bags/:id/movements", jobBagMovementsHandler())

	api.GET("/items", listInventoryItemsHandler())
	api.GET("/items/:id", getInventoryItemHandler())
	api.GET("/items/barcode/:barcode", getInventoryItemByBarcodeHandler())

	api.POST("/stock-transfers", createStockTransferHandler())
	api.GET("/stock-transfers/:id", getStockTransferHandler())
	api.POST("/stock-transfers/:id/dispatch", dispatchStockTransferHandler())
	api.POST("/stock-transfers/:id/receive-item", receiveStockTransferItemHandler())
	api.POST("/stock-transfers/:id/finalize", finalizeStockTransferHandler())

	api.POST("/pos/confirm-sale", posConfirmSaleHandler())
	api.GET("/sales-invoices/:id", getSalesInvoiceHandler())

	api.POST("/memos", createMemoHandler())
	api.GET("/memos", listMemosHandler())
	api.GET("/memos/:id", getMemoHandler())
	api.POST("/memos/:id/convert-to-sale", convertMemoToSaleHandler())
	api.POST("/memos/:id/return", returnMemoHandler())

	api.POST("/sales-returns", completeSalesReturnHandler())
	api.GET("/sales-returns/:id", getSalesReturnHandler())

	api.GET("/histories", listHistoriesHandler())
}
