package rest

import (
	"net/http"

	"bitbucket.org/auricsoft/atelier_backend/models"
	"github.com/gin-gonic/gin"
)

func createStockTransferHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewStockTransfer
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		transfer, err := models.CreateStockTransfer(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, transfer)
	}
}

func getStockTransferHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		transfer, err := models.GetStockTransfer(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, transfer)
	}
}

func dispatchStockTransferHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		transfer, err := models.DispatchStockTransfer(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, transfer)
	}
}

type receiveTransferItemRequest struct {
	InventoryItemId int `json:"inventory_item_id" binding:"required"`
}

func receiveStockTransferItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var req receiveTransferItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithBindingError(c, err)
			return
		}
		if err := models.ReceiveStockTransferItem(c.Request.Context(), id, req.InventoryItemId); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func finalizeStockTransferHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		transfer, err := models.FinalizeStockTransfer(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, transfer)
	}
}

func posConfirmSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPOSSale
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		invoice, err := models.POSConfirmSale(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func getSalesInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		invoice, err := models.GetSalesInvoice(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}
