package rest

import (
	"net/http"
	"strconv"

	"bitbucket.org/auricsoft/atelier_backend/models"
	"github.com/gin-gonic/gin"
)

func createGoldBatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewGoldBatch
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		batch, err := models.CreateGoldBatch(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, batch)
	}
}

func createDiamondLotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewDiamondLot
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		lot, err := models.CreateDiamondLot(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, lot)
	}
}

func goldAvailabilityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		availability, err := models.AvailableGold(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, availability)
	}
}

func diamondAvailabilityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		availability, err := models.AvailableDiamonds(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, availability)
	}
}

func listInventoryItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *models.InventoryItemStatus
		if v := c.Query("status"); v != "" {
			s := models.InventoryItemStatus(v)
			status = &s
		}
		var warehouseId *int
		if v := c.Query("warehouse_id"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				warehouseId = &n
			}
		}
		items, err := models.ListInventoryItems(c.Request.Context(), status, warehouseId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func getInventoryItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		item, err := models.GetInventoryItem(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func getInventoryItemByBarcodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		barcode := c.Param("barcode")
		if barcode == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "barcode is required"})
			return
		}
		item, err := models.GetInventoryItemByBarcode(c.Request.Context(), barcode)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}
