package rest

import (
	"net/http"

	"bitbucket.org/auricsoft/atelier_backend/models"
	"github.com/gin-gonic/gin"
)

func createMemoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewMemo
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		memo, err := models.CreateMemo(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, memo)
	}
}

func listMemosHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *models.MemoStatus
		if v := c.Query("status"); v != "" {
			s := models.MemoStatus(v)
			status = &s
		}
		memos, err := models.ListMemos(c.Request.Context(), status)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, memos)
	}
}

func getMemoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		memo, err := models.GetMemo(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, memo)
	}
}

func convertMemoToSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.MemoSaleInput
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		memo, err := models.ConvertMemoToSale(c.Request.Context(), id, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, memo)
	}
}

func returnMemoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		memo, err := models.ReturnMemo(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, memo)
	}
}

func completeSalesReturnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSalesReturn
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		ret, err := models.CompleteSalesReturn(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ret)
	}
}

func getSalesReturnHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		ret, err := models.GetSalesReturn(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, ret)
	}
}
