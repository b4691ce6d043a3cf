package rest

import (
	"net/http"

	"bitbucket.org/auricsoft/atelier_backend/models"
	"github.com/gin-gonic/gin"
)

func createJobBagHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewJobBag
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		jobBag, err := models.CreateJobBag(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, jobBag)
	}
}

func getJobBagHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		jobBag, err := models.GetJobBag(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, jobBag)
	}
}

func listJobBagsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *models.JobBagStatus
		if v := c.Query("status"); v != "" {
			s := models.JobBagStatus(v)
			status = &s
		}
		jobBags, err := models.ListJobBags(c.Request.Context(), status)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, jobBags)
	}
}

func deleteJobBagHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		if err := models.DeleteJobBag(c.Request.Context(), id); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func issueGoldHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewGoldIssue
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		issue, err := models.IssueGoldToJob(c.Request.Context(), id, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, issue)
	}
}

func issueDiamondHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewDiamondIssue
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		issue, err := models.IssueDiamondToJob(c.Request.Context(), id, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, issue)
	}
}

func consumeGoldHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewGoldConsumption
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		consumption, err := models.RecordGoldConsumption(c.Request.Context(), id, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, consumption)
	}
}

func consumeDiamondHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewDiamondConsumption
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		consumption, err := models.RecordDiamondConsumption(c.Request.Context(), id, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, consumption)
	}
}

func receiveFinishedGoodsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewInventoryItem
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		item, err := models.ReceiveFinishedGoods(c.Request.Context(), id, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func closeJobBagHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		jobBag, err := models.CloseJobBag(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, jobBag)
	}
}

func reconcileJobBagHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		recon, err := models.ReconcileJobBag(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, recon)
	}
}

func jobBagMovementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		movements, err := models.ListJobBagMovements(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, movements)
	}
}

func reconciliationXlsxHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		f, err := models.ExportReconciliationXlsx(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=reconciliation.xlsx")
		if err := f.Write(c.Writer); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	}
}
