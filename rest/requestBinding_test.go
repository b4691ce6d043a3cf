package rest

import (
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/auricsoft/atelier_backend/models"
	"github.com/gin-gonic/gin"
)

func bindJSON(t *testing.T, body string, dest interface{}) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c.ShouldBindJSON(dest)
}

// Posting bodies identify the bag through the URL only; a body without a bag
// id must bind.
func TestPostingBodies_BindWithoutBagId(t *testing.T) {
	var issue models.NewGoldIssue
	if err := bindJSON(t, `{"gold_batch_id": 3, "issued_weight_g": "2.500"}`, &issue); err != nil {
		t.Fatalf("bind gold issue: %v", err)
	}
	if issue.GoldBatchId != 3 {
		t.Fatalf("gold batch id = %d, want 3", issue.GoldBatchId)
	}

	var consumption models.NewGoldConsumption
	if err := bindJSON(t, `{"gold_batch_id": 3, "consumed_weight_g": "2.000"}`, &consumption); err != nil {
		t.Fatalf("bind gold consumption: %v", err)
	}

	var receipt models.NewInventoryItem
	err := bindJSON(t, `{"barcode": "ITEM-0009", "item_name": "Band", "gross_weight_g": "4.100", "warehouse_id": 1}`, &receipt)
	if err != nil {
		t.Fatalf("bind finished goods receipt: %v", err)
	}
}
