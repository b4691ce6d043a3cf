package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/utils"
	"github.com/google/uuid"
)

// Company is the tenant. Every scoped table carries its id; the tenant guard
// plugin injects the WHERE clause automatically.
type Company struct {
	ID          string    `gorm:"primary_key;size:36" json:"id"`
	LegalName   string    `gorm:"size:255;not null" json:"legal_name" binding:"required"`
	TradeName   string    `gorm:"size:255" json:"trade_name"`
	CompanyCode string    `gorm:"size:50;uniqueIndex;not null" json:"company_code" binding:"required"`
	PanNumber   string    `gorm:"size:10" json:"pan_number"`
	Gstin       string    `gorm:"size:15" json:"gstin"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	LegalName   string `json:"legal_name" binding:"required"`
	TradeName   string `json:"trade_name"`
	CompanyCode string `json:"company_code" binding:"required"`
	PanNumber   string `json:"pan_number"`
	Gstin       string `json:"gstin"`
}

// CreateCompany provisions a tenant with its default main safe warehouse.
// Not tenant-scoped: callers are platform admins.
func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {

	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&Company{}).Where("company_code = ?", input.CompanyCode).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate company_code")
	}

	company := Company{
		ID:          uuid.NewString(),
		LegalName:   input.LegalName,
		TradeName:   input.TradeName,
		CompanyCode: input.CompanyCode,
		PanNumber:   input.PanNumber,
		Gstin:       input.Gstin,
		IsActive:    utils.NewTrue(),
	}

	if err := db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, err
	}

	// every company starts with a main safe
	safe := Warehouse{
		CompanyId:     company.ID,
		WarehouseCode: "MAIN",
		Name:          "Main Safe",
		WarehouseType: WarehouseTypeMainSafe,
		IsActive:      utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&safe).Error; err != nil {
		return nil, err
	}

	return &company, nil
}

func GetCompany(ctx context.Context) (*Company, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var company Company
	if err := db.WithContext(ctx).Where("id = ?", companyId).First(&company).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &company, nil
}
