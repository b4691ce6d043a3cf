package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/utils"
)

type Warehouse struct {
	ID            int           `gorm:"primary_key" json:"id"`
	CompanyId     string        `gorm:"index;size:36;not null" json:"company_id"`
	WarehouseCode string        `gorm:"size:50;not null" json:"warehouse_code" binding:"required"`
	Name          string        `gorm:"size:100;not null" json:"name" binding:"required"`
	WarehouseType WarehouseType `gorm:"size:20;not null" json:"warehouse_type"`
	IsActive      *bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWarehouse struct {
	WarehouseCode string        `json:"warehouse_code" binding:"required"`
	Name          string        `json:"name" binding:"required"`
	WarehouseType WarehouseType `json:"warehouse_type" binding:"required"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewWarehouse) validate(ctx context.Context, companyId string, id int) error {
	if err := utils.ValidateUnique[Warehouse](ctx, companyId, "warehouse_code", input.WarehouseCode, id); err != nil {
		return err
	}
	if err := utils.ValidateUnique[Warehouse](ctx, companyId, "name", input.Name, id); err != nil {
		return err
	}
	switch input.WarehouseType {
	case WarehouseTypeMainSafe, WarehouseTypeFactory, WarehouseTypeBranch, WarehouseTypeTransit:
	default:
		return errors.New("invalid warehouse type")
	}
	return nil
}

func CreateWarehouse(ctx context.Context, input *NewWarehouse) (*Warehouse, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	warehouse := Warehouse{
		CompanyId:     companyId,
		WarehouseCode: input.WarehouseCode,
		Name:          input.Name,
		WarehouseType: input.WarehouseType,
		IsActive:      utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&warehouse).Error
	if err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func UpdateWarehouse(ctx context.Context, id int, input *NewWarehouse) (*Warehouse, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	warehouse, err := utils.FetchModel[Warehouse](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	warehouse.WarehouseCode = input.WarehouseCode
	warehouse.Name = input.Name
	warehouse.WarehouseType = input.WarehouseType

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(warehouse).Error; err != nil {
		return nil, err
	}
	return warehouse, nil
}

func ListWarehouses(ctx context.Context) ([]*Warehouse, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchAllModels[Warehouse](ctx, companyId)
}
