package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/utils"
)

// Supplier is the party gold batches and diamond lots are purchased from.
type Supplier struct {
	ID            int       `gorm:"primary_key" json:"id"`
	CompanyId     string    `gorm:"index;size:36;not null" json:"company_id"`
	SupplierName  string    `gorm:"size:100;not null" json:"supplier_name" binding:"required"`
	ContactPerson string    `gorm:"size:100" json:"contact_person"`
	Phone         string    `gorm:"size:20" json:"phone"`
	Email         string    `gorm:"size:100" json:"email"`
	Gstin         string    `gorm:"size:15" json:"gstin"`
	Address       string    `gorm:"type:text" json:"address"`
	City          string    `gorm:"size:100" json:"city"`
	State         string    `gorm:"size:100" json:"state"`
	CreditDays    int       `gorm:"not null;default:0" json:"credit_days"`
	BankName      string    `gorm:"size:100" json:"bank_name"`
	AccountNumber string    `gorm:"size:50" json:"account_number"`
	IfscCode      string    `gorm:"size:20" json:"ifsc_code"`
	IsActive      *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	SupplierName  string `json:"supplier_name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Gstin         string `json:"gstin"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	CreditDays    int    `json:"credit_days"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	IfscCode      string `json:"ifsc_code"`
}

func (input *NewSupplier) validate(ctx context.Context, companyId string, id int) error {
	if err := utils.ValidateUnique[Supplier](ctx, companyId, "supplier_name", input.SupplierName, id); err != nil {
		return err
	}
	if len(strings.TrimSpace(input.Phone)) > 0 {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errors.New("invalid phone number")
		}
	}
	if len(strings.TrimSpace(input.Email)) > 0 && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	if input.CreditDays < 0 {
		return errors.New("credit days must not be negative")
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	supplier := Supplier{
		CompanyId:     companyId,
		SupplierName:  input.SupplierName,
		ContactPerson: input.ContactPerson,
		Phone:         input.Phone,
		Email:         input.Email,
		Gstin:         input.Gstin,
		Address:       input.Address,
		City:          input.City,
		State:         input.State,
		CreditDays:    input.CreditDays,
		BankName:      input.BankName,
		AccountNumber: input.AccountNumber,
		IfscCode:      input.IfscCode,
		IsActive:      utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func ListSuppliers(ctx context.Context) ([]*Supplier, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchAllModels[Supplier](ctx, companyId)
}
