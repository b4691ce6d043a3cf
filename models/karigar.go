package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/utils"
)

// Karigar is the artisan/contractor a job bag is assigned to.
type Karigar struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId string    `gorm:"index;size:36;not null" json:"company_id"`
	FullName  string    `gorm:"size:100;not null" json:"full_name" binding:"required"`
	Phone     string    `gorm:"size:20" json:"phone"`
	City      string    `gorm:"size:100" json:"city"`
	Notes     string    `gorm:"type:text" json:"notes"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewKarigar struct {
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
	Notes    string `json:"notes"`
}

func (input *NewKarigar) validate(ctx context.Context, companyId string, id int) error {
	if err := utils.ValidateUnique[Karigar](ctx, companyId, "full_name", input.FullName, id); err != nil {
		return err
	}
	if len(strings.TrimSpace(input.Phone)) > 0 {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errors.New("invalid phone number")
		}
	}
	return nil
}

func CreateKarigar(ctx context.Context, input *NewKarigar) (*Karigar, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	karigar := Karigar{
		CompanyId: companyId,
		FullName:  input.FullName,
		Phone:     input.Phone,
		City:      input.City,
		Notes:     input.Notes,
		IsActive:  utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&karigar).Error; err != nil {
		return nil, err
	}
	return &karigar, nil
}

func ListKarigars(ctx context.Context) ([]*Karigar, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchAllModels[Karigar](ctx, companyId)
}
