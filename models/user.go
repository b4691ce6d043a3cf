package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/utils"
)

type AppUser struct {
	ID           int       `gorm:"primary_key" json:"id"`
	CompanyId    string    `gorm:"index;size:36;not null" json:"company_id"`
	Name         string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email" binding:"required"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null" json:"role"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAppUser struct {
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	Role     UserRole `json:"role" binding:"required"`
}

// CreateAppUser provisions an account in the caller's own company. The
// company comes from the authenticated context, never from the request body.
func CreateAppUser(ctx context.Context, input *NewAppUser) (*AppUser, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	if !utils.IsValidEmail(input.Email) {
		return nil, errors.New("invalid email")
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&AppUser{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate email")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := AppUser{
		CompanyId:    companyId,
		Name:         input.Name,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hashed),
		Role:         input.Role,
		IsActive:     utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type SigninInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SigninResult struct {
	Token string  `json:"token"`
	User  AppUser `json:"user"`
}

// Signin verifies credentials and returns a JWT carrying the user's company
// scope. Not tenant-scoped (the caller has no identity yet).
func Signin(ctx context.Context, input *SigninInput) (*SigninResult, error) {

	db := config.GetDB()
	var user AppUser
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).
		First(&user).Error
	if err != nil {
		return nil, errors.New("invalid email or password")
	}
	if user.IsActive != nil && !*user.IsActive {
		return nil, errors.New("user is inactive")
	}

	if err := utils.ComparePassword(user.PasswordHash, input.Password); err != nil {
		return nil, errors.New("invalid email or password")
	}

	token, err := utils.JwtGenerate(user.ID, user.CompanyId, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &SigninResult{Token: token, User: user}, nil
}
