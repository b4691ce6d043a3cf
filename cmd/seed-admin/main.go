// seed-admin provisions a company and its owner account for a fresh
// environment.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//   SEED_COMPANY_CODE=AURUM SEED_COMPANY_NAME="Aurum Jewels" \
//   SEED_OWNER_EMAIL=owner@example.com SEED_OWNER_PASSWORD=... \
//   go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/auricsoft/atelier_backend/config"
	"bitbucket.org/auricsoft/atelier_backend/models"
	"bitbucket.org/auricsoft/atelier_backend/utils"
)

func main() {
	companyCode := os.Getenv("SEED_COMPANY_CODE")
	companyName := os.Getenv("SEED_COMPANY_NAME")
	ownerEmail := os.Getenv("SEED_OWNER_EMAIL")
	ownerPassword := os.Getenv("SEED_OWNER_PASSWORD")
	if companyCode == "" || companyName == "" || ownerEmail == "" || ownerPassword == "" {
		fmt.Fprintln(os.Stderr, "SEED_COMPANY_CODE, SEED_COMPANY_NAME, SEED_OWNER_EMAIL and SEED_OWNER_PASSWORD are required")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 0)
	ctx = utils.SetUserNameInContext(ctx, "Seed")
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)

	company, err := models.CreateCompany(ctx, &models.NewCompany{
		LegalName:   companyName,
		CompanyCode: companyCode,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create company: %v\n", err)
		os.Exit(1)
	}

	ctx = utils.SetCompanyIdInContext(ctx, company.ID)
	user, err := models.CreateAppUser(ctx, &models.NewAppUser{
		Name:     "Owner",
		Email:    ownerEmail,
		Password: ownerPassword,
		Role:     models.UserRoleOwner,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create owner user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("company %s (%s) created with owner %s\n", company.CompanyCode, company.ID, user.Email)
}
