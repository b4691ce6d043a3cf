package rest

import (
	"net/http"

	"bitbucket.org/auricsoft/atelier_backend/models"
	"github.com/gin-gonic/gin"
)

func signinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.SigninInput
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		result, err := models.Signin(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func createCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCompany
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		company, err := models.CreateCompany(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, company)
	}
}

func getCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		company, err := models.GetCompany(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, company)
	}
}

func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewAppUser
		if err := c.ShouldBindJSON(&input); err != nil {
			abortWithBindingError(c, err)
			return
		}
		user, err := models.CreateAppUser(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}
