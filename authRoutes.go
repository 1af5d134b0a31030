package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hosteldesk/hostel_backend/middlewares"
	"github.com/hosteldesk/hostel_backend/models"
	"github.com/hosteldesk/hostel_backend/utils"
)

// respondError maps domain errors onto HTTP statuses in one place.
func respondError(c *gin.Context, err error) {
	c.JSON(models.HTTPStatus(err), gin.H{"error": err.Error()})
}

func registerAuthRoutes(r *gin.Engine) {
	r.POST("/auth/login", loginHandler())

	users := r.Group("/users", middlewares.RequireAuth())
	users.POST("", createUserHandler())
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		info, err := models.Login(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}
