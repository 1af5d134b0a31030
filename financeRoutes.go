package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hosteldesk/hostel_backend/middlewares"
	"github.com/hosteldesk/hostel_backend/models"
	"github.com/hosteldesk/hostel_backend/utils"
)

func registerFinanceRoutes(r *gin.Engine) {
	authed := r.Group("/", middlewares.RequireAuth())

	income := authed.Group("/income")
	income.GET("", listIncomeHandler())
	income.POST("", createIncomeHandler())
	income.PUT("/:id", updateIncomeHandler())
	income.DELETE("/:id", deleteIncomeHandler())

	expenses := authed.Group("/expenses")
	expenses.GET("", listExpensesHandler())
	expenses.POST("", createExpenseHandler())
	expenses.PUT("/:id", updateExpenseHandler())
	expenses.DELETE("/:id", deleteExpenseHandler())

	reports := authed.Group("/reports")
	reports.GET("/collections", collectionsHandler())
	reports.GET("/profit-loss", profitLossHandler())
}

// queryDateRange parses optional from/to query params.
func queryDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	var from, to time.Time
	var err error
	if v := c.Query("from"); v != "" {
		from, err = time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be in YYYY-MM-DD format"})
			return from, to, false
		}
	}
	if v := c.Query("to"); v != "" {
		to, err = time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be in YYYY-MM-DD format"})
			return from, to, false
		}
	}
	return from, to, true
}

func listIncomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := queryDateRange(c)
		if !ok {
			return
		}
		entries, err := models.ListIncome(c.Request.Context(), queryInt(c, "hostel_id"), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

func createIncomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewIncome
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		income, err := models.CreateIncome(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, income)
	}
}

func updateIncomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.UpdateIncome
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		income, err := models.UpdateIncomeById(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, income)
	}
}

func deleteIncomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		if err := models.DeleteIncomeById(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

func listExpensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := queryDateRange(c)
		if !ok {
			return
		}
		entries, err := models.ListExpenses(c.Request.Context(), queryInt(c, "hostel_id"), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

func createExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewExpense
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		expense, err := models.CreateExpense(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, expense)
	}
}

func updateExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.UpdateExpense
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		expense, err := models.UpdateExpenseById(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, expense)
	}
}

func deleteExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		if err := models.DeleteExpenseById(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

func collectionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := queryDateRange(c)
		if !ok {
			return
		}
		report, err := models.GetCollections(c.Request.Context(), queryInt(c, "hostel_id"), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func profitLossHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := queryDateRange(c)
		if !ok {
			return
		}
		report, err := models.GetProfitLoss(c.Request.Context(), queryInt(c, "hostel_id"), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
