package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/middlewares"
	"github.com/hosteldesk/hostel_backend/models"
	"github.com/hosteldesk/hostel_backend/utils"
	"github.com/hosteldesk/hostel_backend/workflow"
	"gorm.io/gorm"
)

func registerFeeRoutes(r *gin.Engine) {
	authed := r.Group("/", middlewares.RequireAuth())

	fees := authed.Group("/fees")
	fees.GET("", listFeesHandler())
	fees.GET("/available-months", availableMonthsHandler())
	fees.GET("/previous-months", previousMonthsFeesHandler())
	fees.GET("/summary", feeSummaryHandler())
	fees.GET("/diagnose-carry-forward", diagnoseCarryForwardHandler())
	fees.POST("/generate", generateFeesHandler())
	fees.POST("/recalculate-month", recalculateMonthHandler())
	fees.POST("/recalculate-carry-forward", recalculateCarryForwardHandler())
	fees.DELETE("/period", rollbackPeriodHandler())
	fees.GET("/:id", getFeeHandler())
	fees.PUT("/:id", editFeeHandler())
	fees.POST("/:id/recalculate", recalculateFeeHandler())
	fees.GET("/:id/payments", listFeePaymentsHandler())
	fees.GET("/:id/adjustments", listFeeAdjustmentsHandler())
	fees.POST("/:id/adjustments", addAdjustmentHandler())

	payments := authed.Group("/payments")
	payments.POST("", recordPaymentHandler())
	payments.GET("/modes", paymentModesHandler())
	payments.PUT("/:id", updatePaymentHandler())
	payments.DELETE("/:id", deletePaymentHandler())
	payments.DELETE("/groups/:groupId", deletePaymentGroupHandler())
}

type generateFeesRequest struct {
	FeeYear   int   `json:"fee_year" binding:"required"`
	FeeMonth  int   `json:"fee_month" binding:"required"`
	HostelIds []int `json:"hostel_ids"`
	Async     bool  `json:"async"`
}

func generateFeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generateFeesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		ctx := c.Request.Context()
		// operators generate for their own hostel only; asking for a
		// foreign hostel is rejected, not silently re-scoped
		hostelIds, err := models.ResolveHostelScopeList(ctx, req.HostelIds)
		if err != nil {
			respondError(c, err)
			return
		}
		req.HostelIds = hostelIds

		if req.Async {
			cid, _ := utils.GetCorrelationIdFromContext(ctx)
			msgId, err := config.PublishGenerationTrigger(ctx, config.GenerationTrigger{
				FeeYear:       req.FeeYear,
				FeeMonth:      req.FeeMonth,
				HostelIds:     req.HostelIds,
				CorrelationId: cid,
			})
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"message_id": msgId, "correlation_id": cid})
			return
		}

		outcomes, err := workflow.GenerateMonthlyFees(config.GetDB(), config.GetLogger(), req.FeeYear, req.FeeMonth, req.HostelIds)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": outcomes})
	}
}

func listFeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := models.MonthlyFeeFilters{
			HostelId:  queryInt(c, "hostel_id"),
			StudentId: queryInt(c, "student_id"),
			FeeYear:   queryInt(c, "fee_year"),
			FeeMonth:  queryInt(c, "fee_month"),
			Status:    models.FeeStatus(c.Query("status")),
			Limit:     queryInt(c, "limit"),
			Offset:    queryInt(c, "offset"),
		}
		fees, err := models.ListMonthlyFees(c.Request.Context(), filters)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fees)
	}
}

func getFeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		fee, err := models.GetMonthlyFee(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fee)
	}
}

func editFeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input workflow.EditFeeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		fee, err := workflow.EditCurrentMonthFee(c.Request.Context(), config.GetLogger(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fee)
	}
}

func recalculateFeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		// scope check before touching the row
		if _, err := models.GetMonthlyFee(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		var fee *models.MonthlyFee
		err := config.GetDB().WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var err error
			fee, err = workflow.RecalculateFeeTotals(tx, config.GetLogger(), id)
			return err
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fee)
	}
}

type monthRepairRequest struct {
	HostelId int `json:"hostel_id"`
	FeeYear  int `json:"fee_year" binding:"required"`
	FeeMonth int `json:"fee_month" binding:"required"`
}

func recalculateMonthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req monthRepairRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		hostelId, err := models.RequireHostelScope(c.Request.Context(), req.HostelId)
		if err != nil {
			respondError(c, err)
			return
		}
		summary, err := workflow.RecalculateMonthTotals(config.GetDB(), config.GetLogger(), hostelId, req.FeeYear, req.FeeMonth)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func recalculateCarryForwardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req monthRepairRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		hostelId, err := models.RequireHostelScope(c.Request.Context(), req.HostelId)
		if err != nil {
			respondError(c, err)
			return
		}
		summary, err := workflow.RecalculateCarryForwardForMonth(c.Request.Context(), config.GetLogger(), hostelId, req.FeeYear, req.FeeMonth)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func diagnoseCarryForwardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		diagnosis, err := models.DiagnoseCarryForward(c.Request.Context(), queryInt(c, "hostel_id"), queryInt(c, "fee_year"), queryInt(c, "fee_month"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, diagnosis)
	}
}

func rollbackPeriodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req monthRepairRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		hostelId, err := models.RequireHostelScope(c.Request.Context(), req.HostelId)
		if err != nil {
			respondError(c, err)
			return
		}
		result, err := workflow.RollbackPeriod(c.Request.Context(), config.GetLogger(), hostelId, req.FeeYear, req.FeeMonth)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func availableMonthsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		periods, err := models.GetAvailableMonths(c.Request.Context(), queryInt(c, "hostel_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, periods)
	}
}

func previousMonthsFeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		feeYear, feeMonth := queryInt(c, "fee_year"), queryInt(c, "fee_month")
		if !workflow.ValidPeriod(feeYear, feeMonth) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fee_year and fee_month are required"})
			return
		}
		fees, err := models.GetPreviousMonthsFees(
			c.Request.Context(),
			queryInt(c, "hostel_id"),
			queryInt(c, "student_id"),
			feeYear,
			feeMonth,
		)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fees)
	}
}

func feeSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := models.GetMonthlyFeeSummary(c.Request.Context(), queryInt(c, "hostel_id"), queryInt(c, "fee_year"), queryInt(c, "fee_month"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func listFeePaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		payments, err := models.ListPaymentsForFee(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

func listFeeAdjustmentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		adjustments, err := models.ListAdjustmentsForFee(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, adjustments)
	}
}

func addAdjustmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewFeeAdjustment
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		adjustment, fee, err := workflow.AddAdjustment(c.Request.Context(), config.GetLogger(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"adjustment": adjustment, "fee": fee})
	}
}

func recordPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewFeePayment
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		result, err := workflow.RecordPayment(c.Request.Context(), config.GetLogger(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func paymentModesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.AllPaymentModes())
	}
}

func updatePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.UpdateFeePayment
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		fee, err := workflow.UpdatePaymentSlice(c.Request.Context(), config.GetLogger(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fee)
	}
}

func deletePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		fee, err := workflow.DeletePaymentSlice(c.Request.Context(), config.GetLogger(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fee)
	}
}

func deletePaymentGroupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		groupId := c.Param("groupId")
		if groupId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment group id"})
			return
		}
		fees, err := workflow.DeletePaymentGroup(c.Request.Context(), config.GetLogger(), groupId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"affected_fees": fees})
	}
}
