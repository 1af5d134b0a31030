package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hosteldesk/hostel_backend/middlewares"
	"github.com/hosteldesk/hostel_backend/models"
	"github.com/hosteldesk/hostel_backend/utils"
)

func registerDirectoryRoutes(r *gin.Engine) {
	authed := r.Group("/", middlewares.RequireAuth())

	hostels := authed.Group("/hostels")
	hostels.GET("", listHostelsHandler())
	hostels.GET("/:id", getHostelHandler())
	hostels.POST("", createHostelHandler())
	hostels.PUT("/:id", updateHostelHandler())

	rooms := authed.Group("/rooms")
	rooms.GET("", listRoomsHandler())
	rooms.POST("", createRoomHandler())
	rooms.PUT("/:id", updateRoomHandler())

	students := authed.Group("/students")
	students.GET("", listStudentsHandler())
	students.GET("/:id", getStudentHandler())
	students.POST("", createStudentHandler())
	students.PUT("/:id", updateStudentHandler())
	students.GET("/:id/payment-history", studentPaymentHistoryHandler())
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	value, _ := strconv.Atoi(c.Query(name))
	return value
}

func listHostelsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		hostels, err := models.ListHostels(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, hostels)
	}
}

func getHostelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		hostel, err := models.GetHostel(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, hostel)
	}
}

func createHostelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewHostel
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		hostel, err := models.CreateHostel(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, hostel)
	}
}

func updateHostelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.UpdateHostel
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		hostel, err := models.UpdateHostelById(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, hostel)
	}
}

func listRoomsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, err := models.ListRooms(c.Request.Context(), queryInt(c, "hostel_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rooms)
	}
}

func createRoomHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewRoom
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		room, err := models.CreateRoom(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, room)
	}
}

func updateRoomHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.UpdateRoom
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		room, err := models.UpdateRoomById(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, room)
	}
}

func listStudentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		activeOnly := c.Query("active") == "true"
		students, err := models.ListStudents(c.Request.Context(), queryInt(c, "hostel_id"), activeOnly)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, students)
	}
}

func getStudentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		student, err := models.GetStudent(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, student)
	}
}

func createStudentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewStudent
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		student, err := models.CreateStudent(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, student)
	}
}

func updateStudentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.UpdateStudent
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		student, err := models.UpdateStudentById(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, student)
	}
}

func studentPaymentHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		history, err := models.GetStudentPaymentHistory(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}
