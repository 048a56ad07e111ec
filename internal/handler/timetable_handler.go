package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hyeongseol/academy-api/internal/service"
	"github.com/hyeongseol/academy-api/pkg/response"
)

// TimetableHandler wires the projected grids to HTTP routes.
type TimetableHandler struct {
	timetable *service.TimetableService
}

// NewTimetableHandler constructs a new TimetableHandler.
func NewTimetableHandler(timetable *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetable: timetable}
}

// Week godoc
// @Summary Weekly teacher grid
// @Tags Timetable
// @Produce json
// @Param teacher_id query string false "Scope to one teacher"
// @Param teacher query string false "Filter by teacher label substring"
// @Success 200 {object} response.Envelope
// @Router /timetable/week [get]
func (h *TimetableHandler) Week(c *gin.Context) {
	timetable, err := h.timetable.TeacherWeek(
		c.Request.Context(),
		strings.TrimSpace(c.Query("teacher_id")),
		strings.TrimSpace(c.Query("teacher")),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Day godoc
// @Summary Per-room grid for one weekday
// @Tags Timetable
// @Produce json
// @Param day path string true "Weekday (월..일)"
// @Success 200 {object} response.Envelope
// @Router /timetable/day/{day} [get]
func (h *TimetableHandler) Day(c *gin.Context) {
	timetable, err := h.timetable.RoomDay(c.Request.Context(), c.Param("day"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Rooms godoc
// @Summary Configured room columns
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/rooms [get]
func (h *TimetableHandler) Rooms(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.timetable.Rooms(), nil)
}
