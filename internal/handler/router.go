package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hyeongseol/academy-api/internal/middleware"
	"github.com/hyeongseol/academy-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth       *AuthHandler
	Teacher    *TeacherHandler
	Student    *StudentHandler
	Class      *ClassHandler
	Enrollment *EnrollmentHandler
	Attendance *AttendanceHandler
	Timetable  *TimetableHandler
	Dashboard  *DashboardHandler
	Report     *ReportHandler
	Metrics    *MetricsHandler
}

// RegisterRoutes mounts the API under the prefix. Everything except login,
// the kiosk check-in and signed report downloads sits behind JWT.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	// the kiosk runs unattended on a shared tablet, no staff token
	api.POST("/attendance/check-in", h.Attendance.CheckIn)
	// download tokens are signed and expiring; the URL is the credential
	api.GET("/reports/download/:token", h.Report.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	protected.GET("/auth/me", h.Auth.Me)

	protected.GET("/dashboard", h.Dashboard.Summary)

	protected.GET("/teachers", h.Teacher.List)
	protected.POST("/teachers", h.Teacher.Create)
	protected.GET("/teachers/:id", h.Teacher.Get)
	protected.PUT("/teachers/:id", h.Teacher.Update)
	protected.DELETE("/teachers/:id", h.Teacher.Delete)

	protected.GET("/students", h.Student.List)
	protected.POST("/students", h.Student.Create)
	protected.GET("/students/:id", h.Student.Get)
	protected.PUT("/students/:id", h.Student.Update)
	protected.DELETE("/students/:id", h.Student.Delete)
	protected.GET("/students/:id/enrollments", h.Student.ListEnrollments)
	protected.GET("/students/:id/summary", h.Student.Summary)
	protected.GET("/students/:id/qr-card", h.Student.QRCard)

	protected.GET("/classes", h.Class.List)
	protected.POST("/classes", h.Class.Create)
	protected.GET("/classes/:id", h.Class.Get)
	protected.PUT("/classes/:id", h.Class.Update)
	protected.DELETE("/classes/:id", h.Class.Delete)
	protected.GET("/classes/:id/slots", h.Class.Slots)

	protected.GET("/enrollments", h.Enrollment.List)
	protected.POST("/enrollments", h.Enrollment.Assign)
	protected.DELETE("/enrollments/:id", h.Enrollment.Unassign)

	protected.GET("/attendance", h.Attendance.List)
	protected.POST("/attendance/roll-call", h.Attendance.RollCall)
	protected.DELETE("/attendance/:id", h.Attendance.Delete)

	protected.GET("/timetable/week", h.Timetable.Week)
	protected.GET("/timetable/day/:day", h.Timetable.Day)
	protected.GET("/timetable/rooms", h.Timetable.Rooms)

	protected.POST("/reports", h.Report.Create)
	protected.GET("/reports", h.Report.List)
	protected.GET("/reports/:id", h.Report.Get)
	protected.GET("/exports/:registry", h.Report.ExportRegistry)
}
