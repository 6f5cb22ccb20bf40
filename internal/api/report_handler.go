package api

import (
	"net/http"

	"alcyxob/jogging-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportHandler holds the report service dependency.
type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// reportScope returns the user the report is restricted to: nil (all
// users) for staff and superusers, the caller for plain joggers.
func reportScope(c *gin.Context) *primitive.ObjectID {
	caller := currentUser(c)
	if caller.IsStaff || caller.IsSuperuser {
		return nil
	}
	return &caller.ID
}

// GetReport handles GET /report: weekly average-speed records, newest
// week first, optionally narrowed by a ?filter= expression over user,
// week, distance, duration and avg_speed.
func (h *ReportHandler) GetReport(c *gin.Context) {
	records, err := h.reportService.Generate(c.Request.Context(), reportScope(c), c.Query("filter"))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate report")
		return
	}
	c.JSON(http.StatusOK, records)
}

// ExportReport handles POST /report/export: generates the report, renders
// it as CSV and archives it, returning the object key and download URL.
func (h *ReportHandler) ExportReport(c *gin.Context) {
	export, err := h.reportService.Export(c.Request.Context(), reportScope(c), c.Query("filter"))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to export report")
		return
	}
	c.JSON(http.StatusCreated, export)
}
