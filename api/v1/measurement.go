package v1

import (
	"bytes"
	"net/http"

	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MeasurementController handles measurement, import and summary endpoints
type MeasurementController struct {
	measurementService *services.MeasurementService
	importService      *services.ImportService
}

// NewMeasurementController creates a new measurement controller
func NewMeasurementController(measurementService *services.MeasurementService, importService *services.ImportService) *MeasurementController {
	return &MeasurementController{
		measurementService: measurementService,
		importService:      importService,
	}
}

// RegisterRoutes registers measurement routes
func (mc *MeasurementController) RegisterRoutes(router *gin.RouterGroup) {
	measurements := router.Group("/measurements")
	{
		measurements.GET("", mc.ListMeasurements)
		measurements.POST("", mc.CreateMeasurement)
		measurements.POST("/upsert", mc.UpsertMeasurement)
		measurements.GET("/download-template", mc.DownloadTemplate)
		measurements.POST("/import", mc.ImportMeasurements)
		measurements.GET("/:id", mc.GetMeasurement)
		measurements.PUT("/:id", mc.UpdateMeasurement)
		measurements.DELETE("/:id", mc.DeleteMeasurement)
	}

	router.GET("/summary", mc.Summary)
	router.GET("/plant/:plant/unique-measurement-dates", mc.UniqueDates)
}

// ListMeasurements returns a filtered page ordered by date
func (mc *MeasurementController) ListMeasurements(c *gin.Context) {
	var filter dto.MeasurementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}
	scope, err := callerFrom(c).scopeFor(filter.BreederID)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := mc.measurementService.List(filter, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, page)
}

// CreateMeasurement inserts a new measurement; a duplicate (plant, date) is a conflict
func (mc *MeasurementController) CreateMeasurement(c *gin.Context) {
	var req dto.CreateMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	breederID, err := callerFrom(c).breederFor(c)
	if err != nil {
		respondError(c, err)
		return
	}

	m, err := mc.measurementService.Create(req, breederID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, dto.NewMeasurementResponse(m))
}

// UpsertMeasurement inserts or replaces the measurement of a (plant, date) pair
func (mc *MeasurementController) UpsertMeasurement(c *gin.Context) {
	var req dto.CreateMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	breederID, err := callerFrom(c).breederFor(c)
	if err != nil {
		respondError(c, err)
		return
	}

	m, created, err := mc.measurementService.Upsert(req, breederID)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondSuccess(c, status, dto.NewMeasurementResponse(m))
}

// GetMeasurement retrieves a single measurement with its fruits
func (mc *MeasurementController) GetMeasurement(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	scope, err := mc.readScope(c)
	if err != nil {
		respondError(c, err)
		return
	}

	m, err := mc.measurementService.Get(id, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.NewMeasurementResponse(m))
}

// UpdateMeasurement applies a partial update
func (mc *MeasurementController) UpdateMeasurement(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req dto.UpdateMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	breederID, err := callerFrom(c).breederFor(c)
	if err != nil {
		respondError(c, err)
		return
	}

	m, err := mc.measurementService.Update(id, req, breederID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.NewMeasurementResponse(m))
}

// DeleteMeasurement removes a measurement and its fruits
func (mc *MeasurementController) DeleteMeasurement(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	scope, err := mc.readScope(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := mc.measurementService.Delete(id, scope); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Measurement deleted",
	})
}

// DownloadTemplate serves a CSV with the import header and one sample row
func (mc *MeasurementController) DownloadTemplate(c *gin.Context) {
	var buf bytes.Buffer
	if err := services.WriteCSV(&buf, services.TemplateHeader, [][]string{services.TemplateSample}); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="measurement_template.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// ImportMeasurements upserts every row of an uploaded CSV or XLSX file
func (mc *MeasurementController) ImportMeasurements(c *gin.Context) {
	breederID, err := callerFrom(c).breederFor(c)
	if err != nil {
		respondError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "file is required",
		})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	rows, err := services.ReadRows(header.Filename, file, services.DefaultColumns.Measurement)
	if err != nil {
		respondError(c, err)
		return
	}

	result := mc.importService.Import(rows, breederID)
	zap.L().Info("measurement import finished",
		zap.String("filename", header.Filename),
		zap.Uint("breeder_id", breederID),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)),
	)
	respondSuccess(c, http.StatusOK, result)
}

// Summary aggregates the caller's measurements within an optional date range
func (mc *MeasurementController) Summary(c *gin.Context) {
	breederID, err := callerFrom(c).breederFor(c)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := mc.measurementService.Summary(breederID, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, summary)
}

// UniqueDates lists the dates on which a plant code was measured
func (mc *MeasurementController) UniqueDates(c *gin.Context) {
	scope, err := mc.readScope(c)
	if err != nil {
		respondError(c, err)
		return
	}

	dates, err := mc.measurementService.UniqueDates(c.Param("plant"), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dates)
}

func (mc *MeasurementController) readScope(c *gin.Context) (*uint, error) {
	target, err := optionalUintQuery(c, "breeder_id")
	if err != nil {
		return nil, err
	}
	return callerFrom(c).scopeFor(target)
}
