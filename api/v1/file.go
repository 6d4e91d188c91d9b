package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/middleware"
	"github.com/autotraits-be/models"
	"github.com/autotraits-be/services"
	"github.com/gin-gonic/gin"
)

// multipartOverhead covers form fields and part headers around the file itself
const multipartOverhead = 64 * 1024

// FileController handles plant image and scan uploads
type FileController struct {
	fileService *services.FileService
}

// NewFileController creates a new file controller
func NewFileController(fileService *services.FileService) *FileController {
	return &FileController{fileService: fileService}
}

// RegisterRoutes registers file routes. The :plant segment is a plant code
// on reads and a plant id on uploads.
func (fc *FileController) RegisterRoutes(router *gin.RouterGroup) {
	plant := router.Group("/plant")
	{
		plant.GET("/:plant/images", fc.ListImages)
		plant.POST("/:plant/upload-file", fc.RequestUpload)
		plant.POST("/:plant/upload-file-v2", fc.UploadFile)
		plant.POST("/:plant/bulk-upload", middleware.AdminMiddleware(), fc.BulkUpload)
	}

	router.POST("/files/update-status", fc.UpdateStatus)
}

// ListImages returns the files of a plant code with signed read URLs
func (fc *FileController) ListImages(c *gin.Context) {
	var query dto.PlantFileQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}
	scope, err := callerFrom(c).scopeFor(query.BreederID)
	if err != nil {
		respondError(c, err)
		return
	}

	files, err := fc.fileService.ListPlantFiles(c.Request.Context(), c.Param("plant"), query, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, files)
}

// RequestUpload registers a PENDING file and returns a signed write URL
func (fc *FileController) RequestUpload(c *gin.Context) {
	plantID, scope, err := fc.plantTarget(c)
	if err != nil {
		respondError(c, err)
		return
	}
	in := dto.FileIn{
		FileType:  models.FileType(c.Query("file_type")),
		Extension: c.Query("extension"),
	}
	if date := c.Query("date"); date != "" {
		in.Date = &date
	}

	ticket, err := fc.fileService.RegisterUpload(c.Request.Context(), plantID, in, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, ticket)
}

// UploadFile accepts the file bytes and stores them in the blob store
func (fc *FileController) UploadFile(c *gin.Context) {
	plantID, scope, err := fc.plantTarget(c)
	if err != nil {
		respondError(c, err)
		return
	}
	limit := fc.fileService.MaxUploadSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	header, err := c.FormFile("file")
	if err != nil {
		if bodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"status":  "error",
				"message": fmt.Sprintf("File too large (max %d bytes)", limit),
			})
			return
		}
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

	result, err := fc.fileService.UploadFile(c.Request.Context(), plantID,
		c.PostForm("date"), models.FileType(c.PostForm("file_type")),
		header.Filename, header.Size, file, scope)
	if err != nil {
		if errors.Is(err, services.ErrUpstream) && result.DBID != 0 {
			c.JSON(http.StatusBadGateway, gin.H{
				"status":  "error",
				"message": err.Error(),
				"data":    result,
			})
			return
		}
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, result)
}

// BulkUpload registers many PENDING files for one plant (admin only)
func (fc *FileController) BulkUpload(c *gin.Context) {
	plantID, err := uintParam(c, "plant")
	if err != nil {
		respondError(c, err)
		return
	}
	breederID, err := callerFrom(c).breederFor(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req dto.BulkUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tickets, err := fc.fileService.BulkRegister(c.Request.Context(), plantID, req.Files, breederID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, tickets)
}

// UpdateStatus moves PENDING files in the caller's scope to COMPLETED or FAILED
func (fc *FileController) UpdateStatus(c *gin.Context) {
	var req dto.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	target, err := optionalUintQuery(c, "breeder_id")
	if err != nil {
		respondError(c, err)
		return
	}
	scope, err := callerFrom(c).scopeFor(target)
	if err != nil {
		respondError(c, err)
		return
	}

	updated, err := fc.fileService.UpdateStatuses(req, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.StatusUpdateResponse{Updated: updated})
}

func (fc *FileController) plantTarget(c *gin.Context) (uint, *uint, error) {
	plantID, err := uintParam(c, "plant")
	if err != nil {
		return 0, nil, err
	}
	target, err := optionalUintQuery(c, "breeder_id")
	if err != nil {
		return 0, nil, err
	}
	scope, err := callerFrom(c).scopeFor(target)
	return plantID, scope, err
}

// bodyTooLarge reports whether multipart parsing stopped at the MaxBytesReader limit
func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
