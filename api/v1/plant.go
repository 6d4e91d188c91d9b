package v1

import (
	"net/http"

	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/services"
	"github.com/gin-gonic/gin"
)

// PlantController handles plant API endpoints
type PlantController struct {
	plantService *services.PlantService
}

// NewPlantController creates a new plant controller
func NewPlantController(plantService *services.PlantService) *PlantController {
	return &PlantController{plantService: plantService}
}

// RegisterRoutes registers plant routes
func (pc *PlantController) RegisterRoutes(router *gin.RouterGroup) {
	plants := router.Group("/plants")
	{
		plants.GET("", pc.ListPlants)
		plants.POST("", pc.CreatePlant)
		plants.GET("/:id", pc.GetPlant)
		plants.PUT("/:id", pc.UpdatePlant)
		plants.DELETE("/:id", pc.DeletePlant)
	}
}

// ListPlants returns a page of plants visible to the caller
func (pc *PlantController) ListPlants(c *gin.Context) {
	var filter dto.PlantFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}
	scope, err := callerFrom(c).scopeFor(filter.BreederID)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := pc.plantService.List(filter, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, page)
}

// CreatePlant registers a plant code for the caller's breeder
func (pc *PlantController) CreatePlant(c *gin.Context) {
	var req dto.CreatePlantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	who := callerFrom(c)
	breederID, err := services.ResolveBreederID(who.Role, who.BreederID, req.BreederID)
	if err != nil {
		respondError(c, err)
		return
	}

	plant, err := pc.plantService.Create(req.PlantCode, breederID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, dto.NewPlantResponse(plant))
}

// GetPlant retrieves a single plant
func (pc *PlantController) GetPlant(c *gin.Context) {
	id, scope, err := pc.target(c)
	if err != nil {
		respondError(c, err)
		return
	}
	plant, err := pc.plantService.Get(id, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.NewPlantResponse(plant))
}

// UpdatePlant renames a plant
func (pc *PlantController) UpdatePlant(c *gin.Context) {
	id, scope, err := pc.target(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req dto.UpdatePlantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	plant, err := pc.plantService.Rename(id, req.PlantCode, scope)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, dto.NewPlantResponse(plant))
}

// DeletePlant removes a plant with its measurements and files
func (pc *PlantController) DeletePlant(c *gin.Context) {
	id, scope, err := pc.target(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := pc.plantService.Delete(id, scope); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Plant deleted",
	})
}

func (pc *PlantController) target(c *gin.Context) (uint, *uint, error) {
	id, err := uintParam(c, "id")
	if err != nil {
		return 0, nil, err
	}
	breederID, err := optionalUintQuery(c, "breeder_id")
	if err != nil {
		return 0, nil, err
	}
	scope, err := callerFrom(c).scopeFor(breederID)
	return id, scope, err
}
