package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/autotraits-be/middleware"
	"github.com/autotraits-be/models"
	"github.com/autotraits-be/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a service error onto the JSON error envelope
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		body := gin.H{
			"status":  "error",
			"message": validationErr.Message,
			"field":   validationErr.Field,
		}
		if validationErr.FruitIndex >= 0 {
			body["fruit_index"] = validationErr.FruitIndex
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	var svcErr *services.Error
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrBadRequest), errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrUpstream):
		status = http.StatusBadGateway
	}

	if errors.As(err, &svcErr) {
		message = svcErr.Message
	} else if status == http.StatusBadGateway {
		message = err.Error()
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		_ = c.Error(err)
	}

	c.JSON(status, gin.H{
		"status":  "error",
		"message": message,
	})
}

// respondBindError reports a malformed request body or query
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  "error",
		"message": "Invalid request",
		"error":   err.Error(),
	})
}

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   data,
	})
}

// caller is the authenticated identity set by AuthMiddleware
type caller struct {
	UserID    uint
	Role      models.Role
	BreederID *uint
}

func callerFrom(c *gin.Context) caller {
	var who caller
	if v, ok := c.Get(middleware.ContextUserID); ok {
		who.UserID, _ = v.(uint)
	}
	if v, ok := c.Get(middleware.ContextRole); ok {
		role, _ := v.(string)
		who.Role = models.Role(role)
	}
	if v, ok := c.Get(middleware.ContextBreederID); ok {
		who.BreederID, _ = v.(*uint)
	}
	return who
}

// breederFor resolves the tenant a write acts on from the breeder_id query parameter
func (who caller) breederFor(c *gin.Context) (uint, error) {
	target, err := optionalUintQuery(c, "breeder_id")
	if err != nil {
		return 0, err
	}
	return services.ResolveBreederID(who.Role, who.BreederID, target)
}

// scopeFor resolves the tenant filter of a read; nil means every tenant
func (who caller) scopeFor(target *uint) (*uint, error) {
	return services.ResolveBreederScope(who.Role, who.BreederID, target)
}

func optionalUintQuery(c *gin.Context, key string) (*uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, &services.Error{Kind: services.ErrBadRequest, Message: key + " must be a positive integer"}
	}
	id := uint(n)
	return &id, nil
}

func uintParam(c *gin.Context, key string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil {
		return 0, &services.Error{Kind: services.ErrBadRequest, Message: "Invalid " + key}
	}
	return uint(n), nil
}
