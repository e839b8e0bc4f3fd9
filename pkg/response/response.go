package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every failed response. Successful responses carry
// the same success/message pair with their payload fields next to it.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	HasNext  bool `json:"has_next"`
}

func NewMeta(page, pageSize, total int) *Meta {
	return &Meta{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasNext:  page*pageSize < total,
	}
}

func success(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{}
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// OK sends a 200 with message and payload fields at the top level
func OK(c *gin.Context, message string, payload gin.H) {
	success(c, http.StatusOK, message, payload)
}

// Created sends a 201 for successfully created resources
func Created(c *gin.Context, message string, payload gin.H) {
	success(c, http.StatusCreated, message, payload)
}

// Message sends a success response with just a message
func Message(c *gin.Context, message string) {
	success(c, http.StatusOK, message, nil)
}

// Raw sends v as is. Used where clients expect a bare array.
func Raw(c *gin.Context, v any) {
	c.JSON(http.StatusOK, v)
}

// --- Error Responses ---

func errorResponse(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Message: message,
		Code:    code,
	})
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	errorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "unauthorized"
	}
	errorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "resource not found"
	}
	errorResponse(c, http.StatusNotFound, "NOT_FOUND", message)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	errorResponse(c, http.StatusConflict, "CONFLICT", message)
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "rate limit exceeded, please try again later"
	}
	errorResponse(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", message)
}

// InternalError sends a 500 response
// Note: Never expose internal error details to clients
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Server Error"
	}
	errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
