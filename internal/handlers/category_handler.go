package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"balanceboard/internal/catalog"
)

// CategoryHandler serves the fixed category catalog.
type CategoryHandler struct{}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// List godoc
// @Summary List all categories
// @Tags categories
// @Produce json
// @Success 200 {array} catalog.Category
// @Router /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.Default)
}
