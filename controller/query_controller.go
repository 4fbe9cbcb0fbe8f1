package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plantops/manualrag/models"
)

// Queryer answers a question against the indexed corpus.
type Queryer interface {
	Query(ctx context.Context, question string, topK int) (*models.QueryResponse, error)
}

// QueryController handles the public /query endpoint.
type QueryController struct {
	queries Queryer
}

func NewQueryController(queries Queryer) *QueryController {
	return &QueryController{queries: queries}
}

// Query is the gin handler for POST /query.
func (c *QueryController) Query(ctx *gin.Context) {
	var req models.QueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}

	response, err := c.queries.Query(ctx.Request.Context(), req.Question, req.TopK)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}
	ctx.JSON(http.StatusOK, response)
}
