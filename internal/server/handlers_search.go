package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
	"github.com/MarcoPoloResearchLab/clipstore/internal/search"
	"github.com/gin-gonic/gin"
)

const maxSearchQueryLength = 256

type searchResponsePayload struct {
	Query string          `json:"query"`
	Items []search.Result `json:"items"`
}

func (h *httpHandler) handleSearch(c *gin.Context) {
	text := c.Query("q")
	if len(text) > maxSearchQueryLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query_too_long"})
		return
	}
	categoryID, ok := parseQueryInt(c, "category_id")
	if !ok {
		return
	}

	started := h.clock()
	results := h.search.Search(search.Query{Text: text, CategoryID: catalog.CategoryID(categoryID)})
	h.metrics.RecordSearch(h.clock().Sub(started), len(results))

	c.JSON(http.StatusOK, searchResponsePayload{Query: text, Items: results})
}
