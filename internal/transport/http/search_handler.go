package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openbid/auction-platform/internal/search"
)

// RegisterSearchHandlers wires the search query surface.
func RegisterSearchHandlers(r *gin.Engine, repo *search.Repository) {
	r.GET("/v1/search", searchHandler(repo))
}

func searchHandler(repo *search.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
		if page < 1 {
			page = 1
		}
		if pageSize < 1 || pageSize > 20 {
			pageSize = 10
		}
		q := search.Query{
			Term:     c.Query("q"),
			Seller:   c.Query("seller"),
			Winner:   c.Query("winner"),
			OrderBy:  c.Query("order_by"),
			Page:     page,
			PageSize: pageSize,
		}
		recs, total, err := repo.Search(c, q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"results":    recs,
			"total":      total,
			"page":       q.Page,
			"page_size":  q.PageSize,
			"total_page": (total + int64(q.PageSize) - 1) / int64(q.PageSize),
		})
	}
}
