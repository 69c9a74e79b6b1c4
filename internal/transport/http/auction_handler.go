package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openbid/auction-platform/internal/auction"
)

// RegisterAuctionHandlers wires the auction store's CRUD surface.
func RegisterAuctionHandlers(r *gin.Engine, svc *auction.Service) {
	v1 := r.Group("/v1")
	{
		v1.GET("/auctions", listAuctionsHandler(svc))
		v1.GET("/auctions/:id", getAuctionHandler(svc))
		v1.POST("/auctions", createAuctionHandler(svc))
		v1.PUT("/auctions/:id", updateAuctionHandler(svc))
		v1.DELETE("/auctions/:id", deleteAuctionHandler(svc))
	}
}

func listAuctionsHandler(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var since time.Time
		if raw := c.Query("since"); raw != "" {
			parsed, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since"})
				return
			}
			since = parsed
		}
		auctions, err := svc.ListUpdatedSince(c, since)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, auctions)
	}
}

func getAuctionHandler(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
			return
		}
		a, err := svc.Get(c, id)
		if err != nil {
			if errors.Is(err, auction.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

func createAuctionHandler(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auction.CreateAuctionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a, err := svc.Create(c, req)
		if err != nil {
			if errors.Is(err, auction.ErrValidation) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

func updateAuctionHandler(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
			return
		}
		var req auction.UpdateAuctionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a, err := svc.Update(c, id, req)
		if err != nil {
			if errors.Is(err, auction.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

func deleteAuctionHandler(svc *auction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
			return
		}
		if err := svc.Delete(c, id); err != nil {
			if errors.Is(err, auction.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusOK)
	}
}
