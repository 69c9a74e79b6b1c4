package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openbid/auction-platform/internal/bidding"
)

// RegisterBidHandlers wires the bidding surface. Bidder identity comes from
// the gateway's auth layer via header; resolving it is not this service's job.
func RegisterBidHandlers(r *gin.Engine, svc *bidding.Service) {
	v1 := r.Group("/v1")
	{
		v1.POST("/bids", placeBidHandler(svc))
		v1.GET("/bids/:auctionID", listBidsHandler(svc))
	}
}

type placeBidReq struct {
	AuctionID string `json:"auction_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
}

func placeBidHandler(svc *bidding.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req placeBidReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		auctionID, err := uuid.Parse(req.AuctionID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
			return
		}
		bidder := c.GetHeader("X-User")
		if bidder == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bidder identity"})
			return
		}

		bid, err := svc.PlaceBid(c, auctionID, bidder, req.Amount)
		if err != nil {
			switch {
			case errors.Is(err, bidding.ErrValidation):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, bidding.ErrSelfBid):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, bidding.ErrAuctionNotFound):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, bidding.ErrConcurrentBid):
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(http.StatusOK, bid)
	}
}

func listBidsHandler(svc *bidding.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		auctionID, err := uuid.Parse(c.Param("auctionID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
			return
		}
		bids, err := svc.GetBidsForAuction(c, auctionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, bids)
	}
}
