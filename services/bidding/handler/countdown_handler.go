package handler

import (
	"context"
	"net/http"

	"auction-marketplace/internal/clock"
	"auction-marketplace/internal/models"
	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

// CountdownHandler handles GET /products/:id/countdown
func (h *BiddingHandler) CountdownHandler(c *gin.Context) {
	listingID := c.Param("id")
	countdown, end, err := h.service.Countdown(listingID)
	if err != nil {
		helpers.RespondError(c, "CountdownHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToCountdownResponse(countdown, end), "countdown retrieved successfully")
}

// CountdownStreamHandler handles GET /ws/products/:id/countdown. It pushes the
// remaining time every refresh interval until the auction expires or the
// client disconnects.
func (h *BiddingHandler) CountdownStreamHandler(c *gin.Context) {
	listingID := c.Param("id")
	_, end, err := h.service.Countdown(listingID)
	if err != nil {
		helpers.RespondError(c, "CountdownStreamHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	conn, err := helpers.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Warn("CountdownStreamHandler: upgrade failed", map[string]any{"listing_id": listingID, "error": err.Error()})
		return
	}
	defer helpers.Close(conn)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	helpers.WatchPeer(conn, cancel)

	utils.Info("CountdownStreamHandler: stream opened", map[string]any{"listing_id": listingID})

	clock.Watch(ctx, end, h.opts.CountdownRefresh, h.now, func(cd models.Countdown) {
		if err := helpers.WriteJSON(conn, helpers.ToCountdownResponse(cd, end)); err != nil {
			cancel()
		}
	})

	utils.Info("CountdownStreamHandler: stream closed", map[string]any{"listing_id": listingID})
}
