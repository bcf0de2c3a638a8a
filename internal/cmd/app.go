package cmd

import (
	"fmt"
	"strings"

	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/events"
	"auction-marketplace/internal/notification"
	"auction-marketplace/internal/outbid"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"
	"auction-marketplace/internal/session"
	"auction-marketplace/internal/storage"
	authhandler "auction-marketplace/services/auth/handler"
	handler "auction-marketplace/services/bidding/handler"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// app holds the wired process
type app struct {
	cfg       *config.Config
	repo      *repository.MemoryRepo
	center    *notification.Center
	service   *bidding.BiddingService
	sessions  *session.Service
	publisher events.Publisher
	router    *gin.Engine
}

func newApp(cfg *config.Config) (*app, error) {
	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	images, err := storage.NewDiskStore(cfg.Upload.Dir, cfg.Upload.PublicBaseURL, cfg.Upload.MaxBytes)
	if err != nil {
		return nil, err
	}

	publisher := newPublisher(cfg.Events)

	repo := repository.NewMemoryRepo()
	center := notification.NewCenter()
	detector := outbid.NewDetector(center, repo)
	service := bidding.NewBiddingService(repo, center, detector, publisher, images, bidding.Settings{
		DefaultDuration: cfg.Auction.DefaultDuration,
	})
	sessions := session.NewService(session.Options{
		OTPTTL:     cfg.Auth.OTPTTL,
		SessionTTL: cfg.Auth.SessionTTL,
	}, session.LogMailer{})

	if cfg.Server.Seed {
		if err := service.ReplaceListings(sampleListings()); err != nil {
			_ = publisher.Close()
			return nil, fmt.Errorf("seed listings: %w", err)
		}
	}

	router := server.SetupRouter(server.Dependencies{
		Bidding:  service,
		Sessions: sessions,
		Center:   center,
		Images:   images,
		Bids: handler.Options{
			SuggestedRaise:   decimal.NewFromFloat(cfg.Auction.SuggestedRaise),
			CountdownRefresh: cfg.Auction.CountdownRefresh,
		},
		Cookie: authhandler.CookieOptions{
			TTL:    cfg.Auth.SessionTTL,
			Secure: cfg.Auth.CookieSecure,
		},
	})

	return &app{
		cfg:       cfg,
		repo:      repo,
		center:    center,
		service:   service,
		sessions:  sessions,
		publisher: publisher,
		router:    router,
	}, nil
}

// newPublisher connects to NATS when configured. Bid events are best effort,
// so an unreachable broker degrades to a no-op publisher.
func newPublisher(cfg config.EventsConfig) events.Publisher {
	if cfg.NATSURL == "" {
		return events.NopPublisher{}
	}

	publisher, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		utils.Warn("bid events disabled: nats unavailable", map[string]any{
			"nats_url": cfg.NATSURL,
			"error":    err.Error(),
		})
		return events.NopPublisher{}
	}
	return publisher
}

// close waits for pending event publishes and releases the broker connection
func (a *app) close() {
	a.service.Wait()
	if err := a.publisher.Close(); err != nil {
		utils.Warn("failed to close event publisher", map[string]any{"error": err.Error()})
	}
}
