package cmd

import (
	"time"

	"auction-marketplace/internal/models"
	"auction-marketplace/utils"

	"github.com/shopspring/decimal"
)

// sampleListings returns a small demo catalogue, one listing already contested
func sampleListings() []models.Listing {
	now := time.Now().UTC()

	bid := func(listingID, bidder string, amount int64, ago time.Duration) models.Bid {
		return models.Bid{
			BidID:     utils.GenerateID(),
			ListingID: listingID,
			BidderID:  bidder,
			Amount:    decimal.NewFromInt(amount),
			CreatedAt: now.Add(-ago),
		}
	}

	return []models.Listing{
		{
			ListingID:   "listing1",
			Title:       "Vintage film camera",
			Description: "35mm rangefinder, recently serviced",
			Category:    "Electronics",
			StartingBid: decimal.NewFromInt(65),
			CurrentBid:  decimal.NewFromInt(65),
			EndTime:     now.Add(26 * time.Hour),
			SellerID:    "demo-seller",
			CreatedAt:   now.Add(-48 * time.Hour),
			Bids:        []models.Bid{},
		},
		{
			ListingID:   "listing2",
			Title:       "Oil painting, harbour at dusk",
			Description: "Framed original, 60x40cm",
			Category:    "Art",
			StartingBid: decimal.NewFromInt(100),
			CurrentBid:  decimal.NewFromInt(135),
			EndTime:     now.Add(3 * time.Hour),
			SellerID:    "demo-seller",
			CreatedAt:   now.Add(-72 * time.Hour),
			Bids: []models.Bid{
				bid("listing2", "demo-alice", 120, 2*time.Hour),
				bid("listing2", "demo-bob", 135, time.Hour),
			},
		},
		{
			ListingID:   "listing3",
			Title:       "Mountain bike",
			Description: "Aluminium frame, 29 inch wheels",
			Category:    "Sports",
			StartingBid: decimal.NewFromInt(150),
			CurrentBid:  decimal.NewFromInt(150),
			EndTime:     now.Add(7 * 24 * time.Hour),
			SellerID:    "demo-seller",
			CreatedAt:   now.Add(-time.Hour),
			Bids:        []models.Bid{},
		},
	}
}
