package outbid

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"auction-marketplace/internal/models"
	"auction-marketplace/internal/notification"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// listingWithBids builds a listing whose current bid follows its bids
func listingWithBids(id string, starting int64, bids ...models.Bid) models.Listing {
	l := models.Listing{
		ListingID:   id,
		Title:       "Title " + id,
		StartingBid: decimal.NewFromInt(starting),
		CurrentBid:  decimal.NewFromInt(starting),
		EndTime:     time.Now().Add(time.Hour),
		SellerID:    "seller",
	}
	for _, b := range bids {
		b.ListingID = id
		l.Bids = append(l.Bids, b)
		if b.Amount.GreaterThan(l.CurrentBid) {
			l.CurrentBid = b.Amount
		}
	}
	return l
}

// listingSet is an in-memory ListingSource whose contents tests swap out
type listingSet struct {
	mu       sync.Mutex
	listings []models.Listing
}

func newListingSet(listings ...models.Listing) *listingSet {
	return &listingSet{listings: listings}
}

func (s *listingSet) set(listings ...models.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings = listings
}

func (s *listingSet) GetListing(listingID string) (models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listings {
		if l.ListingID == listingID {
			return l.Clone(), nil
		}
	}
	return models.Listing{}, fmt.Errorf("listing %s not found", listingID)
}

func (s *listingSet) ListListings() []models.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l.Clone())
	}
	return out
}

func (s *listingSet) GetListingsByBidder(userID string) []models.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Listing
	for _, l := range s.listings {
		if _, n := l.HighestBidBy(userID); n > 0 {
			out = append(out, l.Clone())
		}
	}
	return out
}

func bid(userID string, amount int64) models.Bid {
	return models.Bid{BidderID: userID, Amount: decimal.NewFromInt(amount), CreatedAt: time.Now()}
}

func TestDetector_Evaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		listings   []models.Listing
		wantOutbid []string
	}{
		{
			name:     "no_bids_by_user",
			listings: []models.Listing{listingWithBids("l1", 10, bid("bob", 20))},
		},
		{
			name:     "user_is_highest",
			listings: []models.Listing{listingWithBids("l1", 10, bid("bob", 20), bid("alice", 30))},
		},
		{
			name:       "user_outbid",
			listings:   []models.Listing{listingWithBids("l1", 10, bid("alice", 20), bid("bob", 30))},
			wantOutbid: []string{"l1"},
		},
		{
			name: "outbid_on_some",
			listings: []models.Listing{
				listingWithBids("l1", 10, bid("alice", 20), bid("bob", 30)),
				listingWithBids("l2", 10, bid("bob", 20), bid("alice", 30)),
				listingWithBids("l3", 10, bid("alice", 15), bid("alice", 25), bid("carol", 26)),
			},
			wantOutbid: []string{"l1", "l3"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			center := notification.NewCenter()
			d := NewDetector(center, newListingSet(tc.listings...))

			got := d.Evaluate("alice")

			ids := make([]string, 0, len(got))
			for _, l := range got {
				ids = append(ids, l.ListingID)
			}
			require.ElementsMatch(t, tc.wantOutbid, ids)

			queue := center.For("alice").List()
			require.Len(t, queue, len(tc.wantOutbid))
			for _, n := range queue {
				require.Equal(t, models.NotificationOutbid, n.Kind)
				require.Contains(t, tc.wantOutbid, n.ListingID)
			}
		})
	}
}

func TestDetector_EmitsOncePerGeneration(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := NewMockNotifier(ctrl)
	source := newListingSet(listingWithBids("l1", 10, bid("alice", 20), bid("bob", 30)))
	d := NewDetector(notifier, source)

	// first observation notifies
	notifier.EXPECT().
		Notify("alice", gomock.Any()).
		DoAndReturn(func(userID string, n models.Notification) models.Notification {
			require.Equal(t, models.NotificationOutbid, n.Kind)
			require.Equal(t, "l1", n.ListingID)
			require.Equal(t, "You've been outbid on Title l1!", n.Message)
			return n
		}).
		Times(1)

	require.Len(t, d.Evaluate("alice"), 1)

	// condition persists, further bids by others do not re-trigger
	require.Empty(t, d.Evaluate("alice"))
	source.set(listingWithBids("l1", 10, bid("alice", 20), bid("bob", 30), bid("carol", 40)))
	require.Empty(t, d.Evaluate("alice"))

	// alice bids again, becomes highest, then is beaten: a new generation notifies once more
	notifier.EXPECT().Notify("alice", gomock.Any()).Return(models.Notification{}).Times(1)

	source.set(listingWithBids("l1", 10, bid("alice", 20), bid("bob", 30), bid("carol", 40), bid("alice", 50)))
	require.Empty(t, d.Evaluate("alice"))

	source.set(listingWithBids("l1", 10, bid("alice", 20), bid("bob", 30), bid("carol", 40), bid("alice", 50), bid("bob", 60)))
	require.Len(t, d.Evaluate("alice"), 1)
	require.Empty(t, d.Evaluate("alice"))
}

func TestDetector_DismissalDoesNotRetrigger(t *testing.T) {
	t.Parallel()

	center := notification.NewCenter()
	d := NewDetector(center, newListingSet(listingWithBids("l1", 10, bid("alice", 20), bid("bob", 30))))

	d.Evaluate("alice")
	center.For("alice").Clear()

	d.Evaluate("alice")
	require.Empty(t, center.For("alice").List())
}

func TestDetector_ListingChanged(t *testing.T) {
	t.Parallel()

	center := notification.NewCenter()
	d := NewDetector(center, newListingSet(listingWithBids("l1", 10, bid("alice", 20), bid("bob", 30), bid("carol", 40))))

	users := d.ListingChanged("l1")
	require.ElementsMatch(t, []string{"alice", "bob"}, users)

	require.Len(t, center.For("alice").List(), 1)
	require.Len(t, center.For("bob").List(), 1)
	require.Empty(t, center.For("carol").List())

	require.Empty(t, d.ListingChanged("l1"))
	require.Empty(t, d.ListingChanged("missing"))
}

// Two bids land before either caller runs detection. Whatever order the
// callers then run in, the user holding the top bid must not be told they
// were outbid.
func TestDetector_ListingChangedReadsCurrentState(t *testing.T) {
	t.Parallel()

	center := notification.NewCenter()
	source := newListingSet(listingWithBids("l1", 10, bid("u", 70), bid("v", 80)))
	d := NewDetector(center, source)

	// u re-bids to 90 before detection for v's bid has run
	source.set(listingWithBids("l1", 10, bid("u", 70), bid("v", 80), bid("u", 90)))

	require.Equal(t, []string{"v"}, d.ListingChanged("l1"))
	require.Empty(t, d.ListingChanged("l1"))

	require.Empty(t, center.For("u").List())
	require.Len(t, center.For("v").List(), 1)
}

func TestDetector_ListingsReplaced(t *testing.T) {
	t.Parallel()

	center := notification.NewCenter()
	d := NewDetector(center, newListingSet(
		listingWithBids("l1", 10, bid("alice", 20), bid("bob", 30)),
		listingWithBids("l2", 10, bid("bob", 20), bid("alice", 30)),
		listingWithBids("l3", 10),
	))

	require.Equal(t, 2, d.ListingsReplaced())
	require.Equal(t, 0, d.ListingsReplaced())
}

func TestDetector_AnonymousUser(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d := NewDetector(NewMockNotifier(ctrl), newListingSet(listingWithBids("l1", 10, bid("", 20), bid("bob", 30))))
	require.Nil(t, d.Evaluate(""))
}
