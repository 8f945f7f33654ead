package auction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Notifier renders auction state toward the chat layer. Implementations
// must be safe for concurrent use; the manager serializes calls per
// auction but different auctions render in parallel.
type Notifier interface {
	// Render posts the initial status message and returns its handle.
	Render(ctx context.Context, snap Snapshot) (ref string, err error)
	// Update re-renders an existing status message.
	Update(ctx context.Context, ref string, snap Snapshot) error
	// Announce delivers the closing announcement for a room.
	Announce(ctx context.Context, room RoomKey, text string, won bool) error
}

// Summary is the caller-facing view of an auction used by close results
// and active listings.
type Summary struct {
	ID         string
	Item       string
	Room       RoomKey
	CurrentBid decimal.Decimal
	Winner     string
	HadBids    bool
	EndTime    time.Time
	Remaining  time.Duration
}
