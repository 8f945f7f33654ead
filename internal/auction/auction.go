// Package auction implements the auction lifecycle: per-room records, the
// registry that scopes them, and the manager that drives bidding, scheduled
// closure and status refresh.
package auction

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Errors returned by auction operations.
var (
	ErrInvalidAmount     = errors.New("invalid amount format")
	ErrInvalidDuration   = errors.New("invalid or too short duration")
	ErrAuctionInProgress = errors.New("an auction is already running in this channel")
	ErrGuildCapacity     = errors.New("concurrent auction limit reached for this server")
	ErrNoActiveAuction   = errors.New("no active auction in this channel")
	ErrBidTooLow         = errors.New("bid does not meet the minimum increment")
	ErrNotAuthorized     = errors.New("not authorized to close this auction")
)

// RoomKey scopes one auction to one conversation context.
type RoomKey struct {
	GuildID   string
	ChannelID string
}

func (k RoomKey) String() string { return k.GuildID + "/" + k.ChannelID }

// bidEntry is a bidder's best bid. seq orders entries for deterministic
// tie-breaking: the earliest entry at the winning amount wins.
type bidEntry struct {
	amount decimal.Decimal
	placed time.Time
	seq    uint64
}

// Auction is one active auction. It is safe for concurrent use.
// ID, Item, Room, CreatedBy, StartingBid, MinIncrement and EndTime are
// fixed at creation; everything mutable lives behind the mutex.
type Auction struct {
	ID           string
	Item         string
	Room         RoomKey
	CreatedBy    string
	StartingBid  decimal.Decimal
	MinIncrement decimal.Decimal
	EndTime      time.Time

	mu         sync.Mutex
	currentBid decimal.Decimal
	leader     string
	bidders    map[string]bidEntry
	bidSeq     uint64
	active     bool
	winner     string
	messageRef string
	version    uint64

	// renderMu serializes renders so an older render can never overwrite
	// a newer one. lastRendered is guarded by renderMu, not mu.
	renderMu     sync.Mutex
	lastRendered uint64
}

// New creates an open auction record.
func New(id string, room RoomKey, item, createdBy string, startingBid, minIncrement decimal.Decimal, endTime time.Time) *Auction {
	return &Auction{
		ID:           id,
		Item:         item,
		Room:         room,
		CreatedBy:    createdBy,
		StartingBid:  startingBid,
		MinIncrement: minIncrement,
		EndTime:      endTime,
		currentBid:   startingBid,
		bidders:      make(map[string]bidEntry),
		active:       true,
		version:      1,
	}
}

// PlaceBid validates and records a bid. The bid must strictly exceed the
// current bid and the step must be at least the minimum increment.
func (a *Auction) PlaceBid(bidder string, amt decimal.Decimal, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active {
		return ErrNoActiveAuction
	}
	if !amt.GreaterThan(a.currentBid) || amt.Sub(a.currentBid).LessThan(a.MinIncrement) {
		return ErrBidTooLow
	}

	a.bidSeq++
	a.bidders[bidder] = bidEntry{amount: amt, placed: now, seq: a.bidSeq}
	a.currentBid = amt
	a.leader = bidder
	a.version++
	return nil
}

// finalize transitions the auction to closed and determines the winner:
// the highest bid, ties broken by the earliest-recorded entry. Returns
// already=true when the auction was closed by a racing caller.
func (a *Auction) finalize() (winner string, winningBid decimal.Decimal, hadBids, already bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active {
		return "", decimal.Zero, false, true
	}
	a.active = false

	for bidder, e := range a.bidders {
		better := !hadBids ||
			e.amount.GreaterThan(winningBid) ||
			(e.amount.Equal(winningBid) && e.seq < a.bidders[winner].seq)
		if better {
			winner, winningBid = bidder, e.amount
			hadBids = true
		}
	}
	a.winner = winner
	a.version++
	return winner, winningBid, hadBids, false
}

// SetMessageRef stores the handle of the rendered status message.
func (a *Auction) SetMessageRef(ref string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messageRef = ref
}

// Active reports whether the auction is still open.
func (a *Auction) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Snapshot is a consistent copy of auction state handed to the Notifier.
type Snapshot struct {
	ID            string
	Item          string
	Room          RoomKey
	CreatedBy     string
	StartingBid   decimal.Decimal
	CurrentBid    decimal.Decimal
	MinIncrement  decimal.Decimal
	EndTime       time.Time
	HighestBidder string
	BidCount      int
	Active        bool
	Winner        string
	MessageRef    string
	Version       uint64
}

// Snapshot copies the current state under the record lock.
func (a *Auction) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		ID:            a.ID,
		Item:          a.Item,
		Room:          a.Room,
		CreatedBy:     a.CreatedBy,
		StartingBid:   a.StartingBid,
		CurrentBid:    a.currentBid,
		MinIncrement:  a.MinIncrement,
		EndTime:       a.EndTime,
		HighestBidder: a.leader,
		BidCount:      len(a.bidders),
		Active:        a.active,
		Winner:        a.winner,
		MessageRef:    a.messageRef,
		Version:       a.version,
	}
}
