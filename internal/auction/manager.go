package auction

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/discord-auction-bot/internal/amount"
	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
	"github.com/jensholdgaard/discord-auction-bot/internal/duration"
)

// DefaultMinDuration is the shortest auction a caller may start.
const DefaultMinDuration = 3 * time.Minute

// Refresh cadence thresholds: the further away the deadline, the less
// often the status message is re-rendered.
const (
	week = 7 * 24 * time.Hour
	day  = 24 * time.Hour
)

// Manager coordinates auction lifecycle and concurrency. Each auction gets
// a closure timer and a refresh loop; both share one cancellable context
// tracked per room so closing an auction reaps its background work.
type Manager struct {
	registry    *Registry
	notifier    Notifier
	logger      *slog.Logger
	tracer      trace.Tracer
	clock       clock.Clock
	minDuration time.Duration

	mu    sync.Mutex
	tasks map[RoomKey]context.CancelFunc
	wg    sync.WaitGroup
}

// NewManager creates a new auction Manager.
func NewManager(reg *Registry, notifier Notifier, logger *slog.Logger, tp trace.TracerProvider, clk clock.Clock, minDuration time.Duration) *Manager {
	if minDuration <= 0 {
		minDuration = DefaultMinDuration
	}
	return &Manager{
		registry:    reg,
		notifier:    notifier,
		logger:      logger,
		tracer:      tp.Tracer("github.com/jensholdgaard/discord-auction-bot/internal/auction"),
		clock:       clk,
		minDuration: minDuration,
		tasks:       make(map[RoomKey]context.CancelFunc),
	}
}

// StartAuction validates input, stores a new open auction for the room and
// schedules its automatic closure and periodic status refresh.
func (m *Manager) StartAuction(ctx context.Context, room RoomKey, creator, item, startingBidText, minIncrementText, durationText string) (*Auction, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.StartAuction",
		trace.WithAttributes(
			attribute.String("room", room.String()),
			attribute.String("item", item),
			attribute.String("creator", creator),
		),
	)
	defer span.End()

	startingBid, err := amount.Parse(startingBidText)
	if err != nil || startingBid.IsNegative() {
		return nil, ErrInvalidAmount
	}
	minIncrement, err := amount.Parse(minIncrementText)
	if err != nil || !minIncrement.IsPositive() {
		return nil, ErrInvalidAmount
	}
	d := duration.Parse(durationText)
	if d < m.minDuration {
		return nil, ErrInvalidDuration
	}

	a := New(uuid.NewString(), room, item, creator, startingBid, minIncrement, m.clock.Now().Add(d))
	if err := m.registry.Create(a); err != nil {
		return nil, err
	}

	// Initial render. A failed post is logged and the auction still runs;
	// the refresh loop has nothing to edit until a ref exists.
	if ref, renderErr := m.notifier.Render(ctx, a.Snapshot()); renderErr != nil {
		m.logger.ErrorContext(ctx, "initial auction render failed",
			slog.String("auction_id", a.ID),
			slog.Any("error", renderErr),
		)
	} else {
		a.SetMessageRef(ref)
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.tasks[room] = cancel
	m.mu.Unlock()

	m.wg.Add(2)
	go m.runCloseTimer(taskCtx, room, a.ID, a.EndTime)
	go m.runRefresh(taskCtx, room)

	m.logger.InfoContext(ctx, "auction started",
		slog.String("auction_id", a.ID),
		slog.String("room", room.String()),
		slog.String("item", item),
		slog.Time("end_time", a.EndTime),
	)
	return a, nil
}

// PlaceBid places a bid on the room's active auction. The status message
// is re-rendered asynchronously; bid acceptance never waits on Discord.
func (m *Manager) PlaceBid(ctx context.Context, room RoomKey, bidder, amountText string) (*Auction, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.PlaceBid",
		trace.WithAttributes(
			attribute.String("room", room.String()),
			attribute.String("bidder", bidder),
		),
	)
	defer span.End()

	amt, err := amount.Parse(amountText)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	a := m.registry.Get(room)
	if a == nil {
		return nil, ErrNoActiveAuction
	}
	if err := a.PlaceBid(bidder, amt, m.clock.Now()); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "bid placed",
		slog.String("auction_id", a.ID),
		slog.String("bidder", bidder),
		slog.String("amount", amount.Format(amt)),
	)

	renderCtx := context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.render(renderCtx, a, false)
	}()
	return a, nil
}

// CloseAuction finalizes the room's auction: it cancels the pending timer
// and refresh loop, determines the winner, renders the final state, emits
// the closing announcement and removes the record. A room with no record
// is a no-op success so that manual and automatic closure can race safely.
func (m *Manager) CloseAuction(ctx context.Context, room RoomKey, requester string, elevated, manual bool) (*Summary, error) {
	return m.close(ctx, room, requester, elevated, manual, "")
}

// close implements closure. A non-empty onlyID restricts it to that
// specific auction, so a stale timer firing after a manual close can
// never take down a replacement auction in the same room.
func (m *Manager) close(ctx context.Context, room RoomKey, requester string, elevated, manual bool, onlyID string) (*Summary, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.CloseAuction",
		trace.WithAttributes(
			attribute.String("room", room.String()),
			attribute.Bool("manual", manual),
		),
	)
	defer span.End()

	a := m.registry.Get(room)
	if a == nil || (onlyID != "" && a.ID != onlyID) {
		return nil, nil
	}
	if manual && requester != a.CreatedBy && !elevated {
		return nil, ErrNotAuthorized
	}

	m.cancelTasks(room)

	winner, winningBid, hadBids, already := a.finalize()
	if already {
		return nil, nil
	}
	m.registry.Remove(room)

	// Final render and announcement. Failures are logged; the auction is
	// closed and gone from the registry regardless.
	m.render(ctx, a, true)

	var text string
	if hadBids {
		text = fmt.Sprintf("The auction for %s is won by %s with a bid of %s!", a.Item, winner, amount.Format(winningBid))
	} else {
		text = fmt.Sprintf("The auction for %s has ended with no bids.", a.Item)
	}
	if err := m.notifier.Announce(ctx, room, text, hadBids); err != nil {
		m.logger.ErrorContext(ctx, "closing announcement failed",
			slog.String("auction_id", a.ID),
			slog.Any("error", err),
		)
	}

	m.logger.InfoContext(ctx, "auction closed",
		slog.String("auction_id", a.ID),
		slog.String("room", room.String()),
		slog.Bool("manual", manual),
		slog.String("winner", winner),
	)

	return &Summary{
		ID:         a.ID,
		Item:       a.Item,
		Room:       room,
		CurrentBid: winningBid,
		Winner:     winner,
		HadBids:    hadBids,
		EndTime:    a.EndTime,
	}, nil
}

// ListActive returns summaries of a guild's open auctions, soonest first.
func (m *Manager) ListActive(ctx context.Context, guildID string) []Summary {
	_, span := m.tracer.Start(ctx, "Manager.ListActive",
		trace.WithAttributes(attribute.String("guild_id", guildID)),
	)
	defer span.End()

	now := m.clock.Now()
	var out []Summary
	for _, a := range m.registry.ListGuild(guildID) {
		snap := a.Snapshot()
		remaining := snap.EndTime.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, Summary{
			ID:         snap.ID,
			Item:       snap.Item,
			Room:       snap.Room,
			CurrentBid: snap.CurrentBid,
			Winner:     snap.Winner,
			HadBids:    snap.BidCount > 0,
			EndTime:    snap.EndTime,
			Remaining:  remaining,
		})
	}
	return out
}

// Shutdown cancels all background tasks and waits for them to exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for room, cancel := range m.tasks {
		cancel()
		delete(m.tasks, room)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) cancelTasks(room RoomKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.tasks[room]; ok {
		cancel()
		delete(m.tasks, room)
	}
}

// runCloseTimer sleeps until the deadline and triggers automatic closure
// of the auction it was scheduled for. Cancellation wins over a concurrent
// fire because closure is idempotent.
func (m *Manager) runCloseTimer(ctx context.Context, room RoomKey, id string, endTime time.Time) {
	defer m.wg.Done()

	select {
	case <-ctx.Done():
		return
	case <-m.clock.After(endTime.Sub(m.clock.Now())):
	}

	if _, err := m.close(context.WithoutCancel(ctx), room, "", false, false, id); err != nil {
		m.logger.Error("automatic auction closure failed",
			slog.String("room", room.String()),
			slog.Any("error", err),
		)
	}
}

// runRefresh re-renders the status message on an adaptive cadence until
// the auction disappears. Render failures do not stop the loop.
func (m *Manager) runRefresh(ctx context.Context, room RoomKey) {
	defer m.wg.Done()

	for {
		a := m.registry.Get(room)
		if a == nil || !a.Active() {
			return
		}

		remaining := a.EndTime.Sub(m.clock.Now())
		var interval time.Duration
		switch {
		case remaining > week:
			interval = day
		case remaining > day:
			interval = time.Hour
		default:
			interval = time.Minute
		}

		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(interval):
		}

		if a = m.registry.Get(room); a == nil || !a.Active() {
			return
		}
		m.render(ctx, a, true)
	}
}

// render serializes status updates per auction. Without force, a version
// already rendered is skipped; with force the current state is re-rendered
// so the remaining-time display stays fresh.
func (m *Manager) render(ctx context.Context, a *Auction, force bool) {
	a.renderMu.Lock()
	defer a.renderMu.Unlock()

	snap := a.Snapshot()
	if snap.MessageRef == "" {
		return
	}
	if !force && snap.Version <= a.lastRendered {
		return
	}

	if err := m.notifier.Update(ctx, snap.MessageRef, snap); err != nil {
		m.logger.ErrorContext(ctx, "auction status render failed",
			slog.String("auction_id", snap.ID),
			slog.Any("error", err),
		)
		return
	}
	a.lastRendered = snap.Version
}
