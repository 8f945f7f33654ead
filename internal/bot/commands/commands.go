package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/discord-auction-bot/internal/amount"
	"github.com/jensholdgaard/discord-auction-bot/internal/auction"
	"github.com/jensholdgaard/discord-auction-bot/internal/duration"
	"github.com/jensholdgaard/discord-auction-bot/internal/telemetry"
)

// Handlers process Discord interactions.
type Handlers struct {
	mgr         *auction.Manager
	logger      *slog.Logger
	tracer      trace.Tracer
	bidReaction bool
}

// NewHandlers creates new command handlers.
func NewHandlers(mgr *auction.Manager, logger *slog.Logger, tp trace.TracerProvider, bidReaction bool) *Handlers {
	return &Handlers{
		mgr:         mgr,
		logger:      logger,
		tracer:      tp.Tracer("github.com/jensholdgaard/discord-auction-bot/internal/bot/commands"),
		bidReaction: bidReaction,
	}
}

// SlashCommands returns the slash command definitions.
func SlashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "auction-start",
			Description: "Start an auction in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "item",
					Description: "Item to auction",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "starting-bid",
					Description: "Starting bid, e.g. 100 or 1.5k",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "min-increment",
					Description: "Minimum raise over the current bid, e.g. 10 or 5k",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "duration",
					Description: "Auction duration, e.g. '1d 2h 30m'",
					Required:    true,
				},
			},
		},
		{
			Name:        "bid",
			Description: "Place a bid on this channel's auction",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "amount",
					Description: "Bid amount, e.g. 250 or 2m",
					Required:    true,
				},
			},
		},
		{
			Name:        "auction-close",
			Description: "Close this channel's auction early (creator or staff)",
		},
		{
			Name:        "auction-list",
			Description: "List ongoing auctions in this server",
		},
	}
}

// InteractionCreate handles incoming slash command interactions.
func (h *Handlers) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, span := h.tracer.Start(context.Background(), "InteractionCreate",
		trace.WithAttributes(attribute.String("command", i.ApplicationCommandData().Name)),
	)
	defer span.End()

	telemetry.LogWithTrace(ctx, h.logger).InfoContext(ctx, "command received",
		slog.String("command", i.ApplicationCommandData().Name),
		slog.String("guild_id", i.GuildID),
	)

	if i.GuildID == "" || i.Member == nil {
		respond(s, i, "This command can only be used in a server.")
		return
	}

	switch i.ApplicationCommandData().Name {
	case "auction-start":
		h.handleStart(ctx, s, i)
	case "bid":
		h.handleBid(ctx, s, i)
	case "auction-close":
		h.handleClose(ctx, s, i)
	case "auction-list":
		h.handleList(ctx, s, i)
	default:
		respond(s, i, "Unknown command")
	}
}

func roomKey(i *discordgo.InteractionCreate) auction.RoomKey {
	return auction.RoomKey{GuildID: i.GuildID, ChannelID: i.ChannelID}
}

// elevated reports whether the member may close auctions they did not
// create. Evaluated from platform permissions, not by the engine.
func elevated(i *discordgo.InteractionCreate) bool {
	return i.Member.Permissions&(discordgo.PermissionAdministrator|discordgo.PermissionManageServer) != 0
}

func (h *Handlers) handleStart(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	item := opts[0].StringValue()
	startingBid := opts[1].StringValue()
	minIncrement := opts[2].StringValue()
	durationText := opts[3].StringValue()

	a, err := h.mgr.StartAuction(ctx, roomKey(i), i.Member.User.ID, item, startingBid, minIncrement, durationText)
	if err != nil {
		respond(s, i, errorMessage(err))
		return
	}
	respond(s, i, fmt.Sprintf("Auction started for **%s**, ends in %s.", item, duration.FormatRemaining(time.Until(a.EndTime))))
}

func (h *Handlers) handleBid(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	amountText := i.ApplicationCommandData().Options[0].StringValue()
	bidder := i.Member.DisplayName()

	a, err := h.mgr.PlaceBid(ctx, roomKey(i), bidder, amountText)
	if err != nil {
		respond(s, i, errorMessage(err))
		return
	}

	if h.bidReaction {
		respond(s, i, "✅")
		return
	}
	snap := a.Snapshot()
	respond(s, i, fmt.Sprintf("Current highest bid: **%s** by %s", amount.Format(snap.CurrentBid), snap.HighestBidder))
}

func (h *Handlers) handleClose(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	summary, err := h.mgr.CloseAuction(ctx, roomKey(i), i.Member.User.ID, elevated(i), true)
	if err != nil {
		respond(s, i, errorMessage(err))
		return
	}
	if summary == nil {
		respond(s, i, "No active auction in this channel.")
		return
	}
	respond(s, i, fmt.Sprintf("Auction for **%s** has been closed by %s.", summary.Item, i.Member.DisplayName()))
}

func (h *Handlers) handleList(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	summaries := h.mgr.ListActive(ctx, i.GuildID)
	if len(summaries) == 0 {
		respond(s, i, "There are no ongoing auctions in this server.")
		return
	}

	lines := make([]string, 0, len(summaries))
	for _, sum := range summaries {
		lines = append(lines, fmt.Sprintf(
			"Auction ID: %s\nItem: %s\nCurrent Bid: %s\nTime Remaining: %s",
			sum.ID, sum.Item, amount.Format(sum.CurrentBid), duration.FormatRemaining(sum.Remaining),
		))
	}
	respond(s, i, "**Ongoing Auctions:**\n"+strings.Join(lines, "\n\n"))
}

// errorMessage maps engine errors to user-facing text. Internal error
// detail is never surfaced.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, auction.ErrInvalidAmount):
		return "Invalid amount. Enter a number or use shorthand like '1k' or '2.5m'."
	case errors.Is(err, auction.ErrInvalidDuration):
		return "Invalid or too short duration. Use formats like '1d 2h 30m'."
	case errors.Is(err, auction.ErrAuctionInProgress):
		return "An auction is already running in this channel. Close it before starting another."
	case errors.Is(err, auction.ErrGuildCapacity):
		return "The maximum number of concurrent auctions for this server has been reached."
	case errors.Is(err, auction.ErrNoActiveAuction):
		return "There is no active auction in this channel."
	case errors.Is(err, auction.ErrBidTooLow):
		return "Your bid must exceed the current bid by at least the minimum increment."
	case errors.Is(err, auction.ErrNotAuthorized):
		return "Only the auction creator or server staff can close this auction."
	default:
		return "Something went wrong. Please try again."
	}
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
		},
	})
}
