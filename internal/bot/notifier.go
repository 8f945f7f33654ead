package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jensholdgaard/discord-auction-bot/internal/amount"
	"github.com/jensholdgaard/discord-auction-bot/internal/auction"
	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
	"github.com/jensholdgaard/discord-auction-bot/internal/duration"
)

// Embed colors.
const (
	colorOpen   = 0x2ecc71 // green
	colorEnded  = 0x3498db // blue
	colorWinner = 0x2ecc71
	colorNoBids = 0xe74c3c // red
)

// Notifier renders auction state as Discord embeds. It implements
// auction.Notifier; the message ID of the status embed is the handle.
type Notifier struct {
	session *discordgo.Session
	clock   clock.Clock
}

// NewNotifier creates a Notifier on the given session.
func NewNotifier(session *discordgo.Session, clk clock.Clock) *Notifier {
	return &Notifier{session: session, clock: clk}
}

// Render posts the initial auction status message.
func (n *Notifier) Render(ctx context.Context, snap auction.Snapshot) (string, error) {
	msg, err := n.session.ChannelMessageSendEmbed(snap.Room.ChannelID, buildAuctionEmbed(snap, n.clock.Now()))
	if err != nil {
		return "", fmt.Errorf("posting auction status: %w", err)
	}
	return msg.ID, nil
}

// Update edits an existing auction status message in place.
func (n *Notifier) Update(ctx context.Context, ref string, snap auction.Snapshot) error {
	if _, err := n.session.ChannelMessageEditEmbed(snap.Room.ChannelID, ref, buildAuctionEmbed(snap, n.clock.Now())); err != nil {
		return fmt.Errorf("editing auction status: %w", err)
	}
	return nil
}

// Announce posts the closing announcement for a room.
func (n *Notifier) Announce(ctx context.Context, room auction.RoomKey, text string, won bool) error {
	color := colorNoBids
	if won {
		color = colorWinner
	}
	_, err := n.session.ChannelMessageSendEmbed(room.ChannelID, &discordgo.MessageEmbed{
		Title:       "Auction Ended",
		Description: text,
		Color:       color,
	})
	if err != nil {
		return fmt.Errorf("posting auction announcement: %w", err)
	}
	return nil
}

func buildAuctionEmbed(snap auction.Snapshot, now time.Time) *discordgo.MessageEmbed {
	desc := fmt.Sprintf(
		"**Item:** %s\n**Starting Bid:** %s\n**Minimum Increment:** %s\n",
		snap.Item, amount.Format(snap.StartingBid), amount.Format(snap.MinIncrement),
	)
	if snap.BidCount > 0 {
		desc += fmt.Sprintf("**Highest Bid:** %s by %s\n", amount.Format(snap.CurrentBid), snap.HighestBidder)
	}

	color := colorOpen
	if snap.Active {
		desc += "**Time Remaining:** " + duration.FormatRemaining(snap.EndTime.Sub(now))
	} else {
		desc += "**Auction Ended**\n"
		if snap.Winner != "" {
			desc += "**Winner:** " + snap.Winner
		}
		color = colorEnded
	}

	return &discordgo.MessageEmbed{
		Title:       "Auction: " + snap.Item,
		Description: desc,
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Auction ID: " + snap.ID},
	}
}
