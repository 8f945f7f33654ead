package auction

import (
	"sort"
	"sync"
)

// DefaultMaxPerGuild caps concurrent auctions per guild.
const DefaultMaxPerGuild = 10

// Registry is the keyed store of active auctions. One auction per room,
// at most maxPerGuild active auctions per guild.
type Registry struct {
	mu          sync.Mutex
	maxPerGuild int
	rooms       map[RoomKey]*Auction
}

// NewRegistry creates an empty registry. maxPerGuild values below one
// fall back to DefaultMaxPerGuild.
func NewRegistry(maxPerGuild int) *Registry {
	if maxPerGuild < 1 {
		maxPerGuild = DefaultMaxPerGuild
	}
	return &Registry{
		maxPerGuild: maxPerGuild,
		rooms:       make(map[RoomKey]*Auction),
	}
}

// Create stores a new auction, enforcing room uniqueness and the per-guild
// capacity limit.
func (r *Registry) Create(a *Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[a.Room]; exists {
		return ErrAuctionInProgress
	}

	count := 0
	for key := range r.rooms {
		if key.GuildID == a.Room.GuildID {
			count++
		}
	}
	if count >= r.maxPerGuild {
		return ErrGuildCapacity
	}

	r.rooms[a.Room] = a
	return nil
}

// Get returns the auction for a room, or nil.
func (r *Registry) Get(key RoomKey) *Auction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[key]
}

// Remove deletes a room's auction. Removing an absent key is a no-op.
func (r *Registry) Remove(key RoomKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, key)
}

// ListGuild returns the still-active auctions of a guild, soonest-ending
// first.
func (r *Registry) ListGuild(guildID string) []*Auction {
	r.mu.Lock()
	var out []*Auction
	for key, a := range r.rooms {
		if key.GuildID == guildID && a.Active() {
			out = append(out, a)
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out
}
