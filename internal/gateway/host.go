package gateway

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/majorcontext/aniflax/internal/host"
)

var _ host.Host = (*Gateway)(nil)

// Guilds returns the guilds cached by every shard.
func (g *Gateway) Guilds() []host.Guild {
	var out []host.Guild
	for _, s := range g.sessions {
		s.State.RLock()
		for _, guild := range s.State.Guilds {
			out = append(out, toGuild(guild))
		}
		s.State.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Guild looks up a guild in the shard caches.
func (g *Gateway) Guild(id string) (host.Guild, bool) {
	if s := g.sessionFor(id); s != nil {
		if guild, err := s.State.Guild(id); err == nil {
			return toGuild(guild), true
		}
	}
	return host.Guild{}, false
}

func toGuild(guild *discordgo.Guild) host.Guild {
	return host.Guild{ID: guild.ID, Name: guild.Name, MemberCount: guild.MemberCount}
}

// sessionFor returns the shard whose cache holds the guild.
func (g *Gateway) sessionFor(guildID string) *discordgo.Session {
	for _, s := range g.sessions {
		if _, err := s.State.Guild(guildID); err == nil {
			return s
		}
	}
	return nil
}

// UserCount counts distinct cached members across every guild. Without the
// GuildMembers intent only members seen in events are cached.
func (g *Gateway) UserCount() int {
	seen := make(map[string]struct{})
	for _, s := range g.sessions {
		s.State.RLock()
		for _, guild := range s.State.Guilds {
			for _, m := range guild.Members {
				if m.User != nil {
					seen[m.User.ID] = struct{}{}
				}
			}
		}
		s.State.RUnlock()
	}
	return len(seen)
}

// Latency averages heartbeat latency across shards.
func (g *Gateway) Latency() time.Duration {
	return host.AverageLatency(g.ShardLatencies())
}

// ShardLatencies returns each shard's heartbeat round trip.
func (g *Gateway) ShardLatencies() []host.ShardLatency {
	out := make([]host.ShardLatency, 0, len(g.sessions))
	for _, s := range g.sessions {
		out = append(out, host.ShardLatency{Shard: s.ShardID, Latency: s.HeartbeatLatency()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Shard < out[j].Shard })
	return out
}

// ShardCount returns the number of shards this process runs.
func (g *Gateway) ShardCount() int {
	return len(g.sessions)
}

// Intents reports the privileged intents the shards identify with.
func (g *Gateway) Intents() host.Intents {
	if len(g.sessions) == 0 {
		return host.Intents{}
	}
	in := g.sessions[0].Identify.Intents
	return host.Intents{
		Presences:      in&discordgo.IntentsGuildPresences != 0,
		Members:        in&discordgo.IntentsGuildMembers != 0,
		MessageContent: in&discordgo.IntentsMessageContent != 0,
	}
}

// LeaveGuild leaves a guild through the shard that holds it.
func (g *Gateway) LeaveGuild(ctx context.Context, id string) error {
	s := g.sessionFor(id)
	if s == nil {
		if len(g.sessions) == 0 {
			return fmt.Errorf("no session available to leave guild %s", id)
		}
		s = g.sessions[0]
	}
	return s.GuildLeave(id, discordgo.WithContext(ctx))
}

// LibraryVersion returns the discordgo version.
func (g *Gateway) LibraryVersion() string {
	return discordgo.VERSION
}
