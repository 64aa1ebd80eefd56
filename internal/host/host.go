// Package host describes the parts of the running bot that the debug feature
// reads from or acts on. The gateway package implements it over discordgo;
// tests use fakes.
package host

import (
	"context"
	"time"
)

// Guild is a server the bot is a member of.
type Guild struct {
	ID          string
	Name        string
	MemberCount int
}

// ShardLatency is the heartbeat round trip of one gateway shard.
type ShardLatency struct {
	Shard   int
	Latency time.Duration
}

// Intents reports the privileged gateway intents the bot identified with.
type Intents struct {
	Presences      bool
	Members        bool
	MessageContent bool
}

// NamedIntent is one entry of Intents.Named.
type NamedIntent struct {
	Name    string
	Enabled bool
}

// Named returns the privileged intents in display order.
func (i Intents) Named() []NamedIntent {
	return []NamedIntent{
		{Name: "GuildPresences", Enabled: i.Presences},
		{Name: "GuildMembers", Enabled: i.Members},
		{Name: "MessageContent", Enabled: i.MessageContent},
	}
}

// State returns "enabled" or "disabled".
func (n NamedIntent) State() string {
	if n.Enabled {
		return "enabled"
	}
	return "disabled"
}

// Host is the bot as seen by the debug feature.
type Host interface {
	// Guilds returns every guild visible to any shard.
	Guilds() []Guild
	// Guild looks up a guild by snowflake.
	Guild(id string) (Guild, bool)
	// UserCount is the number of distinct users the bot has cached.
	UserCount() int
	// Latency is the average heartbeat latency across shards.
	Latency() time.Duration
	// ShardLatencies returns per-shard heartbeat latency, ordered by shard.
	ShardLatencies() []ShardLatency
	// ShardCount is the number of gateway shards this process runs.
	ShardCount() int
	// Intents reports the privileged intents in use.
	Intents() Intents
	// LeaveGuild removes the bot from a guild.
	LeaveGuild(ctx context.Context, id string) error
	// LibraryVersion is the version of the underlying Discord library.
	LibraryVersion() string
}

// AverageLatency averages a set of shard latencies. It returns 0 for none.
func AverageLatency(shards []ShardLatency) time.Duration {
	if len(shards) == 0 {
		return 0
	}
	var total time.Duration
	for _, s := range shards {
		total += s.Latency
	}
	return total / time.Duration(len(shards))
}
