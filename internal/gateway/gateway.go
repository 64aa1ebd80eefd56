// Package gateway connects the command router to Discord through discordgo
// and exposes the connected shards as a host.Host.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/majorcontext/aniflax/internal/command"
	"github.com/majorcontext/aniflax/internal/host"
	"github.com/majorcontext/aniflax/internal/log"
)

// DefaultPageSessions bounds how many paginated replies stay navigable.
const DefaultPageSessions = 256

// Options configures a Gateway.
type Options struct {
	// Token is the bot token, with or without the "Bot " prefix.
	Token string
	// Shards is the number of gateway shards to run. Values below 1 mean 1.
	Shards  int
	Intents host.Intents
	Router  *command.Router
	// OnReady is called once every shard has received READY.
	OnReady func(time.Time)
	// PageSessions is the LRU size for paginated replies.
	PageSessions int
}

// Gateway runs one discordgo session per shard.
type Gateway struct {
	sessions []*discordgo.Session
	router   *command.Router
	pages    *lru.Cache[string, *pageSession]
	onReady  func(time.Time)

	readyOnce sync.Once

	mu sync.Mutex
	// readyShards holds shard IDs that have seen READY. A shard that
	// re-identifies after a reconnect is counted once.
	readyShards map[int]bool
	ctx         context.Context
	// closing is set before shards close; no dispatch starts after it.
	closing  bool
	inflight sync.WaitGroup
}

// New creates the shard sessions. Nothing connects until Run.
func New(opts Options) (*Gateway, error) {
	if opts.Token == "" {
		return nil, errors.New("bot token is empty")
	}
	token := opts.Token
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}
	shards := opts.Shards
	if shards < 1 {
		shards = 1
	}

	sessions := make([]*discordgo.Session, 0, shards)
	for id := 0; id < shards; id++ {
		s, err := discordgo.New(token)
		if err != nil {
			return nil, fmt.Errorf("creating session for shard %d: %w", id, err)
		}
		s.ShardID = id
		s.ShardCount = shards
		s.Identify.Intents = identifyIntents(opts.Intents)
		s.StateEnabled = true
		sessions = append(sessions, s)
	}
	return newGateway(sessions, opts)
}

func newGateway(sessions []*discordgo.Session, opts Options) (*Gateway, error) {
	size := opts.PageSessions
	if size <= 0 {
		size = DefaultPageSessions
	}
	pages, err := lru.New[string, *pageSession](size)
	if err != nil {
		return nil, fmt.Errorf("creating page cache: %w", err)
	}
	g := &Gateway{
		sessions: sessions,
		router:   opts.Router,
		pages:    pages,
		onReady:  opts.OnReady,

		readyShards: make(map[int]bool, len(sessions)),
	}
	for _, s := range sessions {
		s.AddHandler(g.handleReady)
		s.AddHandler(g.handleMessage)
		s.AddHandler(g.handleInteraction)
	}
	return g, nil
}

// identifyIntents maps the privileged intents onto the gateway intents the
// bot needs to read commands.
func identifyIntents(in host.Intents) discordgo.Intent {
	intents := discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages
	if in.Presences {
		intents |= discordgo.IntentsGuildPresences
	}
	if in.Members {
		intents |= discordgo.IntentsGuildMembers
	}
	if in.MessageContent {
		intents |= discordgo.IntentsMessageContent
	}
	return intents
}

// Run opens every shard and blocks until ctx is cancelled, then closes the
// shards and waits for in-flight commands to return.
func (g *Gateway) Run(ctx context.Context) error {
	g.mu.Lock()
	g.ctx = ctx
	g.mu.Unlock()

	for i, s := range g.sessions {
		if err := s.Open(); err != nil {
			g.closeSessions(g.sessions[:i])
			return fmt.Errorf("opening shard %d: %w", s.ShardID, err)
		}
		log.Debug("shard connected", "shard", s.ShardID, "shards", len(g.sessions))
	}

	<-ctx.Done()
	g.mu.Lock()
	g.closing = true
	g.mu.Unlock()
	g.closeSessions(g.sessions)
	g.inflight.Wait()
	return nil
}

func (g *Gateway) closeSessions(sessions []*discordgo.Session) {
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			log.Warn("closing shard", "shard", s.ShardID, "error", err)
		}
	}
}

func (g *Gateway) context() context.Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ctx == nil {
		return context.Background()
	}
	return g.ctx
}

func (g *Gateway) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	user := ""
	if r.User != nil {
		user = r.User.Username
	}
	log.Info("shard ready", "shard", s.ShardID, "user", user, "guilds", len(r.Guilds))
	g.mu.Lock()
	g.readyShards[s.ShardID] = true
	ready := len(g.readyShards)
	g.mu.Unlock()
	if ready < len(g.sessions) {
		return
	}
	g.readyOnce.Do(func() {
		if g.onReady != nil {
			g.onReady(time.Now())
		}
	})
}

// handleMessage dispatches a message through the router. discordgo already
// calls each handler on its own goroutine.
func (g *Gateway) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	g.dispatch(s, m.Message)
}

func (g *Gateway) dispatch(api messenger, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot || g.router == nil {
		return
	}
	g.mu.Lock()
	if g.closing {
		g.mu.Unlock()
		return
	}
	g.inflight.Add(1)
	g.mu.Unlock()
	defer g.inflight.Done()

	author := command.User{ID: m.Author.ID, Name: m.Author.Username}
	msg := command.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		CreatedAt: m.Timestamp,
	}
	reply := &channelReplier{api: api, channelID: m.ChannelID, messageID: m.ID, pages: g.pages}

	if _, err := g.router.Dispatch(g.context(), author, msg, reply); err != nil {
		log.Warn("failed to deliver reply", "channel_id", m.ChannelID, "message_id", m.ID, "error", err)
	}
}

func (g *Gateway) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent || i.Message == nil {
		return
	}
	resp := navigate(g.pages, i.Message.ID, interactionUserID(i), i.MessageComponentData().CustomID)
	if resp == nil {
		return
	}
	if err := s.InteractionRespond(i.Interaction, resp, discordgo.WithContext(g.context())); err != nil {
		log.Warn("failed to respond to page interaction", "message_id", i.Message.ID, "error", err)
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
