package gateway

import (
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/majorcontext/aniflax/internal/paginate"
)

const pageButtonPrefix = "aniflax:page:"

// Page button actions, suffixed to pageButtonPrefix in custom ids.
const (
	actionFirst = "first"
	actionPrev  = "prev"
	actionNext  = "next"
	actionLast  = "last"
	actionStop  = "stop"
)

// pageSession is a navigable paginated reply.
type pageSession struct {
	owner string

	mu    sync.Mutex
	pager *paginate.Pager
}

func pageButtons(p *paginate.Pager) []discordgo.MessageComponent {
	atStart := p.Index() == 0
	atEnd := p.Index() == p.Len()-1
	button := func(label, action string, style discordgo.ButtonStyle, disabled bool) discordgo.MessageComponent {
		return discordgo.Button{
			Label:    label,
			Style:    style,
			CustomID: pageButtonPrefix + action,
			Disabled: disabled,
		}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			button("First", actionFirst, discordgo.SecondaryButton, atStart),
			button("Previous", actionPrev, discordgo.PrimaryButton, atStart),
			button("Next", actionNext, discordgo.PrimaryButton, atEnd),
			button("Last", actionLast, discordgo.SecondaryButton, atEnd),
			button("Stop", actionStop, discordgo.DangerButton, false),
		}},
	}
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

// navigate applies a button press to the page session of messageID and
// returns the interaction response. It returns nil for buttons that are not
// page buttons.
func navigate(pages *lru.Cache[string, *pageSession], messageID, userID, customID string) *discordgo.InteractionResponse {
	action, ok := strings.CutPrefix(customID, pageButtonPrefix)
	if !ok {
		return nil
	}
	ps, ok := pages.Get(messageID)
	if !ok {
		return ephemeral("This paginator has expired.")
	}
	if userID != ps.owner {
		return ephemeral("Only the person who ran the command can use these buttons.")
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	components := []discordgo.MessageComponent{}
	switch action {
	case actionFirst:
		ps.pager.First()
	case actionPrev:
		ps.pager.Prev()
	case actionNext:
		ps.pager.Next()
	case actionLast:
		ps.pager.Last()
	case actionStop:
		pages.Remove(messageID)
	default:
		return nil
	}
	if action != actionStop {
		components = pageButtons(ps.pager)
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    ps.pager.Render(),
			Components: components,
		},
	}
}
