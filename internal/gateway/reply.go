package gateway

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/majorcontext/aniflax/internal/paginate"
)

// messenger is the part of *discordgo.Session replies go through.
type messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// channelReplier answers in the channel the command came from, as a reply
// to the invoking message.
type channelReplier struct {
	api       messenger
	channelID string
	messageID string
	pages     *lru.Cache[string, *pageSession]
}

func (r *channelReplier) send(ctx context.Context, data *discordgo.MessageSend) (*discordgo.Message, error) {
	if r.messageID != "" {
		data.Reference = &discordgo.MessageReference{MessageID: r.messageID, ChannelID: r.channelID}
		data.AllowedMentions = &discordgo.MessageAllowedMentions{}
	}
	msg, err := r.api.ChannelMessageSendComplex(r.channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("sending message to channel %s: %w", r.channelID, err)
	}
	return msg, nil
}

// Send posts a text reply.
func (r *channelReplier) Send(ctx context.Context, content string) error {
	_, err := r.send(ctx, &discordgo.MessageSend{Content: content})
	return err
}

// SendFile posts content with a single attachment.
func (r *channelReplier) SendFile(ctx context.Context, content, filename string, rd io.Reader) error {
	ext := filepath.Ext(filename)
	contentType := mime.TypeByExtension(ext)
	switch {
	case contentType != "":
	case ext == ".zip":
		contentType = "application/zip"
	default:
		contentType = "application/octet-stream"
	}
	_, err := r.send(ctx, &discordgo.MessageSend{
		Content: content,
		Files:   []*discordgo.File{{Name: filename, ContentType: contentType, Reader: rd}},
	})
	return err
}

// SendPages posts the first page with navigation buttons and remembers the
// pager under the new message's id. A single page is sent as plain text.
func (r *channelReplier) SendPages(ctx context.Context, ownerID string, pages []string) error {
	switch len(pages) {
	case 0:
		return nil
	case 1:
		return r.Send(ctx, pages[0])
	}

	ps := &pageSession{owner: ownerID, pager: paginate.NewPager(pages)}
	msg, err := r.send(ctx, &discordgo.MessageSend{
		Content:    ps.pager.Render(),
		Components: pageButtons(ps.pager),
	})
	if err != nil {
		return err
	}
	r.pages.Add(msg.ID, ps)
	return nil
}
