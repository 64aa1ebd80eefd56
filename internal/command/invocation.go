// Package command implements the prefix-command router the debug feature is
// registered on: parsing, alias resolution, owner checks, and the error
// pipeline that turns handler errors into replies.
package command

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"
)

// User is the author of a message.
type User struct {
	ID   string
	Name string
}

// Message is the inbound message that triggered a command.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	Content   string
	CreatedAt time.Time
}

// Ref identifies a resolved command.
type Ref struct {
	// QualifiedName is the full canonical path, e.g. "aniflax cancel".
	QualifiedName string
}

// Invocation is the request context of a command: who asked, when, and for
// what. Command is nil when the message could not be resolved to a command.
type Invocation struct {
	Author  User
	Message Message
	Command *Ref
}

// CommandName returns the qualified command name, or "unknown".
func (i Invocation) CommandName() string {
	if i.Command == nil || i.Command.QualifiedName == "" {
		return "unknown"
	}
	return i.Command.QualifiedName
}

// Replier sends the reply to an invocation.
type Replier interface {
	Send(ctx context.Context, content string) error
	SendFile(ctx context.Context, content, filename string, r io.Reader) error
	// SendPages sends a multi-page reply that only ownerID may navigate.
	SendPages(ctx context.Context, ownerID string, pages []string) error
}

// Context is what a handler receives.
type Context struct {
	Invocation
	Args   []string
	Reply  Replier
	Logger *slog.Logger
}

// Arg returns the i-th argument or a MissingArgumentError naming param.
func (c *Context) Arg(i int, param string) (string, error) {
	if i >= len(c.Args) {
		return "", &MissingArgumentError{Param: param}
	}
	return c.Args[i], nil
}

// Rest joins every argument from i on, for keyword-only parameters that
// consume the remainder of the message.
func (c *Context) Rest(i int, param string) (string, error) {
	if i >= len(c.Args) {
		return "", &MissingArgumentError{Param: param}
	}
	return strings.Join(c.Args[i:], " "), nil
}

// HandlerFunc runs a command.
type HandlerFunc func(ctx context.Context, c *Context) error
