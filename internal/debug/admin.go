package debug

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/majorcontext/aniflax/internal/audit"
	"github.com/majorcontext/aniflax/internal/backup"
	"github.com/majorcontext/aniflax/internal/command"
)

// Hide removes the group from help.
func (f *Feature) Hide(ctx context.Context, c *command.Context) error {
	if !f.setHidden(true) {
		return c.Reply.Send(ctx, "Aniflax is already in stealth mode.")
	}
	f.record(c, audit.EntryVisibility, audit.VisibilityData{Actor: actor(c), Hidden: true})
	return c.Reply.Send(ctx, "Aniflax is tucked away and hidden.")
}

// Show lists the group in help again.
func (f *Feature) Show(ctx context.Context, c *command.Context) error {
	if !f.setHidden(false) {
		return c.Reply.Send(ctx, "Aniflax is already visible")
	}
	f.record(c, audit.EntryVisibility, audit.VisibilityData{Actor: actor(c), Hidden: false})
	return c.Reply.Send(ctx, "Aniflax is now visible.")
}

// Leave makes the bot leave a guild it is a member of.
func (f *Feature) Leave(ctx context.Context, c *command.Context) error {
	arg, err := c.Arg(0, "server_id")
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return &command.BadArgumentError{Param: "server_id", Value: "int"}
	}
	guildID := strconv.FormatInt(id, 10)

	guild, ok := f.host.Guild(guildID)
	if !ok {
		return c.Reply.Send(ctx, fmt.Sprintf("The bot is not in a server with ID %s.", guildID))
	}
	if err := f.host.LeaveGuild(ctx, guild.ID); err != nil {
		return fmt.Errorf("leaving guild %s: %w", guild.ID, err)
	}
	c.Logger.Info("left guild", "guild_id", guild.ID, "guild_name", guild.Name)
	f.record(c, audit.EntryLeave, audit.LeaveData{Actor: actor(c), GuildID: guild.ID, GuildName: guild.Name})
	return c.Reply.Send(ctx, fmt.Sprintf("Successfully left the server: %s (ID: %s)", guild.Name, guildID))
}

// BackupFilename is the attachment name of the source archive.
const BackupFilename = "backup.zip"

// Backup archives the source tree into a temporary file, sends it, and
// removes the file. It runs as a registered task.
func (f *Feature) Backup(ctx context.Context, c *command.Context) error {
	return f.submit(ctx, c, func(ctx context.Context) error {
		path, res, err := backup.CreateTemp(ctx, f.root, f.backup)
		if err != nil {
			return err
		}
		defer func() {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				c.Logger.Warn("failed to remove backup archive", "path", path, "error", err)
			}
		}()

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening backup archive: %w", err)
		}
		defer file.Close()

		c.Logger.Info("sending backup", "files", res.Files, "bytes", res.Bytes)
		if err := c.Reply.SendFile(ctx, "Here Is Your Source Code", BackupFilename, file); err != nil {
			return err
		}
		f.record(c, audit.EntryBackup, audit.BackupData{Actor: actor(c), Files: res.Files, Bytes: res.Bytes})
		return nil
	})
}
