package cli

import (
	"strings"

	"github.com/majorcontext/aniflax/internal/backup"
	"github.com/majorcontext/aniflax/internal/config"
	"github.com/majorcontext/aniflax/internal/host"
)

func hostIntents(cfg *config.Config) host.Intents {
	return host.Intents{
		Presences:      cfg.Intents.Presences,
		Members:        cfg.Intents.Members,
		MessageContent: cfg.Intents.MessageContent,
	}
}

func backupOptions(cfg *config.Config) backup.Options {
	return backup.Options{
		Extensions:   cfg.Backup.Extensions,
		UseGitignore: cfg.Backup.UseGitignore,
		Exclude:      cfg.Backup.Exclude,
	}
}

func plural(n int, singular, pluralSuffix string) string {
	if n == 1 {
		return singular
	}
	return pluralSuffix
}

// shortHash trims a hex digest for table output.
func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
