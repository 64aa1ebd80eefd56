package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/majorcontext/aniflax/internal/audit"
	"github.com/majorcontext/aniflax/internal/config"
	"github.com/majorcontext/aniflax/internal/introspect"
	"github.com/majorcontext/aniflax/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with a private HOME and config file,
// returning what was written to stdout and stderr through ui.
func execute(t *testing.T, configYAML string, args ...string) (string, string, error) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	for _, k := range []string{"ANIFLAX_TOKEN", "ANIFLAX_PREFIX", "ANIFLAX_OWNERS", "ANIFLAX_METRICS_ADDR", "ANIFLAX_SHARDS", "ANIFLAX_AUDIT_PATH"} {
		t.Setenv(k, "")
	}

	cfgPath := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o600))

	var out, errOut bytes.Buffer
	ui.SetOutput(&out, &errOut)
	ui.SetColorEnabled(false)
	t.Cleanup(func() { ui.SetOutput(nil, nil) })

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--config", cfgPath))
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestBackupCommand(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("skip"), 0o644))
	dest := filepath.Join(t.TempDir(), "src.zip")
	t.Cleanup(func() { backupOutput = "backup.zip" })

	out, _, err := execute(t, "backup:\n  extensions: [\".go\"]\n", "backup", src, "-o", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+dest)
	assert.Contains(t, out, "1 file\n")

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "main.go", zr.File[0].Name)
}

func TestBackupCommand_OutputInsideRoot(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.go"), []byte("package main\n"), 0o644))
	dest := filepath.Join(src, "self.zip")
	t.Cleanup(func() { backupOutput = "backup.zip" })

	_, _, err := execute(t, "backup:\n  extensions: []\n", "backup", src, "-o", dest)
	require.NoError(t, err)

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "main.go", zr.File[0].Name)
}

func TestAuditCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	store, err := audit.OpenStore(dbPath)
	require.NoError(t, err)
	_, err = store.Append(audit.EntryLeave, audit.LeaveData{GuildID: "42", GuildName: "Test"})
	require.NoError(t, err)
	_, err = store.Append(audit.EntryVisibility, audit.VisibilityData{Hidden: false})
	require.NoError(t, err)
	require.NoError(t, store.Close())
	cfg := "audit:\n  path: " + dbPath + "\n"

	t.Run("list", func(t *testing.T) {
		out, _, err := execute(t, cfg, "audit")
		require.NoError(t, err)
		assert.Contains(t, out, "SEQ")
		assert.Contains(t, out, "leave")
		assert.Contains(t, out, "visibility")
	})

	t.Run("verify", func(t *testing.T) {
		t.Cleanup(func() { auditVerify = false })
		out, _, err := execute(t, cfg, "audit", "--verify")
		require.NoError(t, err)
		assert.Contains(t, out, "Hash chain: 2 entries")
	})

	t.Run("missing trail", func(t *testing.T) {
		_, _, err := execute(t, "audit:\n  path: "+filepath.Join(t.TempDir(), "none.db")+"\n", "audit")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no audit trail")
	})
}

func TestNewBot(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	cfg.Owners = []string{"1"}
	cfg.Shards = 2
	cfg.Audit.Path = filepath.Join(t.TempDir(), "audit.db")
	cfg.Introspect.ProcMount = filepath.Join(t.TempDir(), "missing")

	b, err := newBot(cfg, "token", time.Now())
	require.NoError(t, err)
	defer b.close()

	assert.NotNil(t, b.gateway)
	assert.NotNil(t, b.audit)
	assert.Equal(t, 2, b.gateway.ShardCount())
	_, statErr := os.Stat(cfg.Audit.Path)
	assert.NoError(t, statErr)
}

func TestNewBot_AuditDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Owners = []string{"1"}
	cfg.Audit.Enabled = false

	b, err := newBot(cfg, "token", time.Now())
	require.NoError(t, err)
	defer b.close()
	assert.Nil(t, b.audit)
}

func TestNewBot_EmptyToken(t *testing.T) {
	cfg := config.Default()
	cfg.Audit.Enabled = false

	_, err := newBot(cfg, "", time.Now())
	assert.Error(t, err)
}

func TestReadProbe_Pending(t *testing.T) {
	report := readProbe(context.Background(), introspect.Pending{})

	assert.False(t, report.Available)
	assert.Nil(t, report.PID)
	assert.Nil(t, report.Memory)
	assert.Nil(t, report.CPUPercent)
}

func TestHelpers(t *testing.T) {
	cfg := config.Default()
	cfg.Intents.Members = true
	cfg.Backup.Exclude = []string{"vendor/"}

	intents := hostIntents(cfg)
	assert.True(t, intents.Members)
	assert.True(t, intents.MessageContent)
	assert.False(t, intents.Presences)

	opts := backupOptions(cfg)
	assert.Equal(t, []string{".go"}, opts.Extensions)
	assert.Equal(t, []string{"vendor/"}, opts.Exclude)
	assert.True(t, opts.UseGitignore)

	assert.Equal(t, "entry", "entr"+plural(1, "y", "ies"))
	assert.Equal(t, "abcdef012345", shortHash("abcdef0123456789"))
	assert.Equal(t, "all files", joinOr(nil, "all files"))
}

func TestDoctorCommand(t *testing.T) {
	t.Setenv("ANIFLAX_TEST_TOKEN", "abc123")
	cfg := "token: env://ANIFLAX_TEST_TOKEN\nowners: [\"1\"]\naudit:\n  enabled: false\n"

	out, errOut, err := execute(t, cfg, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "Source:  env://")
	assert.Contains(t, out, "6 characters")
	assert.NotContains(t, out, "abc123")
	assert.Contains(t, errOut, "All 5 checks passed.")
}

func TestDoctorCommand_ReportsProblems(t *testing.T) {
	out, errOut, err := execute(t, "audit:\n  enabled: false\n", "doctor")
	require.Error(t, err)
	assert.Contains(t, out, "no token configured")
	assert.Contains(t, errOut, "checks found problems")
}
