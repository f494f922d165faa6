package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/complaintctl/internal/archive"
	"github.com/kalambet/complaintctl/internal/feedback"
)

// isolate points config and data at temp dirs so tests never touch $HOME.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("COMPLAINTCTL_STORAGE_DATA_DIR", "")
	t.Setenv("COMPLAINTCTL_STORAGE_FILE", "")
	t.Setenv("COMPLAINTCTL_LOG_LEVEL", "")
	t.Setenv("COMPLAINTCTL_NO_COLOR", "")
	t.Setenv("NO_COLOR", "1")
	return filepath.Join(t.TempDir(), "complaints.json")
}

// The macOS backend reads and writes the real UserDefaults domain.
func skipOnDarwin(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "darwin" {
		t.Skip("uses XDG paths")
	}
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddAndList(t *testing.T) {
	file := isolate(t)

	_, err := execute(t, "", "add", "review", "--file", file, "--company", "Johnson", "--product", "toys", "--message", "great!")
	require.NoError(t, err)
	_, err = execute(t, "", "add", "ranking", "--file", file, "--company", "dons", "--product", "shampoo", "--message", "5")
	require.NoError(t, err)
	_, err = execute(t, "", "add", "complaint", "--file", file, "--company", "kosin", "--product", "dress", "--message", "torn seam")
	require.NoError(t, err)

	out, err := execute(t, "", "list", "--file", file)
	require.NoError(t, err)
	assert.Equal(t,
		"[Review] johnson - toys : great!\n"+
			"[Ranking] dons - shampoo : 5\n"+
			"[Complaint] kosin - dress : torn seam\n",
		out)

	out, err = execute(t, "", "list", "--file", file, "--kind", "Ranking")
	require.NoError(t, err)
	assert.Equal(t, "[Ranking] dons - shampoo : 5\n", out)
}

func TestList_Empty(t *testing.T) {
	file := isolate(t)

	out, err := execute(t, "", "list", "--file", file)
	require.NoError(t, err)
	assert.Equal(t, "No feedback available.\n", out)
}

func TestList_UnknownKind(t *testing.T) {
	file := isolate(t)

	_, err := execute(t, "", "list", "--file", file, "--kind", "ranking")
	require.Error(t, err)
	assert.True(t, errors.Is(err, feedback.ErrUnknownKind))
}

func TestAdd_MissingFlags(t *testing.T) {
	file := isolate(t)

	_, err := execute(t, "", "add", "review", "--file", file, "--company", "johnson")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
	assert.NoFileExists(t, file)
}

func TestMalformedFile(t *testing.T) {
	file := isolate(t)
	require.NoError(t, os.WriteFile(file, []byte("not json"), 0o644))

	_, err := execute(t, "", "list", "--file", file)
	require.Error(t, err)
	assert.True(t, errors.Is(err, feedback.ErrMalformedFile))
}

func TestDefaultFileInDataDir(t *testing.T) {
	skipOnDarwin(t)
	isolate(t)
	dataHome := os.Getenv("XDG_DATA_HOME")

	_, err := execute(t, "", "add", "complaint", "--company", "kosin", "--product", "dress", "--message", "torn seam")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dataHome, "complaintctl", "complaints.json"))
}

func TestMenuIsDefault(t *testing.T) {
	file := isolate(t)

	out, err := execute(t, "1\ntoys\njohnson\ngreat!\n4\n8\n", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "===== Complaint Management System =====")
	assert.Contains(t, out, "Review saved successfully!")
	assert.Contains(t, out, "[Review] johnson - toys : great!")

	s, err := feedback.Open(file)
	require.NoError(t, err)
	assert.Equal(t, []feedback.Record{feedback.NewReview("johnson", "toys", "great!")}, s.List(""))
}

func TestExport(t *testing.T) {
	file := isolate(t)
	dbPath := filepath.Join(t.TempDir(), "archive.db")

	_, err := execute(t, "", "add", "review", "--file", file, "--company", "johnson", "--product", "toys", "--message", "great!")
	require.NoError(t, err)
	_, err = execute(t, "", "add", "ranking", "--file", file, "--company", "dons", "--product", "shampoo", "--message", "5")
	require.NoError(t, err)

	out, err := execute(t, "", "export", "--file", file, "--output", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Records: 2")

	a, err := archive.Open(dbPath)
	require.NoError(t, err)
	defer a.Close()

	got, err := a.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []feedback.Record{
		feedback.NewReview("johnson", "toys", "great!"),
		feedback.NewRanking("dons", "shampoo", "5"),
	}, got)
}

func TestConfigSetAndShow(t *testing.T) {
	skipOnDarwin(t)
	isolate(t)

	_, err := execute(t, "", "config", "set", "storage.file", "mine.json")
	require.NoError(t, err)

	out, err := execute(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "storage.file = mine.json")
	assert.Contains(t, out, "log.level = warn")
}

func TestConfigSet_UnknownKey(t *testing.T) {
	isolate(t)

	_, err := execute(t, "", "config", "set", "server.port", "4000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestConfigUnset(t *testing.T) {
	skipOnDarwin(t)
	isolate(t)

	_, err := execute(t, "", "config", "set", "log.level", "debug")
	require.NoError(t, err)
	out, err := execute(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "log.level = debug")

	_, err = execute(t, "", "config", "unset", "log.level")
	require.NoError(t, err)
	out, err = execute(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "log.level = warn")
}

func TestConfigUnset_UnknownKey(t *testing.T) {
	isolate(t)

	_, err := execute(t, "", "config", "unset", "server.port")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestInvalidLogLevel(t *testing.T) {
	file := isolate(t)

	_, err := execute(t, "", "list", "--file", file, "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestMenu_CancelledContext(t *testing.T) {
	file := isolate(t)
	resetFlags(rootCmd)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader("1\ntoys\njohnson\ngreat!\n"))
	rootCmd.SetArgs([]string{"--file", file})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 130, exitCode(err))
	assert.NoFileExists(t, file)
}

func TestExitCode(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 130, exitCode(fmt.Errorf("reading choice: %w", context.Canceled)))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestVersion(t *testing.T) {
	isolate(t)

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "complaintctl version dev\n", out)
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	assert.Equal(t, "test message", result)

	noColor = false
	result = colorize(colorGreen, "test message")
	assert.Contains(t, result, "\033[")
}
