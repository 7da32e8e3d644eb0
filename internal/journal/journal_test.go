package journal

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionshell/internal/render"
	"sessionshell/internal/testutils"
)

func readJournal(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestJournalRecords(t *testing.T) {
	fs := afero.NewMemMapFs()
	j, err := Open("/logs/session.log", nil, WithFs(fs), WithClock(testutils.NewClock()), WithSessionID("sid-1"))
	require.NoError(t, err)

	require.NoError(t, j.Info("hello"))
	require.NoError(t, j.Warn("\x1b[31mred\x1b[0m text"))
	require.NoError(t, j.Record("CUSTOM", "x"))
	require.NoError(t, j.Close())

	expected := strings.Join([]string{
		"",
		"=== Session Journal ===",
		"Started: 2025-01-01 00:00:00",
		"Session: sid-1",
		"Journal: /logs/session.log",
		rule,
		"",
		"[2025-01-01 00:00:01] [INFO] hello",
		"[2025-01-01 00:00:02] [WARNING] red text",
		"[2025-01-01 00:00:03] [CUSTOM] x",
		"",
	}, "\n")
	testutils.AssertGolden(t, expected, readJournal(t, fs, "/logs/session.log"))

	assert.Equal(t, map[string]int{"INFO": 1, "WARNING": 1, "CUSTOM": 1}, j.Counts())
}

func TestJournalSummary(t *testing.T) {
	fs := afero.NewMemMapFs()
	j, err := Open("/logs/session.log", nil, WithFs(fs), WithClock(testutils.NewClock()))
	require.NoError(t, err)

	require.NoError(t, j.Info("one"))
	require.NoError(t, j.Info("two"))
	require.NoError(t, j.Error("three"))
	require.NoError(t, j.Summary())
	require.NoError(t, j.Close())

	content := readJournal(t, fs, "/logs/session.log")
	assert.NotContains(t, content, "Session: ")
	assert.Contains(t, content, "[SUMMARY] SESSION SUMMARY\n")
	assert.Contains(t, content, "[SUMMARY] Records: 3\n")
	assert.Contains(t, content, "[SUMMARY]   ERROR: 1\n")
	assert.Contains(t, content, "[SUMMARY]   INFO: 2\n")
	assert.Contains(t, content, "[SUMMARY] Duration: 4s\n")
	assert.Contains(t, content, "[SUMMARY] Completed: 2025-01-01 00:00:04\n")
	assert.Less(t, strings.Index(content, "ERROR: 1"), strings.Index(content, "INFO: 2"))

	_, counted := j.Counts()[levelSummary]
	assert.False(t, counted)
}

func TestJournalAppendsAcrossSessions(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, message := range []string{"first", "second"} {
		j, err := Open("/session.log", nil, WithFs(fs), WithClock(testutils.NewClock()))
		require.NoError(t, err)
		require.NoError(t, j.Info(message))
		require.NoError(t, j.Close())
	}

	content := readJournal(t, fs, "/session.log")
	assert.Equal(t, 2, strings.Count(content, "=== Session Journal ==="))
	assert.Less(t, strings.Index(content, "first"), strings.Index(content, "second"))
}

func TestJournalMirror(t *testing.T) {
	fs := afero.NewMemMapFs()
	out := render.NewCaptureBuffer()
	r := render.New(render.WithWriter(out), render.WithoutColor())

	j, err := Open("/session.log", r, WithFs(fs), WithMirror(), WithClock(testutils.NewClock()))
	require.NoError(t, err)

	require.NoError(t, j.Info("ready"))
	require.NoError(t, j.Warn("careful"))
	require.NoError(t, j.Record(LevelDebug, "detail"))
	require.NoError(t, j.Summary())

	assert.Equal(t, []string{
		"[INFO] ready",
		"[WARNING] careful",
		"[DEBUG] detail",
		"Session summary:",
		"< Records: 3",
		"< Duration: 4s",
		"> Journal saved to: /session.log",
	}, out.Lines())
}

func TestJournalWithoutMirrorIsSilent(t *testing.T) {
	out := render.NewCaptureBuffer()
	r := render.New(render.WithWriter(out), render.WithoutColor())

	j, err := Open("/session.log", r, WithFs(afero.NewMemMapFs()))
	require.NoError(t, err)
	require.NoError(t, j.Info("quiet"))
	require.NoError(t, j.Summary())

	assert.Empty(t, out.String())
}

func TestJournalClosed(t *testing.T) {
	j, err := Open("/session.log", nil, WithFs(afero.NewMemMapFs()))
	require.NoError(t, err)

	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.ErrorIs(t, j.Info("late"), ErrClosed)
	assert.ErrorIs(t, j.Summary(), ErrClosed)
}

func TestJournalDefaultPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	j, err := Open("", nil, WithFs(fs), WithClock(testutils.NewClock()))
	require.NoError(t, err)
	defer j.Close()

	exists, err := afero.Exists(fs, "session_20250101_000000.log")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, strings.HasSuffix(j.Path(), "session_20250101_000000.log"))
}

func TestJournalOpenFailure(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	_, err := Open("/logs/session.log", nil, WithFs(fs))
	assert.Error(t, err)
}

func TestLevelColor(t *testing.T) {
	assert.Equal(t, render.Green, levelColor(LevelInfo))
	assert.Equal(t, render.Yellow, levelColor(LevelWarning))
	assert.Equal(t, render.Red, levelColor(LevelError))
	assert.Equal(t, render.Cyan, levelColor(LevelDebug))
	assert.Equal(t, render.Cyan, levelColor("ANYTHING"))
}
