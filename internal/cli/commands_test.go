package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/testutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// writeBatch writes records as a JSON batch file and returns its path.
func writeBatch(t *testing.T, dir, name string, records []ir.RemoteRecord) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"records": records})
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	writeFile(t, path, string(data))
	return path
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

// seedFriends reconciles user 100 and friends 1 and 2 for alice.
func seedFriends(t *testing.T, env *cliEnv) {
	t.Helper()
	users := writeBatch(t, env.dir, "users.json", testutil.Batch(t, "user", map[string]any{"uid": 100}))
	out, _, err := env.run("--viewer", "alice", "reconcile", "user", users)
	require.NoError(t, err)
	assert.Contains(t, out, "user: 1 added, 0 updated, 0 deleted, 0 resolved")

	friends := writeBatch(t, env.dir, "friends.json", testutil.Batch(t, "friend",
		map[string]any{"uid1": 100, "uid2": 1},
		map[string]any{"uid1": 100, "uid2": 2},
	))
	out, _, err = env.run("--viewer", "alice", "reconcile", "friend", friends)
	require.NoError(t, err)
	assert.Contains(t, out, "friend[100]: 2 added, 0 updated, 0 deleted, 0 resolved")
}

func TestSchemaCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("schema")
	require.NoError(t, err)
	assert.Contains(t, out, "ENTITY")
	for _, name := range []string{"user", "friend", "like", "album", "photo", "link", "notification", "stream"} {
		assert.Contains(t, out, name)
	}

	out, _, err = env.run("schema", "friend")
	require.NoError(t, err)
	assert.Contains(t, out, "friend (primary uid2")
	assert.Contains(t, out, "uid1 relation(user)")

	out, _, err = env.run("--format", "json", "schema", "album")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "album", data["entity"])
	assert.NotEmpty(t, data["fields"])

	_, _, err = env.run("schema", "event")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "known: ")
}

func TestQueryCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("query", "friend")
	require.NoError(t, err)
	assert.Equal(t, "SELECT uid1, uid2 FROM friend WHERE uid1=me()\n", out)

	out, _, err = env.run("query", "album", "--friend", "1001")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, " FROM album WHERE owner=1001\n"), out)

	out, _, err = env.run("--format", "json", "query", "like", "--clause", "WHERE object_id=5")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, map[string]any{
		"entity": "like",
		"query":  "SELECT object_id, object_type, post_id, user_id FROM like WHERE object_id=5",
	}, resp.Data)

	_, _, err = env.run("query", "stream", "--friend", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only fetched for the viewer")

	_, _, err = env.run("query", "album", "--friend", "1", "--clause", "x")
	require.Error(t, err)
}

func TestReconcileCommand(t *testing.T) {
	env := newCLIEnv(t)
	seedFriends(t, env)

	// Friend 1 leaves, friend 3 arrives.
	next := writeBatch(t, env.dir, "next.json", testutil.Batch(t, "friend",
		map[string]any{"uid1": 100, "uid2": 2},
		map[string]any{"uid1": 100, "uid2": 3},
	))
	out, _, err := env.run("--viewer", "alice", "-v", "reconcile", "friend", next)
	require.NoError(t, err)
	assert.Contains(t, out, "friend[100]: 1 added, 1 updated, 1 deleted, 0 resolved")
	assert.Contains(t, out, "added: 3")
	assert.Contains(t, out, "deleted: 1")

	empty := writeBatch(t, env.dir, "empty.json", nil)
	out, _, err = env.run("--viewer", "alice", "--format", "json", "reconcile", "friend", empty, "--context", "100")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "100", data["context"])
	assert.ElementsMatch(t, []any{"2", "3"}, data["deleted"])
}

func TestReconcileCommandErrors(t *testing.T) {
	env := newCLIEnv(t)
	seedFriends(t, env)

	t.Run("unknown owner", func(t *testing.T) {
		batch := writeBatch(t, env.dir, "stranger.json", testutil.Batch(t, "friend",
			map[string]any{"uid1": 999, "uid2": 1},
		))
		_, _, err := env.run("--viewer", "alice", "reconcile", "friend", batch)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.True(t, ir.IsNotFound(err))
	})

	t.Run("extra field", func(t *testing.T) {
		path := filepath.Join(env.dir, "extra.json")
		writeFile(t, path, `{"records": [{"uid1": 100, "uid2": 1, "nickname": "x"}]}`)
		_, _, err := env.run("--viewer", "alice", "reconcile", "friend", path)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.True(t, ir.IsSchemaMismatch(err))
	})

	t.Run("unreadable batch", func(t *testing.T) {
		_, _, err := env.run("--viewer", "alice", "reconcile", "friend", filepath.Join(env.dir, "nope.json"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, _, err := env.run("--viewer", "alice", "reconcile", "event", "x.json")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	out, _, err := env.run("--viewer", "alice", "show", "friend")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"), "rejected batches leave the mirror untouched")
}

func TestShowCommand(t *testing.T) {
	env := newCLIEnv(t)
	seedFriends(t, env)

	out, _, err := env.run("--viewer", "alice", "show", "friend")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "1\t"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2\t"), lines[1])

	out, _, err = env.run("--viewer", "alice", "show", "friend", "--limit", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "2\t"), out)

	out, _, err = env.run("--viewer", "alice", "--format", "json", "show", "friend", "--context", "100")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Len(t, resp.Data, 2)

	out, _, err = env.run("--viewer", "bob", "show", "friend")
	require.NoError(t, err)
	assert.Contains(t, out, "No friend records for bob.")

	want, err := ir.SnapshotDigest(map[string]any{"entity": "friend", "keys": []string{"1", "2"}})
	require.NoError(t, err)
	out, _, err = env.run("--viewer", "alice", "show", "friend", "--digest")
	require.NoError(t, err)
	assert.Equal(t, want+"\n", out)

	_, _, err = env.run("--viewer", "alice", "show", "friend", "--context", "999")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, _, err = env.run("--viewer", "alice", "show", "stream", "--context", "100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session-scoped")
}

func TestHistoryCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("--viewer", "alice", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs logged.")

	seedFriends(t, env)
	empty := writeBatch(t, env.dir, "empty.json", nil)
	_, _, err = env.run("--viewer", "bob", "reconcile", "stream", empty)
	require.NoError(t, err)

	out, _, err = env.run("--viewer", "alice", "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "SEQ")
	assert.Contains(t, lines[1], "friend")
	assert.Contains(t, lines[2], "user")

	out, _, err = env.run("--format", "json", "history", "--all", "--limit", "0")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	runs := resp.Data.([]any)
	require.Len(t, runs, 3)
	assert.Equal(t, "bob", runs[0].(map[string]any)["viewer"])
	assert.Equal(t, "ok", runs[0].(map[string]any)["status"])

	out, _, err = env.run("--viewer", "alice", "history", "--limit", "1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

const syncFixture = `fixtures:
  - entity: user
    clause: WHERE uid=me()
    records:
      - {uid: 100, first_name: Alice}
  - entity: friend
    clause: WHERE uid1=me()
    records:
      - {uid1: 100, uid2: 200}
  - entity: album
    clause: WHERE owner=me()
    records:
      - {aid: "100_1", owner: 100, name: Holidays, object_id: 11, cover_object_id: 12, cover_pid: 13}
`

func TestSyncCommand(t *testing.T) {
	env := newCLIEnv(t)
	fixture := filepath.Join(env.dir, "fixture.yaml")
	writeFile(t, fixture, syncFixture)
	metrics := filepath.Join(env.dir, "metrics.prom")

	out, _, err := env.run("--viewer", "alice", "sync", "--fixture", fixture, "--metrics-file", metrics)
	require.NoError(t, err)
	assert.Contains(t, out, "user: 1 added")
	assert.Contains(t, out, "friend[100]: 1 added")
	assert.Contains(t, out, "album[100]: 1 added")

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "graphmirror_reconcile_runs_total")

	out, _, err = env.run("--viewer", "alice", "show", "album")
	require.NoError(t, err)
	assert.Contains(t, out, "100_1\t")
	assert.Contains(t, out, "Holidays")

	// A second sync changes nothing.
	out, _, err = env.run("--viewer", "alice", "--format", "json", "sync", "--fixture", fixture, "--entity", "album")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	steps := resp.Data.([]any)
	require.Len(t, steps, 1)
}

func TestSyncCommandFromConfig(t *testing.T) {
	env := newCLIEnv(t)
	writeFile(t, filepath.Join(env.dir, "fixture.yaml"), syncFixture)
	writeFile(t, filepath.Join(env.dir, "graphmirror.yaml"), "viewer: alice\nfixture: fixture.yaml\nbatch:\n  user: 1\n")

	out, _, err := env.run("sync", "--entity", "user")
	require.NoError(t, err)
	assert.Contains(t, out, "user: 1 added")
}

func TestSyncCommandErrors(t *testing.T) {
	env := newCLIEnv(t)
	fixture := filepath.Join(env.dir, "fixture.yaml")
	writeFile(t, fixture, syncFixture)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantMsg  string
	}{
		{"no fixture", []string{"sync"}, ExitCommandError, "no remote"},
		{"friends without entity", []string{"sync", "--fixture", fixture, "--friends"}, ExitCommandError, "--friends requires --entity"},
		{"missing fixture file", []string{"sync", "--fixture", filepath.Join(env.dir, "none.yaml")}, ExitCommandError, "failed to load fixture"},
		{"album before user", []string{"sync", "--fixture", fixture, "--entity", "album"}, ExitFailure, "sync failed after 0 steps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.run(append([]string{"--viewer", "alice"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

const friendScenario = `name: friends_turnover
viewer: alice
setup:
  - entity: user
    records: [{uid: 100}]
  - entity: friend
    records:
      - {uid1: 100, uid2: 1}
flow:
  - reconcile: friend
    records:
      - {uid1: 100, uid2: 2}
    expect:
      added: ["2"]
      deleted: ["1"]
assertions:
  - type: keys
    entity: friend
    keys: ["2"]
`

func TestTestCommand(t *testing.T) {
	env := newCLIEnv(t)
	dir := filepath.Join(env.dir, "scenarios")
	writeFile(t, filepath.Join(dir, "friends_turnover.yaml"), friendScenario)
	golden := filepath.Join(dir, "golden", "friends_turnover.golden")

	out, _, err := env.run("test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ friends_turnover (golden updated)")
	assert.FileExists(t, golden)

	out, _, err = env.run("test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")

	out, _, err = env.run("test", dir, "--filter", "stream_*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")

	writeFile(t, golden, `{"scenario_name":"friends_turnover","trace":[]}`)
	out, _, err = env.run("test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFailures(t *testing.T) {
	env := newCLIEnv(t)
	dir := filepath.Join(env.dir, "scenarios")
	writeFile(t, filepath.Join(dir, "wrong.yaml"), strings.Replace(friendScenario, `deleted: ["1"]`, `deleted: []`, 1))
	writeFile(t, filepath.Join(dir, "broken.yml"), "name: broken\nflow: [\n")

	out, _, err := env.run("--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["failed"])
	assert.Equal(t, float64(0), data["passed"])

	_, _, err = env.run("test", filepath.Join(env.dir, "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = env.run("test", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVersionCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "graphmirror "+ir.EngineVersion)

	out, _, err = env.run("--format", "json", "version")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, ir.EngineVersion, resp.Data.(map[string]any)["version"])
}
