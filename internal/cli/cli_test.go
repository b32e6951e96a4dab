package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/guidekeeper/internal/services"
)

type cliEnv struct {
	dir    string
	dbPath string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APP_VERSION", "")
	t.Setenv("BACKUP_DIR", filepath.Join(dir, "backups"))
	t.Setenv("LOG_LEVEL", "error")
	return &cliEnv{dir: dir, dbPath: filepath.Join(dir, "guides.db")}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	state := &runState{}
	root := newRootCommand("test", state)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", e.dbPath, "--env-file", filepath.Join(e.dir, "missing.env")}, args...))

	err := root.Execute()
	state.close()
	return out.String(), err
}

func (e *cliEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const networkSetupJSON = `{
	"version": "1.0",
	"guide": {
		"title": "Network Setup",
		"category": "Networking",
		"steps": [
			{"order": 1, "title": "Cable", "content": "Plug the WAN port."},
			{"order": 2, "title": "DHCP", "content": "Set the pool."}
		]
	}
}`

func TestCLI_ImportListExport(t *testing.T) {
	env := setupCLI(t)
	source := env.writeFile(t, "guide.json", networkSetupJSON)

	out, err := env.run(t, "--json", "import", source)
	require.NoError(t, err)
	var result services.ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	require.Equal(t, []uint{1}, result.ImportedGuideIDs)

	out, err = env.run(t, "import", source)
	require.NoError(t, err, "skipped duplicates are not a failure")
	assert.Contains(t, out, "skipped 1 duplicate(s)")

	out, err = env.run(t, "import", "--duplicate", "rename", source)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 guide(s)")

	out, err = env.run(t, "--json", "list")
	require.NoError(t, err)
	var summaries []guideSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "Network Setup", summaries[0].Title)
	assert.Equal(t, "Network Setup (1)", summaries[1].Title)
	assert.Equal(t, 2, summaries[0].Steps)

	out, err = env.run(t, "export", "1", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "# Network Setup")
	assert.Contains(t, out, "## 2. DHCP")

	out, err = env.run(t, "export", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Network Setup"`)

	bundle := filepath.Join(env.dir, "bundle.zip")
	_, err = env.run(t, "export", "1", "--zip", "-o", bundle)
	require.NoError(t, err)
	_, err = os.Stat(bundle)
	assert.NoError(t, err)

	_, err = env.run(t, "export", "abc")
	assert.Error(t, err)
}

func TestCLI_ImportRejectsBadInput(t *testing.T) {
	env := setupCLI(t)

	_, err := env.run(t, "import", "--duplicate", "merge", env.writeFile(t, "g.json", networkSetupJSON))
	assert.Error(t, err)

	_, err = env.run(t, "import", env.writeFile(t, "bad.json", `{"name": "nope"}`))
	assert.Error(t, err)
}

func TestCLI_Validate(t *testing.T) {
	env := setupCLI(t)

	out, err := env.run(t, "validate", env.writeFile(t, "ok.json", networkSetupJSON))
	require.NoError(t, err)
	assert.Contains(t, out, "valid (single format, 1 guide(s), 0 image(s))")
	assert.Contains(t, out, "  - Network Setup")

	_, err = env.run(t, "validate", env.writeFile(t, "bad.json", `{"title": ""}`))
	assert.Error(t, err)
}

func TestCLI_BackupLifecycle(t *testing.T) {
	env := setupCLI(t)
	_, err := env.run(t, "import", env.writeFile(t, "guide.json", networkSetupJSON))
	require.NoError(t, err)

	backupPath := filepath.Join(env.dir, "backups", "manual.zip")
	out, err := env.run(t, "backup", "create", backupPath)
	require.NoError(t, err)
	assert.Contains(t, out, "guides:      1")

	out, err = env.run(t, "--json", "backup", "list")
	require.NoError(t, err)
	var listings []backupListing
	require.NoError(t, json.Unmarshal([]byte(out), &listings))
	require.Len(t, listings, 1)
	assert.Equal(t, backupPath, listings[0].Path)
	assert.Equal(t, "test", listings[0].Info.AppVersion)

	_, err = env.run(t, "backup", "validate", backupPath)
	assert.NoError(t, err)

	_, err = env.run(t, "backup", "restore", backupPath)
	assert.Error(t, err, "restore needs --yes")

	_, err = env.run(t, "import", "--duplicate", "rename", env.writeFile(t, "again.json", networkSetupJSON))
	require.NoError(t, err)

	_, err = env.run(t, "backup", "restore", "--yes", backupPath)
	require.NoError(t, err)

	out, err = env.run(t, "--json", "list")
	require.NoError(t, err)
	var summaries []guideSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	assert.Len(t, summaries, 1)
}

func TestCLI_Version(t *testing.T) {
	env := setupCLI(t)

	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "guidekeeper test\n", out)

	_, err = os.Stat(env.dbPath)
	assert.True(t, os.IsNotExist(err), "version does not open the store")
}

func TestCLI_History(t *testing.T) {
	env := setupCLI(t)

	out, err := env.run(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "No history\n", out)

	source := env.writeFile(t, "guide.json", networkSetupJSON)
	_, err = env.run(t, "import", source)
	require.NoError(t, err)
	_, err = env.run(t, "backup", "create", filepath.Join(env.dir, "b.zip"))
	require.NoError(t, err)

	out, err = env.run(t, "--json", "history")
	require.NoError(t, err)
	var page historyPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Events, 2)

	actions := []string{page.Events[0].Action, page.Events[1].Action}
	assert.ElementsMatch(t, []string{"json_import", "backup_create"}, actions)

	out, err = env.run(t, "--json", "history", "--type", "import")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, int64(1), page.Total)
}
