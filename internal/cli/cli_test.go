package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := "storage:\n" +
		"    backend: sqlite\n" +
		"    compression: gzip\n" +
		"    sqlite:\n" +
		"        path: " + filepath.Join(dir, "inkpot.db") + "\n" +
		"        driver: sqlite\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"import", "list", "delete", "config"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	gen, _, err := cmd.Find([]string{"config", "generate"})
	require.NoError(t, err)
	assert.Equal(t, "generate", gen.Name())
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)
	assert.Equal(t, "config.yaml", cfg.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "list", "--format", "xml", "--config", writeConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestImportListDelete(t *testing.T) {
	cfgPath := writeConfig(t)

	posts := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(posts, "first.md"), []byte(
		"%%%\ntitle = \"First Post\"\nkeyword = [\"go\"]\n%%%\n\nHello **world**.\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(posts, "second.md"), []byte("# Second\n\nMore text.\n"), 0o644))

	out, err := execute(t, "import", "--path", posts, "--config", cfgPath, "--format", "json")
	require.NoError(t, err)

	var imported []ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	require.Len(t, imported, 2)
	assert.Equal(t, "First Post", imported[0].Title)
	assert.Equal(t, "Second", imported[1].Title)

	out, err = execute(t, "list", "--status", "draft", "--config", cfgPath, "--format", "json")
	require.NoError(t, err)

	var blogs []*model.Blog
	require.NoError(t, json.Unmarshal([]byte(out), &blogs))
	require.Len(t, blogs, 2)
	for _, b := range blogs {
		assert.Equal(t, model.StatusDraft, b.Status)
		if b.Title == "First Post" {
			assert.Equal(t, []string{"go"}, b.Tags)
			assert.Contains(t, b.Content, "<strong>world</strong>")
		}
	}

	out, err = execute(t, "list", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "First Post")

	out, err = execute(t, "delete", string(imported[0].ID), "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	out, err = execute(t, "list", "--config", cfgPath, "--format", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &blogs))
	assert.Len(t, blogs, 1)

	_, err = execute(t, "delete", "missing", "--config", cfgPath)
	assert.Error(t, err)
}

func TestImportRequiresPath(t *testing.T) {
	_, err := execute(t, "import", "--config", writeConfig(t))
	assert.Error(t, err)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	_, err := execute(t, "list", "--status", "archived", "--config", writeConfig(t))
	assert.Error(t, err)
}

func TestConfigGenerate(t *testing.T) {
	out, err := execute(t, "config", "generate", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "# Inkpot configuration")
	assert.Contains(t, out, "backend: memory")

	path := filepath.Join(t.TempDir(), "example.yaml")
	out, err = execute(t, "config", "generate", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "demo_user_id: demo-user-123")
}
