package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	httphandler "github.com/ogurasousui/staff-directory/internal/adapters/http/handler"
	"github.com/ogurasousui/staff-directory/internal/adapters/repository/memory"
	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/ogurasousui/staff-directory/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = `accounts:
  - login: alice
    email: alice@example.com
    display_name: Alice
    profile:
      department: Eng
      job_title: Engineer
  - login: bob
    email: bob@example.com
    display_name: bob
    profile:
      department: Sales
  - login: carol
    email: carol@example.com
    display_name: Carol
    profile:
      department: Eng
`

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(testSeed), 0o600))

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "server:\n  listen_addr: \":0\"\nstorage:\n  driver: memory\n  seed_path: " + seedPath + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDepartmentsCommand(t *testing.T) {
	out, err := execute(t, "--config", writeConfig(t), "departments")
	require.NoError(t, err)
	assert.Equal(t, "Eng\nSales\n", out)
}

func TestProfileCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "--config", cfg, "profile", "get", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice (alice)")
	assert.Contains(t, out, "department: Eng\n")
	assert.Contains(t, out, "job_title: Engineer\n")

	out, err = execute(t, "--config", cfg, "profile", "set", "bob", "start_date=2024-02-14", "telegram=bobsells", "--hide-social", "telegram")
	require.NoError(t, err)
	assert.Contains(t, out, "start_date: 2024-02\n")
	assert.Contains(t, out, "hidden_social_fields: telegram\n")

	_, err = execute(t, "--config", cfg, "profile", "set", "bob", "start_date=soon")
	assert.Error(t, err)

	_, err = execute(t, "--config", cfg, "profile", "set", "bob", "novalue")
	assert.ErrorContains(t, err, "want key=value")

	_, err = execute(t, "--config", cfg, "profile", "get", "nobody")
	assert.ErrorIs(t, err, directory.ErrEmployeeNotFound)
}

func TestVisibilityCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "--config", cfg, "hide", "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol is now hidden\n", out)

	out, err = execute(t, "--config", cfg, "restore", "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol is now visible\n", out)
}

func newBrowseServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.NewStore()
	_, err := memory.LoadSeed(context.Background(), store, strings.NewReader(testSeed))
	require.NoError(t, err)

	h := httphandler.NewDirectoryHTTPHandler(directory.NewService(store, store), directory.DefaultSettings(), directory.Instances{"eng": {Department: "Eng"}}, logging.Discard())
	r := mux.NewRouter()
	h.Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestBrowseCommand(t *testing.T) {
	srv := newBrowseServer(t)
	prefs := t.TempDir()

	out, err := execute(t, "browse", "--server", srv.URL, "--prefs-dir", prefs, "--instance", "eng", "--sort", "name_desc")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Less(t, strings.Index(out, "Carol"), strings.Index(out, "Alice"))
	assert.NotContains(t, out, "bob")
	assert.Contains(t, out, "page 1 of 1, 2 employees")

	out, err = execute(t, "browse", "--server", srv.URL, "--prefs-dir", prefs, "--view", "list", "--letter", "b")
	require.NoError(t, err)
	assert.Equal(t, "bob  bob@example.com\npage 1 of 1, 1 employees\n", out)

	// view and sort are remembered between runs
	out, err = execute(t, "browse", "--server", srv.URL, "--prefs-dir", prefs)
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Carol"), strings.Index(out, "Alice"))
	assert.NotContains(t, out, "NAME")

	out, err = execute(t, "browse", "--server", srv.URL, "--prefs-dir", "", "--search", "nobody")
	require.NoError(t, err)
	assert.Equal(t, "No employees found.\n", out)
}
