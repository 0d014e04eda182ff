package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const applicationsFile = `applications:
- name: Shop
  namespace: retail
  labelSelector: app=shop
  scanOnDeploy: true
- name: Shop Web
  namespace: retail
  labelSelector: app=shop,tier=web
  scanOnDeploy: true
- name: Billing
  namespace: finance
  labelSelector: app=billing
  scanOnDeploy: false
- name: Shop
  namespace: staging
  labelSelector: app=shop
  scanOnDeploy: true
`

func writeApplications(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "applications.yaml")
	require.NoError(t, os.WriteFile(path, []byte(applicationsFile), 0o600))
	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestApplicationsCommand_List(t *testing.T) {
	out, err := execute(t, newApplicationsCmd(), "--file", writeApplications(t))
	require.NoError(t, err)

	assert.Contains(t, out, "Shop Web")
	assert.Contains(t, out, "staging")
	assert.NotContains(t, out, "Billing", "definitions without scanOnDeploy are not listed")
}

func TestApplicationsCommand_MissingFileIsEmpty(t *testing.T) {
	out, err := execute(t, newApplicationsCmd(), "--file", filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "No applications")
}

func TestApplicationsCommand_Match(t *testing.T) {
	path := writeApplications(t)

	out, err := execute(t, newApplicationsCmd(), "--file", path, "--match", "retail", "--labels", "app=shop,tier=web", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Shop"`, "Shop sorts before Shop Web")

	_, err = execute(t, newApplicationsCmd(), "--file", path, "--match", "finance", "--labels", "app=billing")
	assert.ErrorContains(t, err, "no application matches")
}

func TestApplicationsCommand_InvalidOutput(t *testing.T) {
	_, err := execute(t, newApplicationsCmd(), "--file", writeApplications(t), "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestLabelsFromFlag(t *testing.T) {
	assert.Equal(t, map[string]string{"app": "shop", "tier": "web"}, labelsFromFlag("app=shop, tier=web"))
	assert.Empty(t, labelsFromFlag(""))
}
