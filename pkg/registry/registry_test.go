package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	reg := Builtin()
	require.NoError(t, reg.Validate())
	assert.Equal(t, []string{
		"assess-applicant-risk",
		"simulate-applicant-risk",
		"generate-counterfactuals",
		"request-risk-advisory",
		"record-risk-decision",
		"send-adverse-action-notice",
	}, reg.TaskTypes())

	a, ok := reg.Find("record-risk-decision")
	require.True(t, ok)
	assert.Contains(t, a.ErrorCodes, "DATABASE_INSERT_FAILED")

	_, ok = reg.Find("query-postgresql")
	assert.False(t, ok)
}

func TestLoadWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "1.1.0",
		"activities": [
			{"id": "request-risk-advisory", "taskType": "request-risk-advisory", "implementationStatus": "disabled"},
			{"id": "score-bureau-report", "taskType": "score-bureau-report"}
		]
	}`), 0o600))

	reg, err := LoadWithOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", reg.Version)
	assert.Len(t, reg.Activities, 7)

	a, ok := reg.Find("request-risk-advisory")
	require.True(t, ok)
	assert.Equal(t, "disabled", a.ImplementationStatus)
}

func TestLoadWithOverrides_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadWithOverrides(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"activities": [`), 0o600))
	_, err = LoadWithOverrides(bad)
	assert.Error(t, err)

	dup := filepath.Join(dir, "dup.json")
	require.NoError(t, os.WriteFile(dup, []byte(`{"activities": [{"id": "x", "taskType": "assess-applicant-risk"}]}`), 0o600))
	_, err = LoadWithOverrides(dup)
	assert.ErrorContains(t, err, `duplicate taskType "assess-applicant-risk"`)
}

func TestLoadWithOverrides_Empty(t *testing.T) {
	reg, err := LoadWithOverrides("")
	require.NoError(t, err)
	assert.Equal(t, Builtin(), reg)
}
