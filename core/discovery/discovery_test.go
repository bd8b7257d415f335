package discovery

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSetsExecuteSentinel(t *testing.T) {
	card := Build(Metadata{AgentID: "solverd-1", Name: "solverd", Version: "0.1.0"})
	require.Equal(t, "N/A", card.Endpoints.Execute)
}

func TestBuildIsPureAndDeterministic(t *testing.T) {
	m := Metadata{
		AgentID:        "solverd-1",
		Name:           "solverd",
		Description:    "deterministic off-chain solver",
		Version:        "0.1.0",
		Capabilities:   []string{"SAFE_REPORT"},
		HealthPath:     "/health",
		MetricsPath:    "/metrics",
		SupportedTrust: []string{"policy-gated"},
		DocsURL:        "https://example.com/docs",
		RepositoryURL:  "https://example.com/repo",
		Standards:      []string{"RFC8785"},
	}
	first := Build(m)
	second := Build(m)
	require.Equal(t, first, second)
}

func TestCardFieldOrderMatchesSpec(t *testing.T) {
	card := Build(Metadata{AgentID: "a", Name: "n", Description: "d", Version: "v"})
	encoded, err := json.Marshal(card)
	require.NoError(t, err)

	var order []string
	dec := json.NewDecoder(bytes.NewReader(encoded))
	tok, err := dec.Token()
	require.NoError(t, err)
	require.Equal(t, json.Delim('{'), tok)
	for dec.More() {
		keyTok, err := dec.Token()
		require.NoError(t, err)
		key, ok := keyTok.(string)
		require.True(t, ok)
		order = append(order, key)
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}
	require.Equal(t, []string{
		"agentId", "name", "description", "version", "capabilities",
		"endpoints", "supportedTrust", "links", "standards",
	}, order)
}

func TestBuildCopiesSlicesDefensively(t *testing.T) {
	caps := []string{"SAFE_REPORT"}
	card := Build(Metadata{Capabilities: caps})
	caps[0] = "MUTATED"
	require.Equal(t, "SAFE_REPORT", card.Capabilities[0])
}
