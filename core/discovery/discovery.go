// Package discovery builds the static agent-card document spec.md §6
// describes for external collaborators: a pure function of build-time
// metadata served at /.well-known/agent-card.json. It takes no clock or
// entropy input, so its output is identical across every invocation.
package discovery

// Endpoints lists the HTTP paths an external collaborator can reach.
type Endpoints struct {
	Health  string `json:"health"`
	Metrics string `json:"metrics"`
	Execute string `json:"execute"`
}

// Links points at human-facing documentation and source.
type Links struct {
	Documentation string `json:"documentation"`
	Repository    string `json:"repository"`
}

// Card is the discovery document, with fields in the fixed key order
// spec.md §6 specifies.
type Card struct {
	AgentID        string    `json:"agentId"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Version        string    `json:"version"`
	Capabilities   []string  `json:"capabilities"`
	Endpoints      Endpoints `json:"endpoints"`
	SupportedTrust []string  `json:"supportedTrust"`
	Links          Links     `json:"links"`
	Standards      []string  `json:"standards"`
}

// executeSentinel is what non-interactive deployments report for their
// execute endpoint, per spec.md §6.
const executeSentinel = "N/A"

// Metadata is the build-time information the card is rendered from. It
// carries no clock or entropy: every field is fixed at build or deploy
// time, so the resulting Card is pure.
type Metadata struct {
	AgentID        string
	Name           string
	Description    string
	Version        string
	Capabilities   []string
	HealthPath     string
	MetricsPath    string
	SupportedTrust []string
	DocsURL        string
	RepositoryURL  string
	Standards      []string
}

// Build renders a Card from Metadata. Capabilities, SupportedTrust, and
// Standards are copied defensively so the caller's slices cannot be
// mutated through the returned Card.
func Build(m Metadata) Card {
	return Card{
		AgentID:      m.AgentID,
		Name:         m.Name,
		Description:  m.Description,
		Version:      m.Version,
		Capabilities: copyStrings(m.Capabilities),
		Endpoints: Endpoints{
			Health:  m.HealthPath,
			Metrics: m.MetricsPath,
			Execute: executeSentinel,
		},
		SupportedTrust: copyStrings(m.SupportedTrust),
		Links: Links{
			Documentation: m.DocsURL,
			Repository:    m.RepositoryURL,
		},
		Standards: copyStrings(m.Standards),
	}
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
