package savr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/samber/lo"

	"github.com/mtlprog/shareholders/internal/domain"
)

// AgentsURL builds the agents query with every id encoded once as id%5B%5D=<id>.
func AgentsURL(baseURL string, ids []string) string {
	params := url.Values{"id[]": lo.Uniq(ids)}
	return baseURL + "/agents?" + params.Encode()
}

// FetchAgents fetches agent details for the given ids in a single request.
// An empty id set returns no agents without issuing a request.
func (c *Client) FetchAgents(ctx context.Context, ids []string, policy Policy) ([]domain.AgentRecord, error) {
	if len(ids) == 0 {
		slog.Info("no agent ids to look up")
		return []domain.AgentRecord{}, nil
	}

	agentsURL := AgentsURL(c.baseURL, ids)
	res := c.Fetch(ctx, agentsURL)
	if !res.OK() {
		return []domain.AgentRecord{}, policy.resolve(res)
	}

	var agents []domain.AgentRecord
	if err := json.Unmarshal(res.Body, &agents); err != nil {
		if isJSONArray(res.Body) {
			return []domain.AgentRecord{}, policy.resolve(failed(KindDecode, agentsURL, 0, fmt.Errorf("decoding agents: %w", err)))
		}
		slog.Warn("agents response is not a JSON array, ignoring", "url", agentsURL)
		return []domain.AgentRecord{}, nil
	}
	if agents == nil {
		agents = []domain.AgentRecord{}
	}

	slog.Info("agents fetched", "requested", len(ids), "received", len(agents))
	return agents, nil
}

func isJSONArray(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '['
}
