// ABOUTME: Renders the live status of every agent in the run as a compact table.
// ABOUTME: Replaces the teacher's DOT-graph panel: agents have no graph structure, just independent lifecycle state.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BillChan226/multiagent-gen/orchestrator"
)

// AgentPanelModel displays the current status of each known agent.
type AgentPanelModel struct {
	statuses map[string]orchestrator.AgentStatus
	order    []string // agent IDs in spawn order
	width    int
}

// NewAgentPanelModel creates an empty AgentPanelModel.
func NewAgentPanelModel() AgentPanelModel {
	return AgentPanelModel{statuses: make(map[string]orchestrator.AgentStatus)}
}

// SetStatus records or updates an agent's status, appending it to the
// display order the first time it's seen.
func (m *AgentPanelModel) SetStatus(agentID string, status orchestrator.AgentStatus) {
	if _, ok := m.statuses[agentID]; !ok {
		m.order = append(m.order, agentID)
	}
	m.statuses[agentID] = status
}

// GetStatus returns the current status for agentID, or AgentPending if unknown.
func (m AgentPanelModel) GetStatus(agentID string) orchestrator.AgentStatus {
	if s, ok := m.statuses[agentID]; ok {
		return s
	}
	return orchestrator.AgentPending
}

// SetWidth sets the panel width for rendering.
func (m *AgentPanelModel) SetWidth(w int) {
	m.width = w
}

// Count returns the number of known agents.
func (m AgentPanelModel) Count() int {
	return len(m.order)
}

// CountByStatus returns how many agents currently hold the given status.
func (m AgentPanelModel) CountByStatus(status orchestrator.AgentStatus) int {
	n := 0
	for _, s := range m.statuses {
		if s == status {
			n++
		}
	}
	return n
}

// View renders a compact "agent_id status" line per agent in spawn order;
// lines are not wrapped to the panel width.
func (m AgentPanelModel) View() string {
	if len(m.order) == 0 {
		return TitleStyle.Render("AGENTS") + "\nNo agents spawned yet"
	}

	ids := make([]string, len(m.order))
	copy(ids, m.order)
	sort.SliceStable(ids, func(i, j int) bool { return false }) // preserve spawn order

	var b strings.Builder
	b.WriteString(TitleStyle.Render("AGENTS"))
	b.WriteString("\n")
	for _, id := range ids {
		status := m.statuses[id]
		line := fmt.Sprintf("%-20s %s", id, StyleForStatus(status).Render(string(status)))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
