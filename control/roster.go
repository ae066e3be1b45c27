package control

import "fmt"

// Roster is the agent list shown in the panel with one agent selected.
type Roster struct {
	agents   []Agent
	selected int
}

// Set replaces the list. The selection stays on the same agent id when it is
// still present, otherwise it moves to the first agent.
func (r *Roster) Set(agents []Agent) {
	prev, had := r.Selected()
	r.agents = append([]Agent(nil), agents...)
	r.selected = 0
	if !had {
		return
	}
	for i, a := range r.agents {
		if a.ID == prev.ID {
			r.selected = i
			return
		}
	}
}

func (r *Roster) Len() int { return len(r.agents) }

// Selected returns the selected agent, if any.
func (r *Roster) Selected() (Agent, bool) {
	if len(r.agents) == 0 {
		return Agent{}, false
	}
	return r.agents[r.selected], true
}

// Step moves the selection by n, wrapping around.
func (r *Roster) Step(n int) {
	if len(r.agents) == 0 {
		return
	}
	r.selected = ((r.selected+n)%len(r.agents) + len(r.agents)) % len(r.agents)
}

// Remove drops the agent with id, keeping the selection in range.
func (r *Roster) Remove(id string) {
	for i, a := range r.agents {
		if a.ID != id {
			continue
		}
		r.agents = append(r.agents[:i], r.agents[i+1:]...)
		if r.selected >= len(r.agents) && r.selected > 0 {
			r.selected--
		}
		return
	}
}

// Label is the one-line text for the panel.
func (r *Roster) Label() string {
	a, ok := r.Selected()
	if !ok {
		return "no agents yet"
	}
	return fmt.Sprintf("agent %d/%d: %s", r.selected+1, len(r.agents), a.Name)
}
