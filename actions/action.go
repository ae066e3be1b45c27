// Package actions runs the server-directed NPC actions against a session.
package actions

// ActionType names an NPC action. Unknown types behave like Nothing.
type ActionType string

const (
	Say     ActionType = "say"
	SpeakTo ActionType = "speak_to"
	Move    ActionType = "move"
	Enter   ActionType = "enter"
	Leave   ActionType = "leave"
	Nothing ActionType = "nothing"
)

// Action is one instruction for a character.
type Action struct {
	Type    ActionType `json:"type" yaml:"type"`
	Content string     `json:"content,omitempty" yaml:"content,omitempty"`
	Target  string     `json:"target,omitempty" yaml:"target,omitempty"`
}

// Known reports whether the type is one the executor acts on.
func (t ActionType) Known() bool {
	switch t {
	case Say, SpeakTo, Move, Enter, Leave, Nothing:
		return true
	}
	return false
}

// Item pairs a character id with the action it should run.
type Item struct {
	ID     string `yaml:"id"`
	Action Action `yaml:"action"`
}
