package components

import "github.com/yohamta/donburi"

// CharacterData identifies a character. The player has an empty ID.
type CharacterData struct {
	ID     string
	Name   string
	SkinID string
}

var Character = donburi.NewComponentType[CharacterData]()

type VisibilityData struct {
	Visible bool
}

var Visibility = donburi.NewComponentType[VisibilityData]()
