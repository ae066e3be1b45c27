package systems

import (
	"github.com/yohamta/donburi"

	"github.com/automoto/isoroom/components"
)

// UpdateMotion advances every character by one frame and returns how many
// steps committed.
func UpdateMotion(w donburi.World) int {
	committed := 0
	components.Motion.Each(w, func(e *donburi.Entry) {
		if components.Motion.Get(e).Advance() {
			committed++
		}
	})
	return committed
}
