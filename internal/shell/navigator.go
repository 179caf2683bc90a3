package shell

import "github.com/grupomess/erp/internal/models"

// Navigator is the screen back stack
type Navigator struct {
	stack []models.Screen
}

func NewNavigator(start models.Screen) *Navigator {
	return &Navigator{stack: []models.Screen{start}}
}

func (n *Navigator) Current() models.Screen {
	return n.stack[len(n.stack)-1]
}

// Push opens screen on top of the current one
func (n *Navigator) Push(screen models.Screen) {
	n.stack = append(n.stack, screen)
}

// Pop finishes the current screen. The root screen is never popped.
func (n *Navigator) Pop() models.Screen {
	if len(n.stack) == 1 {
		return n.stack[0]
	}
	n.stack = n.stack[:len(n.stack)-1]
	return n.Current()
}

// ResetTo clears the whole stack and starts over at screen
func (n *Navigator) ResetTo(screen models.Screen) {
	n.stack = []models.Screen{screen}
}

// Stack returns a copy of the back stack, root first
func (n *Navigator) Stack() []models.Screen {
	out := make([]models.Screen, len(n.stack))
	copy(out, n.stack)
	return out
}

// Contains reports whether screen is anywhere on the stack
func (n *Navigator) Contains(screen models.Screen) bool {
	for _, s := range n.stack {
		if s == screen {
			return true
		}
	}
	return false
}
