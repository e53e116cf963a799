// Package greeting picks the assistant's welcome line for a new session.
package greeting

import (
	"math/rand"
	"sync"
)

// OfflineWarning is returned instead of a welcome phrase when the remote
// API is unreachable.
const OfflineWarning = "Warning! No internet connection detected. Some features may not work properly."

var welcomePhrases = []string{
	"Hello! My name is ELIE, your AI Assistant.",
	"Hi there! I'm ELIE, how can I assist you today?",
	"Welcome! I'm ELIE, here to help you.",
	"Hey! ELIE at your service.",
	"Greetings! I'm ELIE, your personal assistant.",
	"Nice to meet you! I'm ELIE, let's get started.",
	"Good day! I'm ELIE, your smart assistant. How can I help?",
	"Hi! ELIE here, ready to assist you anytime.",
	"Hello! I'm ELIE. What can I do for you today?",
	"Hey there! Need some help? ELIE is here for you.",
	"Greetings, human! I'm ELIE, your AI companion.",
	"Welcome back! ELIE is ready to make your day easier.",
	"I'm ELIE, your assistant for all things smart and simple.",
	"Hi, I'm ELIE! Let's get things done together.",
	"Hey, it's ELIE! I'm here to support you.",
	"Hello! ELIE checking in. What's on your mind?",
	"Good to see you! ELIE at your service.",
	"ELIE here! Let's make things smooth and easy for you.",
	"Hey! Your friendly AI assistant ELIE is ready to help.",
	"Hi there! ELIE is online and ready to assist.",
}

// Greeter hands out at most one welcome phrase per process lifetime.
type Greeter struct {
	mu     sync.Mutex
	played bool
	pick   func(n int) int
}

// NewGreeter builds a Greeter with the default random phrase picker.
func NewGreeter() *Greeter {
	return &Greeter{pick: rand.Intn}
}

// Welcome returns a welcome phrase the first time it is called and
// ("", false) afterwards. When online is false it returns the offline
// warning instead of a phrase; the once-flag is still consumed.
func (g *Greeter) Welcome(online bool) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.played {
		return "", false
	}
	g.played = true
	if !online {
		return OfflineWarning, true
	}
	return welcomePhrases[g.pick(len(welcomePhrases))], true
}
