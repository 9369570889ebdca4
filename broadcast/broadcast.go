// Package broadcast multiplexes generation token events to live viewer
// connections, keyed by chat id. The registry is a process-scoped service:
// created at startup, sole mutator of its subscriber map, torn down with the
// process. Events are not buffered or replayed; a publish with no subscribers
// is a silent no-op.
package broadcast

import (
	"sync"

	zlog "github.com/rs/zerolog/log"
)

const (
	EventTypeProvider = "provider"
	EventTypeSynth    = "synth"
)

// StreamEvent is the wire unit pushed to subscribers. A provider event with
// Done set and an empty token marks the end of that provider's stream; a
// synth event with Done set marks the end of synthesis.
type StreamEvent struct {
	Type     string `json:"type"`
	Provider string `json:"provider,omitempty"`
	Token    string `json:"token"`
	Done     bool   `json:"done"`
}

// Subscriber is one live viewer connection. Send must be safe for use by the
// registry's publish path; a non-nil error marks the connection dead and gets
// it removed.
type Subscriber interface {
	Send(event StreamEvent) error
}

// Registry tracks subscribers per chat and fans published events out to them.
type Registry struct {
	mu          sync.Mutex
	subscribers map[string][]Subscriber
}

func NewRegistry() *Registry {
	return &Registry{subscribers: make(map[string][]Subscriber)}
}

// Subscribe registers a connection under the chat's subscriber list.
func (r *Registry) Subscribe(chatId string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[chatId] = append(r.subscribers[chatId], sub)
}

// Unsubscribe removes a connection. Calling it twice, or for a connection
// that was already pruned, is not an error.
func (r *Registry) Unsubscribe(chatId string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(chatId, sub)
}

// SubscriberCount returns the number of live subscribers for a chat.
func (r *Registry) SubscriberCount(chatId string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers[chatId])
}

// PublishProviderToken delivers one provider token event to every current
// subscriber of the chat.
func (r *Registry) PublishProviderToken(chatId, provider, token string, done bool) {
	r.publish(chatId, StreamEvent{
		Type:     EventTypeProvider,
		Provider: provider,
		Token:    token,
		Done:     done,
	})
}

// PublishSynthToken delivers one synthesized-answer token event to every
// current subscriber of the chat.
func (r *Registry) PublishSynthToken(chatId, token string, done bool) {
	r.publish(chatId, StreamEvent{
		Type:  EventTypeSynth,
		Token: token,
		Done:  done,
	})
}

// publish delivers best-effort per subscriber: a failed send removes that
// connection and never blocks delivery to the others. Holding the lock across
// the sends keeps per-subscriber delivery in publish order.
func (r *Registry) publish(chatId string, event StreamEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.subscribers[chatId]
	if len(subs) == 0 {
		return
	}

	var dead []Subscriber
	for _, sub := range subs {
		if err := sub.Send(event); err != nil {
			zlog.Debug().Err(err).Str("chat_id", chatId).Msg("Dropping dead subscriber")
			dead = append(dead, sub)
		}
	}

	for _, sub := range dead {
		r.removeLocked(chatId, sub)
	}
}

func (r *Registry) removeLocked(chatId string, sub Subscriber) {
	subs := r.subscribers[chatId]
	for i, existing := range subs {
		if existing == sub {
			r.subscribers[chatId] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(r.subscribers[chatId]) == 0 {
		delete(r.subscribers, chatId)
	}
}
