package server

import (
	"encoding/json"
	"sync"

	"github.com/leapfxp/gamenight/internal/gamenight"
)

// ScoreboardEvent is the payload published to scoreboard subscribers.
type ScoreboardEvent struct {
	Type   string         `json:"type"`
	Team   string         `json:"team,omitempty"`
	Score  int            `json:"score,omitempty"`
	Game   string         `json:"game,omitempty"`
	Scores map[string]int `json:"scores,omitempty"`
}

// Broker is an in-process pub/sub for scoreboard events. It implements
// teams.Notifier.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}

	closeOnce sync.Once
	done      chan struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[chan []byte]struct{}),
		done: make(chan struct{}),
	}
}

// Close tells every open stream to finish. It is safe to call more than once.
func (b *Broker) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// Done is closed once Close has been called.
func (b *Broker) Done() <-chan struct{} {
	return b.done
}

// Subscribe returns a channel that receives JSON-encoded scoreboard events.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *Broker) Publish(event ScoreboardEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

func (b *Broker) ScoreChanged(team string, score int) {
	b.Publish(ScoreboardEvent{Type: "score", Team: team, Score: score})
}

func (b *Broker) GameCompleted(game gamenight.Game, team string) {
	b.Publish(ScoreboardEvent{Type: "completed", Team: team, Game: string(game)})
}
