package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleScoreEvents streams scoreboard changes as Server-Sent Events. The
// first event is a snapshot of every score.
func handleScoreEvents(g *gate, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		// Subscribe before the snapshot so no change falls between the two.
		ch := broker.Subscribe()
		defer broker.Unsubscribe(ch)

		scores, err := g.teams.Scores(r.Context())
		if err != nil {
			writeGameError(w, g.logger, err)
			return
		}
		snapshot, _ := json.Marshal(ScoreboardEvent{Type: "snapshot", Scores: scores})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		fmt.Fprintf(w, "event: scoreboard\ndata: %s\n\n", snapshot)
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-broker.Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: scoreboard\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
