package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func receive(t *testing.T, ch chan []byte) ScoreboardEvent {
	t.Helper()
	select {
	case data := <-ch:
		var ev ScoreboardEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return ScoreboardEvent{}
	}
}

func TestBrokerPublishesRegistryChanges(t *testing.T) {
	env := newTestEnv(t)
	ch := env.broker.Subscribe()
	defer env.broker.Unsubscribe(ch)

	env.postJSON(t, "/image", ImageRequest{TeamCredentials: env.creds("bravo"), ImageIter: 0})
	env.postJSON(t, "/verify", VerifyRequest{TeamCredentials: env.creds("bravo"), UserGuess: "human"})

	ev := receive(t, ch)
	if ev.Type != "score" || ev.Team != "bravo" || ev.Score != 1 {
		t.Errorf("event = %+v, want bravo score 1", ev)
	}

	env.postJSON(t, "/submitaiornot", SubmitScoreRequest{TeamName: "bravo", ServerSession: env.token})
	ev = receive(t, ch)
	if ev.Type != "completed" || ev.Team != "bravo" || ev.Game != "ai_or_not" {
		t.Errorf("event = %+v, want bravo completed ai_or_not", ev)
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := range 100 {
		b.ScoreChanged("alpha", i+1)
	}
	if got := len(ch); got != cap(ch) {
		t.Errorf("buffered = %d, want %d", got, cap(ch))
	}
}

func TestScoreEventsStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/scores/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	events := make(chan ScoreboardEvent)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			data, ok := strings.CutPrefix(sc.Text(), "data: ")
			if !ok {
				continue
			}
			var ev ScoreboardEvent
			if json.Unmarshal([]byte(data), &ev) == nil {
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	next := func() ScoreboardEvent {
		t.Helper()
		select {
		case ev := <-events:
			return ev
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
			return ScoreboardEvent{}
		}
	}

	snap := next()
	if snap.Type != "snapshot" || len(snap.Scores) != 2 {
		t.Fatalf("first event = %+v, want snapshot of 2 teams", snap)
	}

	env.postJSON(t, "/image", ImageRequest{TeamCredentials: env.creds("alpha"), ImageIter: 0})
	env.postJSON(t, "/verify", VerifyRequest{TeamCredentials: env.creds("alpha"), UserGuess: "human"})

	if ev := next(); ev.Type != "score" || ev.Team != "alpha" || ev.Score != 1 {
		t.Errorf("event = %+v, want alpha score 1", ev)
	}
}

func TestScoreEventsEndOnClose(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/scores/events")
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer resp.Body.Close()

	env.broker.Close()
	env.broker.Close()

	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.Discard, resp.Body)
		done <- err
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream still open after broker closed")
	}
}
