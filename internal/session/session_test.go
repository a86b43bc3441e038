package session

import (
	"testing"
	"time"

	"github.com/loreseek/loreseek/internal/models"
)

func sample() []models.DisplayResult {
	return []models.DisplayResult{{Title: "Best shield", URL: "https://reddit.com/r/botw/comments/a/"}}
}

func TestPutGet(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	token := s.Put("best shield botw", sample())
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	got, ok := s.Get(token, "best shield botw")
	if !ok {
		t.Fatal("expected retained results")
	}
	if len(got) != 1 || got[0].Title != "Best shield" {
		t.Errorf("unexpected results %v", got)
	}
}

func TestGetQueryMismatch(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	token := s.Put("best shield botw", sample())
	if _, ok := s.Get(token, "a different query"); ok {
		t.Error("query mismatch must not return results")
	}
}

func TestGetUnknownToken(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	if _, ok := s.Get("nope", "query"); ok {
		t.Error("unknown token must not return results")
	}
}

func TestGetExpired(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	token := s.Put("query", sample())
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, ok := s.Get(token, "query"); ok {
		t.Error("expired entry must not return results")
	}
	if s.Len() != 0 {
		t.Error("expired entry should be dropped on access")
	}
}

func TestTokensAreUnique(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	a := s.Put("query", sample())
	b := s.Put("query", sample())
	if a == b {
		t.Error("tokens must be unique per Put")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", s.Len())
	}
}
