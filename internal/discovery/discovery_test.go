package discovery

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/loreseek/loreseek/internal/llm"
	"go.uber.org/zap"
)

func newFinder(stub *llm.Stub) *Finder {
	return NewFinder(stub, zap.NewNop())
}

func TestForumsParsesProviderResponse(t *testing.T) {
	stub := &llm.Stub{Responses: []string{`[["tearsofthekingdom", "totk"], "best weapon"]`}}
	forums, residual := newFinder(stub).Forums(context.Background(), "best weapon in totk", 3, "")
	if !reflect.DeepEqual(forums, []string{"tearsofthekingdom", "totk"}) {
		t.Errorf("unexpected forums %v", forums)
	}
	if residual != "best weapon" {
		t.Errorf("unexpected residual %q", residual)
	}
}

func TestForumsStripsRPrefixAndTruncates(t *testing.T) {
	stub := &llm.Stub{Responses: []string{`[["r/a", "r/b", "c", "d"], "q"]`}}
	forums, _ := newFinder(stub).Forums(context.Background(), "query text", 2, "")
	if !reflect.DeepEqual(forums, []string{"a", "b"}) {
		t.Errorf("unexpected forums %v", forums)
	}
}

func TestForumsProviderErrorFailsClosed(t *testing.T) {
	stub := &llm.Stub{Err: errors.New("provider down")}
	forums, residual := newFinder(stub).Forums(context.Background(), "best shield botw", 3, "")
	if !reflect.DeepEqual(forums, []string{"gaming"}) {
		t.Errorf("expected default forums, got %v", forums)
	}
	if residual != "best shield botw" {
		t.Errorf("residual should be the original query, got %q", residual)
	}
}

func TestForumsUnparseableFailsClosed(t *testing.T) {
	for _, raw := range []string{"no json here", `{"forums": []}`, `["only-one-element"]`} {
		stub := &llm.Stub{Responses: []string{raw}}
		forums, residual := newFinder(stub).Forums(context.Background(), "botw query", 3, "")
		if !reflect.DeepEqual(forums, []string{"gaming"}) {
			t.Errorf("response %q: expected defaults, got %v", raw, forums)
		}
		if residual != "botw query" {
			t.Errorf("response %q: expected original query, got %q", raw, residual)
		}
	}
}

func TestForumsMarkdownFencedResponse(t *testing.T) {
	stub := &llm.Stub{Responses: []string{"```json\n[[\"botw\"], \"shrine locations\"]\n```"}}
	forums, residual := newFinder(stub).Forums(context.Background(), "botw shrine locations", 3, "")
	if !reflect.DeepEqual(forums, []string{"botw"}) {
		t.Errorf("unexpected forums %v", forums)
	}
	if residual != "shrine locations" {
		t.Errorf("unexpected residual %q", residual)
	}
}

func TestForumsForcedForum(t *testing.T) {
	stub := &llm.Stub{Responses: []string{`[["whatever"], "patch notes"]`}}
	forums, residual := newFinder(stub).Forums(context.Background(), "totk patch notes", 3, "tearsofthekingdom")
	if !reflect.DeepEqual(forums, []string{"tearsofthekingdom"}) {
		t.Errorf("forced forum should pass through, got %v", forums)
	}
	if residual != "patch notes" {
		t.Errorf("unexpected residual %q", residual)
	}
}

func TestForumsForcedForumProviderError(t *testing.T) {
	stub := &llm.Stub{Err: errors.New("down")}
	forums, residual := newFinder(stub).Forums(context.Background(), "totk patch notes", 3, "tearsofthekingdom")
	if !reflect.DeepEqual(forums, []string{"tearsofthekingdom"}) {
		t.Errorf("forced forum should survive provider failure, got %v", forums)
	}
	if residual != "totk patch notes" {
		t.Errorf("unexpected residual %q", residual)
	}
}

func TestPromptMentionsAbbreviation(t *testing.T) {
	stub := &llm.Stub{Responses: []string{`[["botw"], "q"]`}}
	newFinder(stub).Forums(context.Background(), "best armor botw", 3, "")
	if len(stub.Calls) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(stub.Calls))
	}
	if !strings.Contains(stub.Calls[0], "breath of the wild") {
		t.Error("prompt should expand the botw abbreviation")
	}
}

func TestParseResponseSingleStringForum(t *testing.T) {
	forums, residual, ok := parseResponse(`["gaming", "the query"]`)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if !reflect.DeepEqual(forums, []string{"gaming"}) || residual != "the query" {
		t.Errorf("unexpected result %v %q", forums, residual)
	}
}
