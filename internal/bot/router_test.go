package bot

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"

	"restockbot/internal/transport"
	"restockbot/pkg/logx"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in        string
		wantName  string
		wantArgs  []string
		wantFlags map[string]string
		wantOK    bool
	}{
		{in: "!status", wantName: "status", wantFlags: map[string]string{}, wantOK: true},
		{in: "/status high", wantName: "status", wantArgs: []string{"high"}, wantFlags: map[string]string{}, wantOK: true},
		{in: "  !add 6540134 90503 Booster Box priority=top  ", wantName: "add",
			wantArgs: []string{"6540134", "90503", "Booster", "Box"}, wantFlags: map[string]string{"priority": "top"}, wantOK: true},
		{in: "!list@restock_bot top", wantName: "list", wantArgs: []string{"top"}, wantFlags: map[string]string{}, wantOK: true},
		{in: "!ADD 1 2", wantName: "add", wantArgs: []string{"1", "2"}, wantFlags: map[string]string{}, wantOK: true},
		{in: "hello there", wantOK: false},
		{in: "!", wantOK: false},
		{in: "", wantOK: false},
	}
	for _, c := range cases {
		name, args, flags, ok := parseCommand(c.in)
		if ok != c.wantOK {
			t.Fatalf("parseCommand(%q) ok = %v, want %v", c.in, ok, c.wantOK)
		}
		if !ok {
			continue
		}
		if name != c.wantName {
			t.Fatalf("parseCommand(%q) name = %q, want %q", c.in, name, c.wantName)
		}
		if !reflect.DeepEqual(args, c.wantArgs) {
			t.Fatalf("parseCommand(%q) args = %v, want %v", c.in, args, c.wantArgs)
		}
		if !reflect.DeepEqual(flags, c.wantFlags) {
			t.Fatalf("parseCommand(%q) flags = %v, want %v", c.in, flags, c.wantFlags)
		}
	}
}

type replyCapture struct {
	mu      sync.Mutex
	replies []string
	chats   []int64
}

func (f *replyCapture) Start(ctx context.Context, out chan<- transport.Message) error { return nil }
func (f *replyCapture) Stop(ctx context.Context) error                                { return nil }

func (f *replyCapture) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, text)
	f.chats = append(f.chats, to.ChatID)
	return nil
}

func (f *replyCapture) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return ""
	}
	return f.replies[len(f.replies)-1]
}

const testOperator int64 = 42

func newTestRouter(t *testing.T) (*Router, *replyCapture) {
	t.Helper()
	ad := &replyCapture{}
	return NewRouter(ad, testOperator, logx.Nop()), ad
}

func TestOperatorOnlyCommandDenied(t *testing.T) {
	r, ad := newTestRouter(t)
	called := false
	r.Register(&Command{
		Name:         "remove",
		Usage:        "!remove",
		OperatorOnly: true,
		Handle: func(ctx context.Context, req *Request) error {
			called = true
			return nil
		},
	})

	r.dispatch(context.Background(), transport.Message{ChatID: 7, FromID: 99, Text: "!remove 1 2"})
	if called {
		t.Fatalf("handler ran for non-operator")
	}
	if !strings.Contains(ad.last(), "operator") {
		t.Fatalf("expected denial reply, got %q", ad.last())
	}

	r.dispatch(context.Background(), transport.Message{ChatID: 7, FromID: testOperator, Text: "!remove 1 2"})
	if !called {
		t.Fatalf("handler did not run for operator")
	}
}

func TestHandlerErrorBecomesReply(t *testing.T) {
	r, ad := newTestRouter(t)
	r.Register(&Command{
		Name:  "status",
		Usage: "!status",
		Handle: func(ctx context.Context, req *Request) error {
			return context.DeadlineExceeded
		},
	})

	r.dispatch(context.Background(), transport.Message{ChatID: 7, FromID: 1, Text: "!status"})
	if ad.last() == "" {
		t.Fatalf("expected error reply")
	}
}

func TestUnknownCommandHintOnlyInDirectChat(t *testing.T) {
	r, ad := newTestRouter(t)

	r.dispatch(context.Background(), transport.Message{ChatID: 7, FromID: 1, Text: "!bogus", IsGroup: true})
	if ad.last() != "" {
		t.Fatalf("group chat should not get unknown-command hints")
	}

	r.dispatch(context.Background(), transport.Message{ChatID: 7, FromID: 1, Text: "!bogus"})
	if !strings.Contains(ad.last(), "!commands") {
		t.Fatalf("expected hint, got %q", ad.last())
	}
}

func TestAliasRouting(t *testing.T) {
	r, _ := newTestRouter(t)
	var got string
	r.Register(&Command{
		Name:  "listd",
		Usage: "!listd",
		Handle: func(ctx context.Context, req *Request) error {
			got = "listd"
			return nil
		},
	})
	r.Alias("listdetailed", "listd")

	r.dispatch(context.Background(), transport.Message{ChatID: 7, FromID: 1, Text: "!listdetailed"})
	if got != "listd" {
		t.Fatalf("alias did not route")
	}
}

func TestSplitMessage(t *testing.T) {
	lines := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		lines = append(lines, strings.Repeat("x", 50))
	}
	text := strings.Join(lines, "\n")

	chunks := splitMessage(text, 1000)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		if len(c) > 1000 {
			t.Fatalf("chunk exceeds limit: %d", len(c))
		}
		total += strings.Count(c, "x")
	}
	if total != 200*50 {
		t.Fatalf("content lost in split: %d x's", total)
	}

	if got := splitMessage("short", 1000); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short message mangled: %v", got)
	}
}
