// Package bot parses operator commands ("!status", "!add", ...) from inbound
// messages and routes them to handlers.
package bot

import (
	"context"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"restockbot/internal/transport"
	"restockbot/pkg/logx"
)

// commandTimeout bounds one command end to end, including the synchronous
// stock checks that status and debug trigger.
const commandTimeout = 2 * time.Minute

type HandlerFunc func(ctx context.Context, req *Request) error

type Command struct {
	Name         string
	Description  string
	Usage        string
	OperatorOnly bool
	Handle       HandlerFunc
}

// Request carries one parsed command invocation. Replies go back to the chat
// the command came from, never to the alert channel.
type Request struct {
	Msg   transport.Message
	Args  []string          // positional arguments
	Flags map[string]string // key=value tokens

	adapter transport.Adapter
	log     logx.Logger
}

// Reply sends text to the requesting chat. Reply failures are logged and
// swallowed: a command must never take the bot down.
func (r *Request) Reply(ctx context.Context, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		err := r.adapter.SendText(ctx, transport.ChatTarget{ChatID: r.Msg.ChatID}, chunk, &transport.SendOptions{DisablePreview: true})
		if err != nil {
			r.log.Warn("command reply failed", logx.Err(err), logx.Int64("chat", r.Msg.ChatID))
			return
		}
	}
}

type Router struct {
	log        logx.Logger
	adapter    transport.Adapter
	operatorID int64

	commands map[string]*Command
	order    []string
	aliases  map[string]string
}

func NewRouter(adapter transport.Adapter, operatorID int64, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{
		log:        log,
		adapter:    adapter,
		operatorID: operatorID,
		commands:   map[string]*Command{},
		aliases:    map[string]string{},
	}
}

func (r *Router) Register(cmds ...*Command) {
	for _, c := range cmds {
		name := strings.ToLower(c.Name)
		if _, dup := r.commands[name]; !dup {
			r.order = append(r.order, name)
		}
		r.commands[name] = c
	}
}

// Alias routes an extra name to an existing command (e.g. listdetailed -> listd).
func (r *Router) Alias(alias, target string) {
	r.aliases[strings.ToLower(alias)] = strings.ToLower(target)
}

// Commands returns registered commands in registration order.
func (r *Router) Commands() []*Command {
	out := make([]*Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}

// DispatchLoop consumes inbound messages until ctx is done. Commands run
// inline: Telegram delivery order is per-chat anyway, and the handlers that
// block (status, debug) serialize on the monitor lock regardless.
func (r *Router) DispatchLoop(ctx context.Context, in <-chan transport.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			r.dispatch(ctx, msg)
		}
	}
}

func (r *Router) dispatch(ctx context.Context, msg transport.Message) {
	name, args, flags, ok := parseCommand(msg.Text)
	if !ok {
		return
	}
	if target, isAlias := r.aliases[name]; isAlias {
		name = target
	}

	req := &Request{Msg: msg, Args: args, Flags: flags, adapter: r.adapter, log: r.log}

	cmd, known := r.commands[name]
	if !known {
		// Only hint in direct chats; in groups unknown !words are likely noise.
		if !msg.IsGroup {
			req.Reply(ctx, "Unknown command. Use !commands to see what's available.")
		}
		return
	}

	if cmd.OperatorOnly && msg.FromID != r.operatorID {
		r.log.Warn("command denied", logx.String("command", name), logx.Int64("from", msg.FromID))
		req.Reply(ctx, "Sorry, only the operator can run !"+name+".")
		return
	}

	cctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic in command handler",
				logx.String("command", name),
				logx.Any("panic", rec),
				logx.String("stack", string(debug.Stack())),
			)
			req.Reply(ctx, "Internal error while handling !"+name+".")
		}
	}()

	if err := cmd.Handle(cctx, req); err != nil {
		// Handler errors are user-facing, not fatal.
		r.log.Warn("command failed", logx.String("command", name), logx.Err(err), logx.Duration("took", time.Since(start)))
		req.Reply(ctx, err.Error())
		return
	}
	r.log.Debug("command handled", logx.String("command", name), logx.Duration("took", time.Since(start)))
}

// parseCommand splits "!cmd a b k=v" into name, positional args and flags.
// Accepts "!" and "/" prefixes and tolerates a "@botname" suffix on the
// command token (Telegram appends it in groups).
func parseCommand(text string) (name string, args []string, flags map[string]string, ok bool) {
	s := strings.TrimSpace(text)
	if len(s) < 2 || (s[0] != '!' && s[0] != '/') {
		return "", nil, nil, false
	}
	fields := strings.Fields(s[1:])
	if len(fields) == 0 {
		return "", nil, nil, false
	}

	name = strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", nil, nil, false
	}

	flags = map[string]string{}
	for _, f := range fields[1:] {
		if k, v, isFlag := strings.Cut(f, "="); isFlag && k != "" {
			flags[strings.ToLower(k)] = v
			continue
		}
		args = append(args, f)
	}
	return name, args, flags, true
}

// sortedFlagKeys helps tests and deterministic error messages.
func sortedFlagKeys(flags map[string]string) []string {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
