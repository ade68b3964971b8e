package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"restockbot/internal/catalog"
	"restockbot/internal/history"
	"restockbot/internal/monitor"
)

// Deps are the services command handlers operate on.
type Deps struct {
	Store   *catalog.Store
	Monitor *monitor.Monitor
	History *history.Store
}

// RegisterCommands wires the full command table into the router.
func RegisterCommands(r *Router, deps Deps) {
	r.Register(
		&Command{
			Name:        "status",
			Description: "Check stock now (optional: top, high, medium, low)",
			Usage:       "!status [priority]",
			Handle:      deps.handleStatus,
		},
		&Command{
			Name:        "list",
			Description: "List monitored products",
			Usage:       "!list [priority]",
			Handle:      deps.handleList,
		},
		&Command{
			Name:        "listd",
			Description: "Detailed list with set/category info",
			Usage:       "!listd [priority]",
			Handle:      deps.handleListDetailed,
		},
		&Command{
			Name:         "add",
			Description:  "Add a product to monitor",
			Usage:        "!add <sku> <zipcode> [name...] [priority=high] [category=...] [set=...]",
			OperatorOnly: true,
			Handle:       deps.handleAdd,
		},
		&Command{
			Name:         "remove",
			Description:  "Remove a product from monitoring",
			Usage:        "!remove <sku> <zipcode>",
			OperatorOnly: true,
			Handle:       deps.handleRemove,
		},
		&Command{
			Name:        "debug",
			Description: "Show the raw availability for a product",
			Usage:       "!debug <sku> <zipcode>",
			Handle:      deps.handleDebug,
		},
		&Command{
			Name:        "history",
			Description: "Show recently sent alerts",
			Usage:       "!history [count]",
			Handle:      deps.handleHistory,
		},
	)
	r.Alias("listdetailed", "listd")

	// help is assembled last so it sees the full table
	r.Register(&Command{
		Name:        "commands",
		Description: "Show this help message",
		Usage:       "!commands",
		Handle: func(ctx context.Context, req *Request) error {
			var b strings.Builder
			b.WriteString("Bot Commands\n")
			for _, c := range r.Commands() {
				suffix := ""
				if c.OperatorOnly {
					suffix = " (operator only)"
				}
				fmt.Fprintf(&b, "%s — %s%s\n", c.Usage, c.Description, suffix)
			}
			req.Reply(ctx, strings.TrimRight(b.String(), "\n"))
			return nil
		},
	})
	r.Alias("help", "commands")
}

// priorityFilter reads an optional priority from the first positional arg.
func priorityFilter(args []string) (catalog.Priority, error) {
	if len(args) == 0 {
		return "", nil
	}
	return catalog.ParsePriority(args[0])
}

func filterProducts(products []catalog.Product, filter catalog.Priority) []catalog.Product {
	if filter == "" {
		return products
	}
	var out []catalog.Product
	for _, p := range products {
		if p.EffectivePriority() == filter {
			out = append(out, p)
		}
	}
	return out
}

func (d Deps) handleStatus(ctx context.Context, req *Request) error {
	filter, err := priorityFilter(req.Args)
	if err != nil {
		return err
	}

	products := filterProducts(d.Store.Snapshot(), filter)
	if len(products) == 0 {
		if filter != "" {
			return fmt.Errorf("no %s priority products are being monitored", filter)
		}
		return errors.New("no products are currently being monitored")
	}

	req.Reply(ctx, fmt.Sprintf("Checking %d products...", len(products)))
	results := d.Monitor.CheckProducts(ctx, products)
	req.Reply(ctx, formatStatus(results))
	return nil
}

func (d Deps) handleList(ctx context.Context, req *Request) error {
	filter, err := priorityFilter(req.Args)
	if err != nil {
		return err
	}
	req.Reply(ctx, formatList(filterProducts(d.Store.Snapshot(), filter), filter))
	return nil
}

func (d Deps) handleListDetailed(ctx context.Context, req *Request) error {
	filter, err := priorityFilter(req.Args)
	if err != nil {
		return err
	}
	req.Reply(ctx, formatListDetailed(filterProducts(d.Store.Snapshot(), filter), filter))
	return nil
}

func (d Deps) handleAdd(ctx context.Context, req *Request) error {
	if len(req.Args) < 2 {
		return errors.New("usage: !add <sku> <zipcode> [name...] [priority=high] [category=...] [set=...]")
	}

	p := catalog.Product{
		SKU:     req.Args[0],
		ZipCode: req.Args[1],
		Name:    strings.Join(req.Args[2:], " "),
	}
	for _, k := range sortedFlagKeys(req.Flags) {
		v := req.Flags[k]
		switch k {
		case "priority":
			prio, err := catalog.ParsePriority(v)
			if err != nil {
				return err
			}
			p.Priority = prio
		case "category":
			p.Category = v
		case "set":
			p.Set = v
		default:
			return fmt.Errorf("unknown option %q (use priority=, category= or set=)", k)
		}
	}

	if err := d.Store.Add(p); err != nil {
		if errors.Is(err, catalog.ErrDuplicate) {
			return fmt.Errorf("product %s at %s is already being monitored", p.SKU, p.ZipCode)
		}
		return err
	}
	req.Reply(ctx, fmt.Sprintf("Added %s (SKU: %s) at %s to monitoring list (%s priority).",
		p.DisplayName(), p.SKU, p.ZipCode, p.EffectivePriority()))
	return nil
}

func (d Deps) handleRemove(ctx context.Context, req *Request) error {
	if len(req.Args) != 2 {
		return errors.New("usage: !remove <sku> <zipcode>")
	}
	sku, zip := req.Args[0], req.Args[1]

	removed, err := d.Store.Remove(sku, zip)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("product %s at %s not found in monitoring list", sku, zip)
		}
		return err
	}
	d.Monitor.Forget(sku, zip)
	req.Reply(ctx, fmt.Sprintf("Removed %s from monitoring list.", removed.DisplayName()))
	return nil
}

func (d Deps) handleDebug(ctx context.Context, req *Request) error {
	if len(req.Args) != 2 {
		return errors.New("usage: !debug <sku> <zipcode>")
	}
	sku, zip := req.Args[0], req.Args[1]

	av, err := d.Monitor.CheckRaw(ctx, sku, zip)
	if err != nil {
		return fmt.Errorf("could not retrieve data for SKU %s at %s: %v", sku, zip, err)
	}
	req.Reply(ctx, formatDebug(av))
	return nil
}

func (d Deps) handleHistory(ctx context.Context, req *Request) error {
	n := 10
	if len(req.Args) > 0 {
		v, err := strconv.Atoi(req.Args[0])
		if err != nil || v <= 0 || v > 50 {
			return errors.New("usage: !history [count], count between 1 and 50")
		}
		n = v
	}
	if d.History == nil {
		return errors.New("alert history is not enabled")
	}
	entries, err := d.History.Recent(ctx, n)
	if err != nil {
		return fmt.Errorf("could not read alert history: %v", err)
	}
	req.Reply(ctx, formatHistory(entries))
	return nil
}
