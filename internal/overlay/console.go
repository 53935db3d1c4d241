// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package overlay

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("embermush/overlay")

// ConsoleRegistry owns the mapping from console command name to override
// chain and performs all host table patching. It is safe for concurrent use.
type ConsoleRegistry struct {
	table   HostTable
	tracker Tracker // optional, can be nil
	chains  map[string]*overrideChain
	mu      sync.Mutex
}

// NewConsoleRegistry creates a console command registry over the given host
// table. Returns an error if table is nil.
func NewConsoleRegistry(table HostTable, tracker Tracker) (*ConsoleRegistry, error) {
	if table == nil {
		return nil, ErrNilTable
	}
	return &ConsoleRegistry{
		table:   table,
		tracker: tracker,
		chains:  make(map[string]*overrideChain),
	}, nil
}

// Register adds a handler for a namespaced console command.
//
// If the name already carries an override chain wrapping a pre-existing
// host command, the handler is appended to the chain. If it carries a
// purely synthetic chain, the old chain is replaced outright with a
// collision warning. Otherwise a fresh chain is created: a pre-existing
// invocable host entry has its handler captured and swapped for the
// composed dispatcher; a missing entry is inserted; a host variable is
// never shadowed (logged, registration dropped).
//
// ext may be nil for handlers not owned by any extension; such bindings
// survive every teardown.
func (r *ConsoleRegistry) Register(name string, ext Extension, handler ConsoleHandler) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName()
	}
	if handler == nil {
		return ErrNilHandler(name)
	}
	parent, rest, ok := strings.Cut(name, ".")
	if !ok || parent == "" || rest == "" {
		return ErrMalformedName(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if chain, exists := r.chains[name]; exists {
		if chain.original != nil {
			// Wrapped host command: extensions coexist on the chain.
			chain.bindings = append(chain.bindings, binding{ext: ext, handler: handler})
			recordRegistration(NamespaceConsole, ResultChained)
			return nil
		}
		// Synthetic command: last registrant replaces the whole chain.
		slog.Warn("console command conflict: replacing synthetic command",
			"command", name,
			"previous_owner", chain.firstOwner(),
			"new_owner", ownerName(ext))
		r.table.Remove(name)
		delete(r.chains, name)
		recordRegistration(NamespaceConsole, ResultReplaced)
	}

	chain := &overrideChain{
		name:     name,
		bindings: []binding{{ext: ext, handler: handler}},
	}

	if entry, found := r.table.Lookup(name); found {
		if entry.Kind == KindVariable {
			slog.Error("cannot register console command over host variable",
				"command", name,
				"extension", ownerName(ext))
			recordRegistration(NamespaceConsole, ResultRejected)
			return nil
		}
		chain.original = entry.Handler
		entry.Handler = r.composed(chain)
	} else {
		r.table.Insert(&HostEntry{
			Name:    name,
			Parent:  parent,
			Kind:    KindCommand,
			Handler: r.composed(chain),
		})
	}

	r.chains[name] = chain
	recordRegistration(NamespaceConsole, ResultRegistered)
	return nil
}

// Teardown removes every binding owned by the extension. Chains left empty
// are unwound: synthetic entries are removed from the host table, wrapped
// entries have the captured original handler restored in place.
func (r *ConsoleRegistry) Teardown(ext Extension) {
	if ext == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, chain := range r.chains {
		if !chain.removeOwned(ext.ID()) {
			continue
		}
		if len(chain.bindings) > 0 {
			continue
		}
		if chain.original == nil {
			r.table.Remove(name)
		} else if entry, found := r.table.Lookup(name); found {
			entry.Handler = chain.original
		}
		delete(r.chains, name)
	}
}

// Chain reports whether an override chain exists for name and, if so, the
// number of bindings and whether it wraps a pre-existing host command.
func (r *ConsoleRegistry) Chain(name string) (bindings int, wrapped, exists bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chain, ok := r.chains[name]
	if !ok {
		return 0, false, false
	}
	return len(chain.bindings), chain.original != nil, true
}

// composed builds the dispatcher installed into the host table for a chain:
// bindings are tried oldest-first, the first to report handled wins, and
// only if every binding declines does control fall through to the original
// host handler.
func (r *ConsoleRegistry) composed(chain *overrideChain) HostHandler {
	return func(ctx context.Context, inv *Invocation) (err error) {
		ctx, span := tracer.Start(ctx, "console.dispatch")
		span.SetAttributes(attribute.String("command.name", chain.name))
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()

		r.mu.Lock()
		bindings := slices.Clone(chain.bindings)
		original := chain.original
		r.mu.Unlock()

		for _, b := range bindings {
			if r.invoke(ctx, b, inv) {
				recordDispatch(NamespaceConsole, StatusHandled)
				return nil
			}
		}
		if original != nil {
			recordDispatch(NamespaceConsole, StatusFallthrough)
			err = original(ctx, inv)
			return err
		}
		recordDispatch(NamespaceConsole, StatusUnhandled)
		return nil
	}
}

// invoke runs one binding with tracking around it. A panicking handler is
// logged and treated as not handled so the rest of the chain still runs.
func (r *ConsoleRegistry) invoke(ctx context.Context, b binding, inv *Invocation) (handled bool) {
	if r.tracker != nil && b.ext != nil {
		r.tracker.Enter(b.ext)
		defer r.tracker.Exit(b.ext)
	}
	start := time.Now()
	defer func() {
		observeHandlerDuration(NamespaceConsole, time.Since(start))
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "console handler panicked",
				"command", inv.Name,
				"extension", ownerName(b.ext),
				"panic", p)
			handled = false
		}
	}()
	return b.handler(ctx, inv)
}

func ownerName(ext Extension) string {
	if ext == nil {
		return "host"
	}
	return ext.Name()
}
