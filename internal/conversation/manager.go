// Package conversation drives the content workflow across user turns,
// pausing and resuming the graph whenever it asks the user a question.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kataras/golog"
	"github.com/smallnest/langgraphgo/graph"

	"github.com/postforge/postforge/internal/workflow"
)

// Reply is the outcome of a single user turn.
type Reply struct {
	Message       string
	Complete      bool
	AwaitingInput bool
}

// Manager runs conversations through the compiled workflow graph. Turns
// on the same conversation are serialized; different conversations run
// concurrently.
type Manager struct {
	runner *graph.StateRunnable[workflow.State]
	store  StateStore
	log    *golog.Logger

	mu    sync.Mutex
	locks map[string]*lockEntry
}

// lockEntry is a per-conversation mutex with a waiter count, so the map
// entry can be dropped exactly when the last turn holding or waiting on
// it finishes.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewManager compiles the workflow and wires it to the snapshot store.
func NewManager(wf *workflow.Workflow, store StateStore, log *golog.Logger) (*Manager, error) {
	runner, err := wf.Compile()
	if err != nil {
		return nil, fmt.Errorf("compiling workflow: %w", err)
	}
	if log == nil {
		log = golog.Default
	}
	return &Manager{
		runner: runner,
		store:  store,
		log:    log,
		locks:  make(map[string]*lockEntry),
	}, nil
}

func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	e, ok := m.locks[id]
	if !ok {
		e = &lockEntry{}
		m.locks[id] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	return e
}

func (m *Manager) release(id string, e *lockEntry) {
	e.mu.Unlock()

	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, id)
	}
	m.mu.Unlock()
}

// Turn feeds one user message into the conversation and runs the graph
// until it finishes or pauses for input. An unknown conversation id
// starts a fresh conversation.
func (m *Manager) Turn(ctx context.Context, id, text string) (Reply, error) {
	e := m.acquire(id)
	defer m.release(id, e)

	started := time.Now()

	snap, resuming, err := m.store.Load(ctx, id)
	if err != nil {
		return Reply{}, err
	}

	var cfg *graph.Config
	state := snap.State
	state.AddUser(text)
	if resuming {
		cfg = &graph.Config{ResumeFrom: snap.ResumeFrom}
	}

	final, err := m.runner.InvokeWithConfig(ctx, state, cfg)
	if err != nil {
		var gi *graph.GraphInterrupt
		if errors.As(err, &gi) {
			return m.pause(ctx, id, gi)
		}
		return Reply{}, fmt.Errorf("running conversation %s: %w", id, err)
	}

	// Terminal run: the conversation is over either way, drop its state.
	if err := m.store.Delete(ctx, id); err != nil {
		m.log.Warnf("evicting conversation %s: %v", id, err)
	}

	m.log.Infof("conversation %s completed in %s", id, time.Since(started).Round(time.Millisecond))

	msg, ok := final.LastMessage()
	if !ok || msg.Role != workflow.RoleAssistant {
		return Reply{}, fmt.Errorf("conversation %s ended without a reply", id)
	}
	return Reply{Message: msg.Content, Complete: true}, nil
}

func (m *Manager) pause(ctx context.Context, id string, gi *graph.GraphInterrupt) (Reply, error) {
	pause, ok := gi.InterruptValue.(workflow.Pause)
	if !ok {
		return Reply{}, fmt.Errorf("conversation %s: unexpected interrupt at node %s", id, gi.Node)
	}

	snap := Snapshot{
		State:      pause.State,
		ResumeFrom: gi.NextNodes,
		UpdatedAt:  time.Now(),
	}
	if err := m.store.Save(ctx, id, snap); err != nil {
		return Reply{}, err
	}

	m.log.Infof("conversation %s paused at %s", id, gi.Node)
	return Reply{Message: pause.Question, AwaitingInput: true}, nil
}
