// Package screentest builds a started engine over the embedded course for
// screen tests.
package screentest

import (
	"context"
	"io"
	"log"
	"reflect"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/engine"
	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/screen"
	"github.com/iamsmart/masterclass/internal/tutor"
)

// UserID is the learner every test environment starts.
const UserID = "asha"

// MemStore is an in-memory engine.ProfileStore.
type MemStore struct {
	mu   sync.Mutex
	docs map[string]profile.LearnerProfile
}

func NewMemStore() *MemStore {
	return &MemStore{docs: map[string]profile.LearnerProfile{}}
}

func (m *MemStore) Load(_ context.Context, userID string) (profile.LearnerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.docs[userID]
	if !ok {
		return profile.LearnerProfile{}, profile.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *MemStore) Save(_ context.Context, userID string, p profile.LearnerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[userID] = p.Clone()
	return nil
}

// Put seeds a profile before the engine starts.
func (m *MemStore) Put(p profile.LearnerProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[p.UserID] = p.Clone()
}

// noShuffle keeps options in authored order so tests can answer by index.
type noShuffle struct{}

func (noShuffle) Shuffle(int, func(i, j int)) {}

// Env is a started test environment.
type Env struct {
	screen.Env
	Events *engine.Recorder
	Store  *MemStore
}

// New starts UserID on the embedded course. seed, when non-nil, is stored
// first. A nil tutor disables hints.
func New(t testing.TB, seed *profile.LearnerProfile, tu *tutor.Tutor) Env {
	t.Helper()
	catalog, err := curriculum.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	ms := NewMemStore()
	if seed != nil {
		ms.Put(*seed)
	}
	rec := &engine.Recorder{}
	e, err := engine.New(catalog, catalog, ms, rec,
		engine.WithShuffler(noShuffle{}),
		engine.WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	if err := e.Start(context.Background(), UserID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(e.Flush)
	return Env{
		Env:    screen.Env{Engine: e, Content: catalog, Tutor: tu},
		Events: rec,
		Store:  ms,
	}
}

// Key is a printable key press.
func Key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// Special is a non-printable key press such as tea.KeyEnter.
func Special(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// Type presses each rune of s.
func Type(s screen.Screen, text string) screen.Screen {
	for _, r := range text {
		s, _ = s.Update(Key(r))
	}
	return s
}

var cmdType = reflect.TypeOf(tea.Cmd(nil))

// Collect runs cmd and returns every message it produces, flattening
// batches and sequences. Commands that sleep (ticks) must not be passed.
func Collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	v := reflect.ValueOf(msg)
	if v.Kind() == reflect.Slice && v.Type().Elem() == cmdType {
		var out []tea.Msg
		for i := 0; i < v.Len(); i++ {
			c, _ := v.Index(i).Interface().(tea.Cmd)
			out = append(out, Collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}
