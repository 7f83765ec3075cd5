package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store. It backs tests and single-instance
// deployments started with GAME_STORE=memory.
type MemoryStore struct {
	mu     sync.Mutex
	root   any
	subs   map[int]*memorySubscription
	nextID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[int]*memorySubscription)}
}

func (s *MemoryStore) Write(ctx context.Context, path string, value any) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}
	tree, err := ToTree(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = SetPath(s.root, segs, tree)
	s.notifyLocked([][]string{segs})
	return nil
}

func (s *MemoryStore) Read(ctx context.Context, path string) (json.RawMessage, bool, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := GetPath(s.root, segs)
	if !ok {
		return nil, false, nil
	}
	data, err := Encode(v)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *MemoryStore) UpdateFields(ctx context.Context, fields map[string]any) error {
	type update struct {
		segs []string
		tree any
	}
	updates := make([]update, 0, len(fields))
	for path, value := range fields {
		segs, err := SplitPath(path)
		if err != nil {
			return err
		}
		tree, err := ToTree(value)
		if err != nil {
			return err
		}
		updates = append(updates, update{segs: segs, tree: tree})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	changed := make([][]string, 0, len(updates))
	for _, u := range updates {
		s.root = SetPath(s.root, u.segs, u.tree)
		changed = append(changed, u.segs)
	}
	s.notifyLocked(changed)
	return nil
}

func (s *MemoryStore) WriteIfAbsent(ctx context.Context, path string, value any) (bool, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return false, err
	}
	tree, err := ToTree(value)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := GetPath(s.root, segs); exists {
		return false, nil
	}
	s.root = SetPath(s.root, segs, tree)
	s.notifyLocked([][]string{segs})
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	segs, err := SplitPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = DeletePath(s.root, segs)
	s.notifyLocked([][]string{segs})
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, path string, handler Handler) (Subscription, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	sub := &memorySubscription{
		store:   s,
		path:    segs,
		handler: handler,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	sub.id = s.nextID
	s.nextID++
	s.subs[sub.id] = sub
	sub.push(s.snapshotLocked(segs))
	s.mu.Unlock()

	go sub.run()
	return sub, nil
}

func (s *MemoryStore) snapshotLocked(segs []string) Snapshot {
	snap := Snapshot{Path: strings.Join(segs, "/")}
	if v, ok := GetPath(s.root, segs); ok {
		if data, err := Encode(v); err == nil {
			snap.Exists = true
			snap.Data = data
		}
	}
	return snap
}

func (s *MemoryStore) notifyLocked(changed [][]string) {
	for _, sub := range s.subs {
		for _, segs := range changed {
			if overlaps(segs, sub.path) {
				sub.push(s.snapshotLocked(sub.path))
				break
			}
		}
	}
}

func (s *MemoryStore) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// memorySubscription queues snapshots without bound so that writers never
// block on slow handlers and handlers may call back into the store.
type memorySubscription struct {
	store   *MemoryStore
	id      int
	path    []string
	handler Handler

	mu    sync.Mutex
	queue []Snapshot
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func (m *memorySubscription) push(snap Snapshot) {
	m.mu.Lock()
	m.queue = append(m.queue, snap)
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *memorySubscription) run() {
	for {
		select {
		case <-m.done:
			return
		case <-m.wake:
		}
		for {
			m.mu.Lock()
			if len(m.queue) == 0 {
				m.mu.Unlock()
				break
			}
			snap := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()

			select {
			case <-m.done:
				return
			default:
			}
			m.handler(snap)
		}
	}
}

func (m *memorySubscription) Unsubscribe() {
	m.once.Do(func() {
		m.store.remove(m.id)
		close(m.done)
	})
}
