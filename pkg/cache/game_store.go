package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"quizmas-service/internal/store"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const maxTxRetries = 10

var errUnchanged = errors.New("document unchanged")

// GameStore implements store.Store on Redis. The first two path segments name
// a document (games/{pin} -> key "games:{pin}") kept as one JSON value; deeper
// segments address fields inside it. Every committed change bumps a revision
// counter and publishes the whole document on "<key>:changes" inside the same
// MULTI, so subscribers see changes in commit order.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameStore returns a store whose documents expire ttl after their last
// write. A zero ttl keeps documents forever.
func NewGameStore(c *RedisClient, ttl time.Duration) *GameStore {
	return &GameStore{client: c.GetClient(), ttl: ttl}
}

type changeMessage struct {
	Rev    int64           `json:"rev"`
	Exists bool            `json:"exists"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type docPath struct {
	key  string
	rest []string
}

func splitDocPath(path string) (docPath, error) {
	segs, err := store.SplitPath(path)
	if err != nil {
		return docPath{}, err
	}
	if len(segs) < 2 {
		return docPath{}, fmt.Errorf("%w: %q must address a document", store.ErrInvalidPath, path)
	}
	return docPath{key: segs[0] + ":" + segs[1], rest: segs[2:]}, nil
}

func revKey(key string) string     { return key + ":rev" }
func channelKey(key string) string { return key + ":changes" }

func (s *GameStore) Write(ctx context.Context, path string, value any) error {
	p, err := splitDocPath(path)
	if err != nil {
		return err
	}
	tree, err := store.ToTree(value)
	if err != nil {
		return err
	}
	return s.mutate(ctx, []string{p.key}, func(docs map[string]any) error {
		docs[p.key] = store.SetPath(docs[p.key], p.rest, tree)
		return nil
	})
}

func (s *GameStore) Read(ctx context.Context, path string) (json.RawMessage, bool, error) {
	p, err := splitDocPath(path)
	if err != nil {
		return nil, false, err
	}
	doc, err := s.load(ctx, s.client, p.key)
	if err != nil {
		return nil, false, err
	}
	v, ok := store.GetPath(doc, p.rest)
	if !ok {
		return nil, false, nil
	}
	data, err := store.Encode(v)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *GameStore) UpdateFields(ctx context.Context, fields map[string]any) error {
	type update struct {
		p    docPath
		tree any
	}
	updates := make([]update, 0, len(fields))
	keySet := make(map[string]struct{})
	for path, value := range fields {
		p, err := splitDocPath(path)
		if err != nil {
			return err
		}
		tree, err := store.ToTree(value)
		if err != nil {
			return err
		}
		updates = append(updates, update{p: p, tree: tree})
		keySet[p.key] = struct{}{}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}

	return s.mutate(ctx, keys, func(docs map[string]any) error {
		for _, u := range updates {
			docs[u.p.key] = store.SetPath(docs[u.p.key], u.p.rest, u.tree)
		}
		return nil
	})
}

func (s *GameStore) WriteIfAbsent(ctx context.Context, path string, value any) (bool, error) {
	p, err := splitDocPath(path)
	if err != nil {
		return false, err
	}
	tree, err := store.ToTree(value)
	if err != nil {
		return false, err
	}

	err = s.mutate(ctx, []string{p.key}, func(docs map[string]any) error {
		if _, exists := store.GetPath(docs[p.key], p.rest); exists {
			return errUnchanged
		}
		docs[p.key] = store.SetPath(docs[p.key], p.rest, tree)
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}
	return err == nil, err
}

func (s *GameStore) Delete(ctx context.Context, path string) error {
	p, err := splitDocPath(path)
	if err != nil {
		return err
	}
	return s.mutate(ctx, []string{p.key}, func(docs map[string]any) error {
		docs[p.key] = store.DeletePath(docs[p.key], p.rest)
		return nil
	})
}

// mutate runs fn against the current documents under WATCH and commits the
// result, retrying when another client committed first.
func (s *GameStore) mutate(ctx context.Context, keys []string, fn func(docs map[string]any) error) error {
	watch := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		watch = append(watch, k, revKey(k))
	}

	txf := func(tx *redis.Tx) error {
		docs := make(map[string]any, len(keys))
		revs := make(map[string]int64, len(keys))
		for _, k := range keys {
			doc, err := s.load(ctx, tx, k)
			if err != nil {
				return err
			}
			docs[k] = doc
			rev, err := tx.Get(ctx, revKey(k)).Int64()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			revs[k] = rev
		}

		if err := fn(docs); err != nil {
			return err
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, k := range keys {
				msg := changeMessage{Rev: revs[k] + 1}
				if doc := docs[k]; doc != nil {
					data, err := store.Encode(doc)
					if err != nil {
						return err
					}
					msg.Exists = true
					msg.Data = data
					pipe.Set(ctx, k, []byte(data), s.ttl)
				} else {
					pipe.Del(ctx, k)
				}
				pipe.Set(ctx, revKey(k), msg.Rev, s.ttl)

				body, err := json.Marshal(msg)
				if err != nil {
					return err
				}
				pipe.Publish(ctx, channelKey(k), body)
			}
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := s.client.Watch(ctx, txf, watch...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis transaction on %s: %w", strings.Join(keys, ","), redis.TxFailedErr)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *GameStore) load(ctx context.Context, c getter, key string) (any, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return doc, nil
}

func (s *GameStore) Subscribe(ctx context.Context, path string, handler store.Handler) (store.Subscription, error) {
	p, err := splitDocPath(path)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(context.Background())
	pubsub := s.client.Subscribe(subCtx, channelKey(p.key))
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", p.key, err)
	}

	var docCmd, revCmd *redis.StringCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		docCmd = pipe.Get(ctx, p.key)
		revCmd = pipe.Get(ctx, revKey(p.key))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		cancel()
		pubsub.Close()
		return nil, fmt.Errorf("read %s: %w", p.key, err)
	}

	initial := changeMessage{}
	if data, err := docCmd.Bytes(); err == nil {
		initial.Exists = true
		initial.Data = data
	}
	if rev, err := revCmd.Int64(); err == nil {
		initial.Rev = rev
	}

	sub := &redisSubscription{cancel: cancel, pubsub: pubsub}
	go sub.run(subCtx, path, p.rest, initial, handler)
	return sub, nil
}

type redisSubscription struct {
	cancel context.CancelFunc
	pubsub *redis.PubSub
	once   sync.Once
}

func (r *redisSubscription) run(ctx context.Context, path string, rest []string, initial changeMessage, handler store.Handler) {
	defer r.pubsub.Close()

	lastRev := initial.Rev
	handler(snapshotOf(path, rest, initial))

	ch := r.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var change changeMessage
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				log.WithField("channel", msg.Channel).Warnf("Dropping undecodable change message: %v", err)
				continue
			}
			if change.Rev <= lastRev {
				continue
			}
			lastRev = change.Rev
			handler(snapshotOf(path, rest, change))
		}
	}
}

func (r *redisSubscription) Unsubscribe() {
	r.once.Do(r.cancel)
}

func snapshotOf(path string, rest []string, change changeMessage) store.Snapshot {
	snap := store.Snapshot{Path: path}
	if !change.Exists {
		return snap
	}
	if len(rest) == 0 {
		snap.Exists = true
		snap.Data = change.Data
		return snap
	}
	var doc any
	if err := json.Unmarshal(change.Data, &doc); err != nil {
		return snap
	}
	if v, ok := store.GetPath(doc, rest); ok {
		if data, err := store.Encode(v); err == nil {
			snap.Exists = true
			snap.Data = data
		}
	}
	return snap
}
