package redisstore

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/jigneshk/Ops/lib/clock"
	"github.com/jigneshk/Ops/lib/store"
)

const engineName = "redis"

const defaultOpTimeout = 5 * time.Second

// createScript creates a node at a fixed path unless it already exists.
// KEYS[1] = node hash, KEYS[2] = children set of the parent.
// ARGV[1] = child name, ARGV[2] = ctime millis, ARGV[3] = payload.
var createScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
    return 0
end
redis.call("HSET", KEYS[1], "ctime", ARGV[2], "data", ARGV[3])
redis.call("SADD", KEYS[2], ARGV[1])
return 1
`)

// createSeqScript assigns the next per-parent sequence number and creates
// the suffixed node in the same script, so no two creates can observe the
// same sequence. KEYS[1] = sequence counter, KEYS[2] = children set.
// ARGV[1] = name prefix, ARGV[2] = node key base (node hash key without the
// suffix), ARGV[3] = ctime millis, ARGV[4] = payload, ARGV[5] = suffix width.
var createSeqScript = redis.NewScript(`
local width = tonumber(ARGV[5])
local seq = redis.call("INCR", KEYS[1])
local suffix = tostring(seq)
if #suffix > width then
    return redis.error_reply("sequence overflow")
end
suffix = string.rep("0", width - #suffix) .. suffix
redis.call("HSET", ARGV[2] .. suffix, "ctime", ARGV[3], "data", ARGV[4])
redis.call("SADD", KEYS[2], ARGV[1] .. suffix)
return ARGV[1] .. suffix
`)

// deleteScript removes a node hash together with its entry in the parent's
// children set. KEYS[1] = node hash, KEYS[2] = children set.
// ARGV[1] = child name.
var deleteScript = redis.NewScript(`
redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
return 1
`)

// redisStore implements store.IStore on a Redis backend.
type redisStore struct {
	client  *redis.Client
	clock   clock.Clock
	timeout time.Duration
}

// Option configures a redis-backed store.
type Option func(*options)

type options struct {
	timeout time.Duration
}

// WithTimeout sets the operation timeout for Redis calls.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// New returns a redis-backed store using the provided client. If clk is nil
// the real clock is used; creation timestamps are stamped from it, so the
// usual synchronized-clock assumption of TTL-based reclamation applies.
func New(client *redis.Client, clk clock.Clock, opts ...Option) store.IStore {
	o := options{timeout: defaultOpTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &redisStore{client: client, clock: clk, timeout: o.timeout}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *redisStore) Create(path string, data []byte, sequential bool) (string, error) {
	store.CountOp(engineName, "create")
	ctx, cancel := s.opContext()
	defer cancel()

	parent, name := store.SplitPath(path)
	ctime := s.clock.Now().UnixMilli()

	if !sequential {
		res, err := createScript.Run(ctx, s.client,
			[]string{nodeKey(path), childrenKey(parent)},
			name, ctime, string(data),
		).Int64()
		if err != nil {
			store.CountError(engineName, "create")
			return "", mapError("create", err)
		}
		if res == 0 {
			store.CountError(engineName, "create")
			return "", store.NewError(store.RetCNodeExists, fmt.Sprintf("node %s already exists", path))
		}
		return path, nil
	}

	full, err := createSeqScript.Run(ctx, s.client,
		[]string{seqKey(parent), childrenKey(parent)},
		name, nodeKey(path), ctime, string(data), store.SequenceWidth,
	).Text()
	if err != nil {
		store.CountError(engineName, "create")
		if strings.Contains(err.Error(), "sequence overflow") {
			return "", store.NewError(store.RetCSequenceOverflow, fmt.Sprintf("sequence under %s does not fit in %d digits", parent, store.SequenceWidth))
		}
		return "", mapError("create", err)
	}
	return store.JoinPath(parent, full), nil
}

func (s *redisStore) Children(path string) ([]string, error) {
	store.CountOp(engineName, "children")
	ctx, cancel := s.opContext()
	defer cancel()

	names, err := s.client.SMembers(ctx, childrenKey(path)).Result()
	if err != nil {
		store.CountError(engineName, "children")
		return nil, mapError("children", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *redisStore) Stat(path string) (store.NodeStat, bool, error) {
	store.CountOp(engineName, "stat")
	ctx, cancel := s.opContext()
	defer cancel()

	ctime, err := s.client.HGet(ctx, nodeKey(path), "ctime").Int64()
	if err == redis.Nil {
		return store.NodeStat{}, false, nil
	}
	if err != nil {
		store.CountError(engineName, "stat")
		return store.NodeStat{}, false, mapError("stat", err)
	}
	return store.NodeStat{CTimeMillis: ctime}, true, nil
}

func (s *redisStore) Delete(path string) error {
	store.CountOp(engineName, "delete")
	ctx, cancel := s.opContext()
	defer cancel()

	parent, name := store.SplitPath(path)
	_, err := deleteScript.Run(ctx, s.client,
		[]string{nodeKey(path), childrenKey(parent)},
		name,
	).Result()
	if err != nil && err != redis.Nil {
		store.CountError(engineName, "delete")
		return mapError("delete", err)
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func (s *redisStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func nodeKey(path string) string {
	return "node:" + path
}

func childrenKey(parent string) string {
	return "children:" + parent
}

func seqKey(parent string) string {
	return "seq:" + parent
}

// mapError translates redis client failures into store error codes. Timeouts
// and transport failures become RetCConnection; everything else is internal.
func mapError(op string, err error) error {
	var netErr net.Error
	switch {
	case stdErrors.Is(err, context.DeadlineExceeded),
		stdErrors.Is(err, redis.ErrClosed),
		stdErrors.As(err, &netErr):
		return store.NewError(store.RetCConnection, fmt.Sprintf("%s: %v", op, err))
	default:
		return store.NewError(store.RetCInternalError, fmt.Sprintf("%s: %v", op, err))
	}
}
