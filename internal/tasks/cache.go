// Package tasks keeps the local copy of the logged-in user's tasks in step
// with the remote API.
//
// The cache only changes after the server confirms a request; it never
// applies speculative edits. Responses are applied in arrival order, so when
// two updates to the same task race the later response wins. There is no
// version check.
//
// Reset moves the cache to a new epoch. A response that started under an
// older epoch is discarded when it arrives, so a logout cannot be undone by
// a request that was still in flight.
package tasks

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"tasktrack/internal/logging"
	"tasktrack/internal/observe"
	"tasktrack/internal/service"
)

var (
	// ErrNoSession is returned when no user is logged in, or the cache
	// belongs to someone else.
	ErrNoSession = errors.New("no authenticated session")

	// ErrUnknownTask is returned by Update for an id that is not cached.
	ErrUnknownTask = errors.New("task not in cache")

	// ErrSuperseded is returned when the cache was reset while the request
	// was in flight. The response was discarded.
	ErrSuperseded = errors.New("task cache was reset while request was in flight")
)

// Session reports who is logged in.
type Session interface {
	UserID() (string, bool)
}

// Options configures a Cache.
type Options struct {
	Limits Limits
	Log    *zap.Logger
}

// Cache is the task cache.
type Cache struct {
	api     service.TaskService
	session Session
	limits  Limits
	log     *zap.Logger

	mu       sync.Mutex
	tasks    []service.Task
	owner    string
	hydrated bool
	epoch    uint64
	loading  *load

	view *observe.Value[[]service.Task]
}

// load is a hydration in progress. Concurrent Hydrate calls for the same
// user and epoch wait on it instead of fetching again.
type load struct {
	userID string
	epoch  uint64
	done   chan struct{}
	tasks  []service.Task
	err    error
}

// New creates an empty cache whose requests go to api on behalf of session.
func New(api service.TaskService, session Session, opts Options) *Cache {
	return &Cache{
		api:     api,
		session: session,
		limits:  opts.Limits,
		log:     logging.OrNop(opts.Log),
		view:    observe.New[[]service.Task](nil, slices.Clone[[]service.Task]),
	}
}

// Limits returns the field limits applied by Create and Update.
func (c *Cache) Limits() Limits {
	return c.limits
}

// currentUser returns the logged-in user if the cache may act for them.
// Must hold mu.
func (c *Cache) currentUser() (string, error) {
	userID, ok := c.session.UserID()
	if !ok {
		return "", ErrNoSession
	}
	if c.owner != "" && c.owner != userID {
		return "", ErrNoSession
	}
	return userID, nil
}

// publish pushes the current collection to subscribers. Must hold mu.
func (c *Cache) publish() {
	c.view.Set(slices.Clone(c.tasks))
}

// Hydrate loads the tasks of userID, who must be the logged-in user. The
// first call fetches and replaces the cache wholesale; later calls return
// the cached collection without a request until Reset.
func (c *Cache) Hydrate(ctx context.Context, userID string) ([]service.Task, error) {
	c.mu.Lock()
	current, ok := c.session.UserID()
	if !ok || current != userID {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	if c.hydrated && c.owner == userID {
		out := slices.Clone(c.tasks)
		c.mu.Unlock()
		return out, nil
	}
	if l := c.loading; l != nil && l.userID == userID && l.epoch == c.epoch {
		c.mu.Unlock()
		select {
		case <-l.done:
			return slices.Clone(l.tasks), l.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	l := &load{userID: userID, epoch: c.epoch, done: make(chan struct{})}
	c.loading = l
	c.mu.Unlock()

	fetched, err := c.api.ListTasks(ctx, userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(l.done)
	if c.loading == l {
		c.loading = nil
	}
	if err != nil {
		c.log.Debug("failed to load tasks", zap.String("user_id", userID), zap.Error(err))
		l.err = err
		return nil, err
	}
	if c.epoch != l.epoch {
		c.log.Debug("discarding stale task list", zap.String("user_id", userID))
		l.err = ErrSuperseded
		return nil, ErrSuperseded
	}

	c.tasks = dedupe(fetched)
	c.owner = userID
	c.hydrated = true
	c.publish()
	c.log.Debug("tasks loaded", zap.String("user_id", userID), zap.Int("count", len(c.tasks)))

	l.tasks = slices.Clone(c.tasks)
	return slices.Clone(c.tasks), nil
}

// dedupe drops later tasks whose id already appeared.
func dedupe(list []service.Task) []service.Task {
	seen := make(map[string]bool, len(list))
	out := make([]service.Task, 0, len(list))
	for _, t := range list {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

// Create validates fields, creates the task for the logged-in user and
// appends the server's copy to the end of the cache.
func (c *Cache) Create(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	fields, err := c.limits.Normalize(fields)
	if err != nil {
		return service.Task{}, err
	}

	c.mu.Lock()
	userID, err := c.currentUser()
	epoch := c.epoch
	c.mu.Unlock()
	if err != nil {
		return service.Task{}, err
	}

	created, err := c.api.CreateTask(ctx, service.NewTask{TaskFields: fields, UserID: userID})
	if err != nil {
		c.log.Debug("failed to create task", zap.Error(err))
		return service.Task{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return service.Task{}, ErrSuperseded
	}
	if i := c.index(created.ID); i >= 0 {
		c.tasks[i] = created
	} else {
		c.tasks = append(c.tasks, created)
	}
	c.owner = userID
	c.publish()
	c.log.Debug("task created", zap.String("task_id", created.ID))
	return created, nil
}

// Update replaces every editable field of the cached task id. The server's
// copy takes the task's existing position. Length limits apply only to the
// text fields that change.
func (c *Cache) Update(ctx context.Context, id string, fields service.TaskFields) (service.Task, error) {
	c.mu.Lock()
	_, err := c.currentUser()
	var prev service.Task
	i := c.index(id)
	if i >= 0 {
		prev = c.tasks[i]
	}
	epoch := c.epoch
	c.mu.Unlock()
	if err != nil {
		return service.Task{}, err
	}
	if i < 0 {
		return service.Task{}, ErrUnknownTask
	}

	fields, err = c.limits.NormalizeChange(fields, prev.Fields())
	if err != nil {
		return service.Task{}, err
	}

	updated, err := c.api.UpdateTask(ctx, id, fields)
	if err != nil {
		c.log.Debug("failed to update task", zap.String("task_id", id), zap.Error(err))
		return service.Task{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return service.Task{}, ErrSuperseded
	}
	// The id is immutable; keep the cache keyed by what we asked for.
	updated.ID = id
	if i := c.index(id); i >= 0 {
		c.tasks[i] = updated
		c.publish()
	}
	c.log.Debug("task updated", zap.String("task_id", id))
	return updated, nil
}

// Delete removes task id on the server, then from the cache.
func (c *Cache) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	_, err := c.currentUser()
	epoch := c.epoch
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if err := c.api.DeleteTask(ctx, id); err != nil {
		c.log.Debug("failed to delete task", zap.String("task_id", id), zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return ErrSuperseded
	}
	if i := c.index(id); i >= 0 {
		c.tasks = slices.Delete(c.tasks, i, i+1)
		c.publish()
	}
	c.log.Debug("task deleted", zap.String("task_id", id))
	return nil
}

// Reset empties the cache and forgets that it was hydrated.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.tasks = nil
	c.owner = ""
	c.hydrated = false
	c.loading = nil
	c.publish()
}

// Tasks returns a copy of the cached tasks in order.
func (c *Cache) Tasks() []service.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tasks)
}

// Get returns the cached task id.
func (c *Cache) Get(id string) (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(id); i >= 0 {
		return c.tasks[i], true
	}
	return service.Task{}, false
}

// Hydrated reports whether the cache holds a loaded task list.
func (c *Cache) Hydrated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hydrated
}

// Subscribe observes the task collection. The channel yields the current
// collection at once and the latest one after every change. Each value is
// a private copy.
func (c *Cache) Subscribe() (<-chan []service.Task, func()) {
	return c.view.Subscribe()
}

// index returns the position of id, or -1. Must hold mu.
func (c *Cache) index(id string) int {
	return slices.IndexFunc(c.tasks, func(t service.Task) bool { return t.ID == id })
}
