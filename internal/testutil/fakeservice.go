// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tasktrack/internal/service"
)

// Method names accepted by FakeService.Hold and FakeService.Calls.
const (
	MethodLogin      = "Login"
	MethodCreateUser = "CreateUser"
	MethodListTasks  = "ListTasks"
	MethodCreateTask = "CreateTask"
	MethodUpdateTask = "UpdateTask"
	MethodDeleteTask = "DeleteTask"
)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu        sync.Mutex
	users     map[string]service.User
	tasks     []service.Task
	tokens    map[string]string // token -> userID
	nextToken int
	nextTask  int
	calls     map[string]int
	holds     map[string]*hold

	// LastListUserID is the userID of the most recent ListTasks call.
	LastListUserID string

	// ExpiresIn is returned with every AuthResult.
	ExpiresIn string

	// Now stamps CreatedAt. Defaults to time.Now.
	Now func() time.Time

	// Error injection for testing
	LoginErr      error
	CreateUserErr error
	ListTasksErr  error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteTaskErr error
}

type hold struct {
	entered chan struct{}
	release chan struct{}
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		users:     make(map[string]service.User),
		tokens:    make(map[string]string),
		calls:     make(map[string]int),
		holds:     make(map[string]*hold),
		ExpiresIn: "1h",
		Now:       time.Now,
	}
}

// AddUser registers an existing account.
func (f *FakeService) AddUser(userID, name, lastName string) service.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := service.User{
		ID:        "u-" + userID,
		UserID:    userID,
		Name:      name,
		LastName:  lastName,
		CreatedAt: service.Timestamp{Time: f.Now()},
	}
	f.users[userID] = u
	return u
}

// AddTask stores a task for userID and returns it.
func (f *FakeService) AddTask(userID, id, title string) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{
		ID:          id,
		UserID:      userID,
		Title:       title,
		Description: title,
		Status:      service.StatusPending,
		Priority:    service.PriorityMedium,
		CreatedAt:   service.Timestamp{Time: f.Now()},
	}
	f.tasks = append(f.tasks, t)
	return t
}

// Tasks returns every stored task for userID.
func (f *FakeService) Tasks(userID string) []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []service.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// TokenOwner returns the account a token was issued to.
func (f *FakeService) TokenOwner(token string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.tokens[token]
	return userID, ok
}

// Calls returns how many times method was invoked.
func (f *FakeService) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Hold makes the next call to method block before it does anything. entered
// is closed once the call is waiting; release lets it proceed.
func (f *FakeService) Hold(method string) (entered <-chan struct{}, release func()) {
	h := &hold{entered: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.holds[method] = h
	f.mu.Unlock()

	var once sync.Once
	return h.entered, func() { once.Do(func() { close(h.release) }) }
}

// begin counts the call and waits on any hold registered for method.
func (f *FakeService) begin(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	h := f.holds[method]
	delete(f.holds, method)
	f.mu.Unlock()

	if h == nil {
		return nil
	}
	close(h.entered)
	select {
	case <-h.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *FakeService) issue(u service.User) service.AuthResult {
	f.nextToken++
	token := fmt.Sprintf("token-%d", f.nextToken)
	f.tokens[token] = u.UserID
	return service.AuthResult{Token: token, User: u, ExpiresIn: f.ExpiresIn}
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, userID string) (service.AuthResult, error) {
	if err := f.begin(ctx, MethodLogin); err != nil {
		return service.AuthResult{}, err
	}
	if f.LoginErr != nil {
		return service.AuthResult{}, f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return service.AuthResult{}, service.ErrNotFound
	}
	return f.issue(u), nil
}

// CreateUser implements service.Service.
func (f *FakeService) CreateUser(ctx context.Context, profile service.NewUser) (service.AuthResult, error) {
	if err := f.begin(ctx, MethodCreateUser); err != nil {
		return service.AuthResult{}, err
	}
	if f.CreateUserErr != nil {
		return service.AuthResult{}, f.CreateUserErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.users[profile.UserID]; exists {
		return service.AuthResult{}, fmt.Errorf("user already exists: %s", profile.UserID)
	}
	u := service.User{
		ID:          "u-" + profile.UserID,
		UserID:      profile.UserID,
		Name:        profile.Name,
		LastName:    profile.LastName,
		DateOfBirth: service.Timestamp{Time: profile.DateOfBirth},
		CreatedAt:   service.Timestamp{Time: f.Now()},
	}
	f.users[u.UserID] = u
	return f.issue(u), nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, userID string) ([]service.Task, error) {
	if err := f.begin(ctx, MethodListTasks); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.LastListUserID = userID
	f.mu.Unlock()
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return f.Tasks(userID), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, task service.NewTask) (service.Task, error) {
	if err := f.begin(ctx, MethodCreateTask); err != nil {
		return service.Task{}, err
	}
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextTask++
	t := service.Task{
		ID:          fmt.Sprintf("t%d", f.nextTask),
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		CreatedAt:   service.Timestamp{Time: f.Now()},
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, fields service.TaskFields) (service.Task, error) {
	if err := f.begin(ctx, MethodUpdateTask); err != nil {
		return service.Task{}, err
	}
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == id {
			t.Title = fields.Title
			t.Description = fields.Description
			t.Status = fields.Status
			t.Priority = fields.Priority
			f.tasks[i] = t
			return t, nil
		}
	}
	return service.Task{}, service.ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	if err := f.begin(ctx, MethodDeleteTask); err != nil {
		return err
	}
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return service.ErrNotFound
}
