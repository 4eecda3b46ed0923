// Package service defines the contract the client requires from the remote
// task-tracking API. Stores and commands never speak HTTP directly.
package service

import "context"

// AuthService covers the account endpoints. These calls carry no credential.
type AuthService interface {
	// Login looks up an account by email.
	// Returns ErrNotFound if no account exists for userID.
	Login(ctx context.Context, userID string) (AuthResult, error)

	// CreateUser registers a new account and signs it in.
	CreateUser(ctx context.Context, profile NewUser) (AuthResult, error)
}

// TaskService covers the task endpoints. Implementations attach the bearer
// credential to every call.
type TaskService interface {
	// ListTasks returns every task owned by userID, in server order.
	ListTasks(ctx context.Context, userID string) ([]Task, error)

	// CreateTask creates a task. The server assigns ID and CreatedAt.
	CreateTask(ctx context.Context, task NewTask) (Task, error)

	// UpdateTask replaces the mutable fields of a task.
	UpdateTask(ctx context.Context, id string, fields TaskFields) (Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id string) error
}

// Service is the full remote API.
type Service interface {
	AuthService
	TaskService
}
