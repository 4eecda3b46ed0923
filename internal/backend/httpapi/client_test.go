package httpapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"tasktrack/internal/backend/httpapi"
	"tasktrack/internal/service"
	"tasktrack/internal/testutil"
)

func newClient(t *testing.T, api *testutil.FakeAPI) *httpapi.Client {
	t.Helper()
	return httpapi.NewWithHTTPClient(api.BaseURL(), api.Client(), time.Second, nil)
}

func TestLogin_ExistingUser(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("alice@example.com", "Alice", "Liddell")
	api := testutil.NewFakeAPI(t, svc)

	res, err := newClient(t, api).Login(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token == "" {
		t.Error("expected a token")
	}
	if res.User.UserID != "alice@example.com" || res.User.Name != "Alice" {
		t.Errorf("unexpected user %+v", res.User)
	}
	if res.User.CreatedAt.IsZero() {
		t.Error("expected createdAt decoded from the object form")
	}

	reqs := api.Requests()
	if len(reqs) != 1 || reqs[0].Path != "/api/users/login" || reqs[0].Method != http.MethodPost {
		t.Errorf("unexpected requests %+v", reqs)
	}
	if reqs[0].Authorization != "" {
		t.Errorf("login must not carry a credential, got %q", reqs[0].Authorization)
	}
}

func TestLogin_UnknownUserIsNotFound(t *testing.T) {
	api := testutil.NewFakeAPI(t, testutil.NewFakeService())

	_, err := newClient(t, api).Login(context.Background(), "new@example.com")
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUser_SendsBirthDate(t *testing.T) {
	svc := testutil.NewFakeService()
	api := testutil.NewFakeAPI(t, svc)

	birth := time.Date(1990, time.March, 7, 0, 0, 0, 0, time.UTC)
	res, err := newClient(t, api).CreateUser(context.Background(), service.NewUser{
		UserID:      "new@example.com",
		Name:        "New",
		LastName:    "User",
		DateOfBirth: birth,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.User.DateOfBirth.Equal(birth) {
		t.Errorf("expected birth date %v round-tripped, got %v", birth, res.User.DateOfBirth.Time)
	}
}

func TestTaskCalls_CarryBearerToken(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("alice@example.com", "Alice", "Liddell")
	svc.AddTask("alice@example.com", "t0", "Existing")
	api := testutil.NewFakeAPI(t, svc)
	client := newClient(t, api)

	auth, err := client.Login(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	authed := client.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: auth.Token}))
	ctx := context.Background()

	tasks, err := authed.ListTasks(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t0" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}

	created, err := authed.CreateTask(ctx, service.NewTask{
		UserID: "alice@example.com",
		TaskFields: service.TaskFields{
			Title: "Buy milk", Description: "2%",
			Status: service.StatusPending, Priority: service.PriorityLow,
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == "" || created.Title != "Buy milk" {
		t.Errorf("unexpected created task %+v", created)
	}

	fields := created.Fields()
	fields.Status = service.StatusCompleted
	updated, err := authed.UpdateTask(ctx, created.ID, fields)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != service.StatusCompleted || updated.ID != created.ID {
		t.Errorf("unexpected updated task %+v", updated)
	}

	if err := authed.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	for _, r := range api.Requests()[1:] {
		if r.Authorization != "Bearer "+auth.Token {
			t.Errorf("%s %s: expected bearer token, got %q", r.Method, r.Path, r.Authorization)
		}
		if r.RequestID == "" {
			t.Errorf("%s %s: missing request id", r.Method, r.Path)
		}
	}
}

func TestTaskCalls_QueryParameters(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("alice@example.com", "Alice", "Liddell")
	svc.AddTask("alice@example.com", "t0", "Existing")
	api := testutil.NewFakeAPI(t, svc)
	client := newClient(t, api)
	auth, _ := client.Login(context.Background(), "alice@example.com")
	authed := client.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: auth.Token}))

	if _, err := authed.ListTasks(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if err := authed.DeleteTask(context.Background(), "t0"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	reqs := api.Requests()
	if reqs[1].Path != "/api/tasks/user" || reqs[1].RawQuery != "userId=alice%40example.com" {
		t.Errorf("unexpected list request %+v", reqs[1])
	}
	if reqs[2].Method != http.MethodDelete || reqs[2].RawQuery != "id=t0" {
		t.Errorf("unexpected delete request %+v", reqs[2])
	}
}

func TestTaskCalls_WithoutTokenSource(t *testing.T) {
	api := testutil.NewFakeAPI(t, testutil.NewFakeService())

	_, err := newClient(t, api).ListTasks(context.Background(), "alice@example.com")
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if n := len(api.Requests()); n != 0 {
		t.Errorf("expected no request to be sent, got %d", n)
	}
}

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) { return nil, errors.New("not logged in") }

func TestTaskCalls_TokenSourceFailure(t *testing.T) {
	api := testutil.NewFakeAPI(t, testutil.NewFakeService())
	authed := newClient(t, api).WithTokenSource(failingSource{})

	err := authed.DeleteTask(context.Background(), "t1")
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTaskCalls_RejectedToken(t *testing.T) {
	api := testutil.NewFakeAPI(t, testutil.NewFakeService())
	authed := newClient(t, api).WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "forged"}))

	_, err := authed.ListTasks(context.Background(), "alice@example.com")
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid token") {
		t.Errorf("expected server message in error, got %v", err)
	}
}

func TestServerError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.LoginErr = errors.New("database down")
	api := testutil.NewFakeAPI(t, svc)

	_, err := newClient(t, api).Login(context.Background(), "alice@example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, service.ErrNotFound) {
		t.Error("server failure must not look like not-found")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "database down") {
		t.Errorf("expected status and message in error, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := httpapi.NewWithHTTPClient(srv.URL, srv.Client(), 50*time.Millisecond, nil)
	_, err := client.Login(context.Background(), "alice@example.com")
	if !errors.Is(err, service.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}
