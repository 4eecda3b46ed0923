package commands

import (
	"fmt"

	"tasktrack/internal/service"
	"tasktrack/internal/tasks"
)

// findTask resolves ref against the cached tasks, in list order.
func findTask(cache *tasks.Cache, ref TaskRef) (service.Task, error) {
	if ref.ID != "" {
		task, ok := cache.Get(ref.ID)
		if !ok {
			return service.Task{}, fmt.Errorf("task not found: %s", ref.ID)
		}
		return task, nil
	}

	list := cache.Tasks()
	if ref.Num < 1 || ref.Num > len(list) {
		return service.Task{}, fmt.Errorf("task number out of range: %d", ref.Num)
	}
	return list[ref.Num-1], nil
}

// parseAndFind parses a task reference from args and resolves it. Errors
// are already phrased for the user.
func parseAndFind(cache *tasks.Cache, args []string) (service.Task, error) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return service.Task{}, err
	}
	return findTask(cache, ref)
}
