package store

import "fmt"

// Redis key pattern helpers
//
// All keys and channels are namespaced so several catalogs can share one
// Redis server.
//
// Key pattern: ucm:{namespace}:usecase:{id}
// Channel pattern: ucm:{namespace}:usecase_events

// UseCaseKey returns the Redis hash key for a use case.
func UseCaseKey(namespace, id string) string {
	return fmt.Sprintf("ucm:%s:usecase:%s", namespace, id)
}

// IndexKey returns the Redis list holding use case ids in insertion order.
func IndexKey(namespace string) string {
	return fmt.Sprintf("ucm:%s:usecases", namespace)
}

// EventsChannel returns the Pub/Sub channel carrying use case change events.
func EventsChannel(namespace string) string {
	return fmt.Sprintf("ucm:%s:usecase_events", namespace)
}
