// Package cache provides the generic LRU cache holding prepared assets.
//
// Cache[K, V] is a thread-safe map with a capacity bound. Reads refresh an
// entry; inserting beyond the capacity evicts the least recently used
// entries and reports them to an optional callback.
//
//	c := cache.New[string, []byte](64)
//	c.Set("logo", data)
//	data, ok := c.Get("logo")
//
// A capacity of 0 disables eviction.
package cache
