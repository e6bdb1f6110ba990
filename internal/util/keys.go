package util

import "strings"

// StorageKey isolates key under namespace ns ("" => key unchanged).
func StorageKey(ns, key string) string {
	if ns == "" {
		return key
	}
	return ns + ":" + key
}

// FlightKey names an in-process load so that the same storage key loaded as
// different shapes never shares a result.
func FlightKey(shape, storageKey string) string {
	var b strings.Builder
	b.Grow(len(shape) + 1 + len(storageKey))
	b.WriteString(shape)
	b.WriteByte('|')
	b.WriteString(storageKey)
	return b.String()
}
