// Package lockaside implements cache-aside reads over a shared key-value store
// with distributed mutual exclusion around the load path.
//
// On a miss, GetOrLoadWithLock (and its list and map variants) takes a lease
// lock derived from the key, re-reads the key, and only then runs the caller's
// loader. Concurrent misses for the same key, across every process sharing the
// store, therefore run the loader once; the rest wait for the lock and find the
// value on their re-check.
//
// Components:
//   - store.Store: the shared store (Redis via store/redis, or store/memory).
//   - lock.Coordinator: set-if-absent leases released with compare-and-delete.
//   - Codec[V]: (de)serializes V <-> []byte.
//   - provider.Provider: optional per-process near cache for scalar reads.
//
// Keys:
//
//	<ns>:<key>             - the cached value (scalar, list or map)
//	<lockPrefix><ns>:<key> - the lock guarding it (default prefix "lock:")
//
// Loader results:
//
//	Entry{Value: v, TTL: 0}            // cached with Options.DefaultTTL
//	Entry{Value: v, TTL: NoExpiration} // cached without expiry
//	Entry{Absent: true}                // not cached; next miss loads again
//
// Lists and maps that load empty are treated like Absent.
package lockaside
