/*
Package ports defines the driven ports (interfaces) of storytree.

These interfaces decouple the player and the library from external
implementations, allowing sessions and story sources to live in memory,
on disk, in SQLite or in Redis.

# Key Interfaces

  - StateStore: persists and loads session State.
  - DistributedLocker: distributed locking for concurrent session access.
  - SourceResolver: locates story files and imported plain text stories.
  - StatelessPlayer: plays a story over externally held state.
*/
package ports
