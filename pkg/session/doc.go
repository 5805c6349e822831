/*
Package session serializes access to reading sessions.

A Manager combines a ports.StateStore with per-session mutexes and, when
several replicas serve the same sessions, a ports.DistributedLocker.
*/
package session
