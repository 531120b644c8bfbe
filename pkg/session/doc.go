/*
Package session keeps the settings an agent works with between runs: the relay it
connects to, the channel, and its text mutation defaults.

A Manager serializes access to each session's stored settings, locally with
reference-counted mutexes and across processes with an optional DistributedLocker.
Open additionally claims exclusive ownership of a session so two agents never drive
the same channel at once.
*/
package session
