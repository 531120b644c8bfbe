// Package relay correlates outbound command requests with their responses.
//
// Every request gets a unique id and a pending entry that is settled exactly
// once: by the matching response, by its timeout, by the caller's context, or by
// loss of the channel. Progress events for a pending id count as activity and
// push its timeout back. A timeout only abandons the wait; the host may still
// finish the work.
package relay
