// Package progress emits command progress events and fans them out to sinks.
//
// Events for one command are clamped so the reported percentage never goes down,
// and nothing is delivered once a terminal status (completed or error) was seen.
// Delivery is best effort: slow sinks lose events instead of stalling commands.
package progress
