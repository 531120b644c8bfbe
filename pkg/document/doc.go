/*
Package document is the host-side model of a vector document: a tree of typed
nodes owned by their parents, with styled text stored as contiguous font runs.

A Document is not safe for concurrent use on its own. Callers serialize access
through its Lock/RLock methods; the host executor holds the write lock for the
duration of each mutation.
*/
package document
