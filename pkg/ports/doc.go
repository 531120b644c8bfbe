/*
Package ports defines the driven ports (interfaces) of Quill.

These interfaces decouple the relay client and the host executor from concrete transports
and storage backends.

# Key Interfaces

  - Channel: duplex frame transport (websocket, in-memory pipe).
  - ProgressSink: non-blocking destination for progress events.
  - FontLoader / FontRegistry: font availability on the host.
  - SessionStore: persistence for session settings (memory, Redis).
  - DistributedLocker: exclusive ownership of a session across processes.
*/
package ports
