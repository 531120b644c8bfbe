/*
Package domain holds the core types shared by the relay, the host executor and the adapters.

It has no dependencies on transports or storage: nodes and their capability table, fonts and
style runs, command and progress envelopes, batch reports, and the classified Error type whose
Kind is decided where the failure originates and travels alongside its readable message.
*/
package domain
