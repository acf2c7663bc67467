// Package session manages the bounded rolling conversation history kept per
// (channel, channel id) identity. Sessions are in-process and ephemeral:
// history survives across tasks within one process lifetime and is lost on
// restart. Durable long-term memory lives in the Store and is a deliberately
// separate, unsynchronized subsystem.
package session
