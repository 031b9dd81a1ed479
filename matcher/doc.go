// Package matcher indexes chat command definitions and resolves typed lines
// to at most one command per channel.
//
// Commands are identified by a (channel, name) Key and matched either by exact
// name or by a compiled regular expression. The index keeps three related
// structures consistent under insert/remove/modify: the authoritative store,
// the exact-name set, and a per-channel list of regex keys.
//
// The Matcher is not internally synchronized. Writers must serialize access
// themselves; the expected deployment is a single registration goroutine with
// resolution happening on the same goroutine or behind the caller's lock.
package matcher
