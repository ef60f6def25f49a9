// Package framework is the composition root of the runtime: it owns a
// directory of mailboxes, a caching message allocator, the shared ready
// queue, the worker pool, and the fallback handler for undeliverable
// messages.
//
// A process can host several frameworks. Each claims a non-zero index in a
// process-wide registry at construction, and addresses carry that index, so
// messages route between frameworks without the frameworks holding pointers
// to one another. Framework index 0 addresses [Receiver]s, mailbox-like
// entities usable from plain goroutines.
//
// # Sending
//
//	fw, _ := framework.New(framework.Params{})
//	defer fw.Close()
//
//	echo, _ := actor.Spawn(fw, "echo", ...)
//	ok := framework.Send(fw, Ping{Seq: 1}, from, echo.Address())
//
// Send is non-blocking: it encodes the value into a block from the
// framework's allocator, resolves the destination (same framework, another
// framework in the process, or a remote endpoint by name) and enqueues it.
// Failure to deliver is reported through the fallback handler, not to the
// sender; Send only returns false when the framework is closed, the message
// could not be encoded, a name-only destination has no endpoint to resolve
// it, or the endpoint rejected it outright.
package framework
