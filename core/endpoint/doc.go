// Package endpoint is the boundary between a process's frameworks and the
// network.
//
// An endpoint owns a registry of the mailbox names hosted by the frameworks
// attached to it. Sends addressed purely by name resolve against that
// registry first; on a miss, the encoded message is handed to the endpoint's
// [Transport], which carries it to whichever endpoint registered the name.
// Inbound frames resolve the target name locally and are pushed into the
// owning framework through the delivery hook the framework installs.
//
// The wire format of a frame is the transport's concern; the frame codec
// here is JSON, matching the message payload codec. [NewLoopback] provides
// an in-process transport for tests and single-process topologies;
// adapters/nats provides a networked one.
package endpoint
