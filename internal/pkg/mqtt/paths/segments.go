// Package paths holds the topic segments of the teleop network.
// Every topic has the shape {root}/{segment}/{node}, where node is the
// hexadecimal node id of the system the topic belongs to.
package paths

const (
	// Announce carries the retained Announce of a system. An empty retained
	// payload clears it when the system leaves.
	// Pattern: {root}/announce/{node}
	Announce = "announce"

	// Telemetry carries broadcast state such as EstimatedState and Heartbeat.
	// Pattern: {root}/telemetry/{node}
	Telemetry = "telemetry"

	// Inbox carries messages addressed to one system.
	// Pattern: {root}/inbox/{node}
	Inbox = "inbox"
)
