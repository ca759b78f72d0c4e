package topic

// MQTT topic filter wildcards.
const (
	// Wildcard matches exactly one topic level, so {root}/announce/+ matches
	// the announce topic of every node but nothing below it.
	Wildcard = "+"

	// MultiWildcard matches the remaining levels and must come last.
	MultiWildcard = "#"

	// Separator splits topic levels.
	Separator = "/"
)
