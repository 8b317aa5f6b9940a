package checkpoint

import "fmt"

// Redis key pattern helpers. Everything is namespaced by instance name so
// several deployments can share one Redis server.
//
// Key pattern: skillpipe:{instance}:checkpoint:{pipeline}
// Channel pattern: skillpipe:{instance}:checkpoint_events

func Key(instance, pipeline string) string {
	return fmt.Sprintf("skillpipe:%s:checkpoint:%s", instance, pipeline)
}

func EventsChannel(instance string) string {
	return fmt.Sprintf("skillpipe:%s:checkpoint_events", instance)
}

const (
	// createdAtField is reserved; skill fields are prefixed so a skill may be
	// named anything.
	createdAtField   = "created_at_ms"
	skillFieldPrefix = "skill:"
)
