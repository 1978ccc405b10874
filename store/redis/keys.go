package redis

// Redis key naming conventions for harvest data.
// All keys are prefixed with "harvest:" to avoid collisions.

const keyPrefix = "harvest:"

// runKey returns the key for a run entity: harvest:run:{id}
func runKey(id string) string { return keyPrefix + "run:" + id }

// runIDsKey is the Set tracking all run IDs for enumeration.
const runIDsKey = keyPrefix + "run_ids"
