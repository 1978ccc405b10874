package harvest

import "github.com/xraph/harvest/id"

// ID is the primary identifier type for all Harvest entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
