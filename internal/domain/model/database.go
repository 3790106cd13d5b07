package model

import "time"

// DatabaseStatus is the lifecycle state of a provisioned database as
// observed from the provider. Transitions are owned by the provider; this
// layer only reads them.
type DatabaseStatus string

const (
	DatabaseCreating DatabaseStatus = "creating"
	DatabaseActive   DatabaseStatus = "active"
	DatabaseError    DatabaseStatus = "error"
)

// DatabaseRegion is one of the provider's closed set of placement regions.
type DatabaseRegion string

const (
	RegionWashington DatabaseRegion = "iad1"
	RegionFrankfurt  DatabaseRegion = "fra1"
	RegionSingapore  DatabaseRegion = "sin1"
	RegionSydney     DatabaseRegion = "syd1"
)

// DefaultRegion is used when a caller omits the region on create.
const DefaultRegion = RegionWashington

// Database is a projection of a provider-side database store.
// ConnectionString is the pooled connection string and is empty while the
// store is still provisioning.
type Database struct {
	ID               string
	Name             string
	ConnectionString string
	Type             string
	Region           DatabaseRegion
	Status           DatabaseStatus
	CreatedAt        time.Time
	Metadata         map[string]any
}

// DatabaseSpec is the caller's input for provisioning a database.
type DatabaseSpec struct {
	Name   string
	Region DatabaseRegion // empty means DefaultRegion
	Plan   string         // empty means the provider's default plan
}
