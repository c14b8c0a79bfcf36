// Package entity defines the feed's domain references, mutation descriptors
// and viewer identity.
//
// A Descriptor is created for every user action and passed to the mutation
// client. Validate performs the local required-field checks that must pass
// before a descriptor is allowed onto the network.
package entity
