// Package catalog is the client of the technology catalog and profile item
// APIs.
//
// Reads go through condcache, so repeated reads cost a 304 round trip
// instead of a full body. Every read accepts condcache.WithForce for a live
// answer. Mutations validate their input, and on success drop the cache of
// the whole resource family they touched.
package catalog
