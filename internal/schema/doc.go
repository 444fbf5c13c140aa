// Package schema is the static registry of mirrored entity types.
//
// Each entity has a Schema describing its tracked fields, the primary
// identifier used to diff remote and local sets, the owner identifier used
// to scope the local comparison set, and whether it is a stream (append and
// update only) or a snapshot (kept in exact correspondence with the remote
// batch). Struct kinds describe the small shared lookup records (age range,
// comment info, like info) that relation fields point at.
//
// The catalogue is compile-time data; nothing is discovered by reflection.
package schema
