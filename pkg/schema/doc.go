// Package schema defines the persisted wire format for designer topologies
// and converts between records and live layers.
//
// Records carry both json and bson tags so the same types serve the file,
// Redis and MongoDB stores. Decoding is forgiving: missing collections
// default to empty and malformed layer payloads degrade to an empty layer
// instead of failing the project load.
package schema
