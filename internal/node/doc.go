// Package node serves a string-keyed ring over gRPC. The service is
// described by hand with protobuf well-known message types, so no
// generated code is needed on either side.
package node
