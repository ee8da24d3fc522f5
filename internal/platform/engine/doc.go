// Package engine is the gRPC client for the remote task engine.
//
// The engine speaks plain protobuf over three unary methods on a single
// service (Ping, RegisterTask, DeleteTask). Messages are small and fixed,
// so they are encoded directly with protowire and sent through a forced
// codec instead of generated stubs.
package engine
