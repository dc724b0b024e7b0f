// Package catalogv1 holds the generated catalog.v1 gRPC API.
package catalogv1

//go:generate protoc -I ../.. --go_out=../.. --go_opt=paths=source_relative --go-grpc_out=../.. --go-grpc_opt=paths=source_relative catalog/v1/catalog.proto
