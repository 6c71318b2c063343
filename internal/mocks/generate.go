// Package mocks provides generated mock implementations for testing.
//
// Mocks are generated with go.uber.org/mock (gomock) from the port
// interfaces in internal/core. To regenerate after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=contact_directory_mock.go github.com/repairhq/fieldservice/internal/core ContactDirectory
