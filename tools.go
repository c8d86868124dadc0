//go:build tools
// +build tools

// Package campus_chat pins mockgen so `go generate ./...` regenerates mocks/
// from the interfaces carrying a //go:generate line.
package campus_chat

import (
	_ "go.uber.org/mock/mockgen"
)
