//go:build tools

package main

// Pinned tool dependencies. swag generates internal/api/docs/swagger.json
// from the handler annotations:
//
//	swag init -g internal/api/doc.go -o internal/api/docs --ot json
import (
	_ "github.com/swaggo/swag/cmd/swag"
)
