// Package service contains Kohai's business logic, between the HTTP
// handlers and the store.
package service

import "github.com/Vaalley/kohai/internal/validation"

// validate is the shared request validator for all services.
var validate = validation.New()
