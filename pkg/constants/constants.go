package constants

import "github.com/go-playground/validator/v10"

type contextKey string

const (
	LoggerKey    contextKey = "logger"
	ParamsKey    contextKey = "params"
	RequestStart contextKey = "requestStart"
)

// Validate is shared so struct-level caches are built once per process.
var Validate = validator.New(validator.WithRequiredStructEnabled())
