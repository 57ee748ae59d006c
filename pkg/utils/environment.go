package utils

import "strings"

type Environment string

const (
	PRODUCTION  Environment = "production"
	DEVELOPMENT Environment = "development"
)

func (e Environment) Get() string {
	return string(e)
}

// FromEnvironmentStr parses an environment name, falling back to DEVELOPMENT.
func FromEnvironmentStr(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production":
		return PRODUCTION
	default:
		return DEVELOPMENT
	}
}
