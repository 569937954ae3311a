package util

import (
	"os"
	"strconv"
	"strings"
)

const EnvironmentPrefix = "TRAVELTIMES_"

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}

// GetEnvironmentVariable returns the prefixed variable or the fallback when it isnt set
func GetEnvironmentVariable(env map[string]string, name string, fallback string) string {
	if value := env[EnvironmentPrefix+name]; value != "" {
		return value
	}

	return fallback
}

func GetEnvironmentVariableInt(env map[string]string, name string, fallback int) (int, error) {
	value := env[EnvironmentPrefix+name]
	if value == "" {
		return fallback, nil
	}

	return strconv.Atoi(value)
}
