package global

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrConfigNotFound = errors.New("config not found")

const envPrefix = "STEPDADDY_"

// GetConfig reads STEPDADDY_<KEY> from the environment and falls back to the built-in default.
func GetConfig(key string) (string, error) {
	if v, ok := os.LookupEnv(envPrefix + strings.ToUpper(key)); ok {
		return strings.TrimSpace(v), nil
	}
	if v, ok := defaultConfigValue[key]; ok {
		return v, nil
	}
	return "", ErrConfigNotFound
}

func GetString(key string) string {
	v, _ := GetConfig(key)
	return v
}

func GetBool(key string) bool {
	v, _ := GetConfig(key)
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config %s: %q is not a boolean, using default\n", key, v)
		b, _ = strconv.ParseBool(defaultConfigValue[key])
	}
	return b
}

func GetInt(key string) int {
	v, _ := GetConfig(key)
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config %s: %q is not a number, using default\n", key, v)
		n, _ = strconv.Atoi(defaultConfigValue[key])
	}
	return n
}

func GetDuration(key string) time.Duration {
	v, _ := GetConfig(key)
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config %s: %q is not a duration, using default\n", key, v)
		d, _ = time.ParseDuration(defaultConfigValue[key])
	}
	return d
}

// GetBaseURL is the public address clients reach us on, without a trailing slash.
func GetBaseURL() string {
	return strings.TrimSuffix(GetString("api_url"), "/")
}
