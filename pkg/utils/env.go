package utils

import (
	"os"
	"strings"
)

const (
	ENV string = "ENV"

	ENV_LOCAL string = "LOCAL"
	ENV_DEV   string = "DEV"
	ENV_PROD  string = "PROD"
)

const (
	CONFIG_FILE_PATH string = "CONFIG_FILE_PATH"

	// ENDPOINT 覆盖配置文件里的流式RPC端点
	ENDPOINT string = "ENDPOINT"
)

var envPrefix string

func SetEnvPrefix(prefix string) {
	envPrefix = prefix
}

func GetEnv() string {
	return os.Getenv(envPrefix + ENV)
}

func IsLocalEnv() bool {
	return GetEnv() == ENV_LOCAL
}

func IsDevEnv() bool {
	return GetEnv() == ENV_DEV
}

func IsProdEnv() bool {
	return GetEnv() == ENV_PROD
}

func GetConfigFilePath() string {
	return os.Getenv(envPrefix + CONFIG_FILE_PATH)
}

func GetEndpoint() string {
	return strings.TrimSpace(os.Getenv(envPrefix + ENDPOINT))
}
