package json

import (
	"os"
	"regexp"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

// ReplaceEnvVars 将配置数据中的 ${VAR} 替换为环境变量值
func ReplaceEnvVars(raw []byte) ([]byte, error) {
	if !envVarPattern.Match(raw) {
		return raw, nil
	}
	res := envVarPattern.ReplaceAllStringFunc(string(raw), func(in string) string {
		name := envVarPattern.FindStringSubmatch(in)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return in
	})
	return []byte(res), nil
}
