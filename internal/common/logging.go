// logging.go - Package-level log helpers for code running outside a request

package common

import (
	"fmt"
	"log"
)

// LogInfo logs an info-level message without a request ID prefix
func LogInfo(format string, args ...interface{}) {
	log.Printf("ℹ️  %s", fmt.Sprintf(format, args...))
}

// LogWarning logs a warning-level message without a request ID prefix
func LogWarning(format string, args ...interface{}) {
	log.Printf("⚠️  %s", fmt.Sprintf(format, args...))
}

// LogError logs an error-level message without a request ID prefix
func LogError(format string, args ...interface{}) {
	log.Printf("❌ %s", fmt.Sprintf(format, args...))
}
