package util

import (
	"github.com/google/uuid"
	"strings"
)

// NewInstanceId returns a compact unique id, used to name metrics output directories.
func NewInstanceId() string {
	return strings.Replace(uuid.New().String(), "-", "", -1)
}
