//go:build !linux

package activity

import (
	"errors"
	"time"
)

func accessTime(string) (time.Time, error) {
	return time.Time{}, errors.New("terminal access times only supported on Linux")
}
