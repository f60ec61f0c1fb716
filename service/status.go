package service

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type StatusInfo struct {
	Time       time.Time `json:"time"`
	RetryCount int       `json:"failures"` // consecutive failures since the last Ok
	Status     int       `json:"status"`
	Msg        string    `json:"message"`
}

const (
	Unknown = iota
	Ok
	Warning
	Error
)

var statusCache = xsync.NewMapOf[string, StatusInfo]()

func UpdateStatus(component string, status int, msg string) {
	statusCache.Compute(component, func(old StatusInfo, loaded bool) (StatusInfo, bool) {
		next := StatusInfo{
			Time:   time.Now(),
			Status: status,
			Msg:    msg,
		}
		if status != Ok && loaded {
			next.RetryCount = old.RetryCount + 1
		} else if status != Ok {
			next.RetryCount = 1
		}
		return next, false
	})
}

// GetStatus returns Unknown for a component that has not reported yet.
func GetStatus(component string) StatusInfo {
	if c, ok := statusCache.Load(component); ok {
		return c
	}
	return StatusInfo{
		Status: Unknown,
		Msg:    "Not yet checked",
	}
}

// AllStatus snapshots every component's status.
func AllStatus() map[string]StatusInfo {
	out := make(map[string]StatusInfo, statusCache.Size())
	statusCache.Range(func(k string, v StatusInfo) bool {
		out[k] = v
		return true
	})
	return out
}
