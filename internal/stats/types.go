package stats

import "time"

// DashboardStats is the directory summary shown on the dashboard.
type DashboardStats struct {
	TotalUsers     int        `json:"totalUsers"`
	ActiveUsers    int        `json:"activeUsers"`
	DisabledUsers  int        `json:"disabledUsers"`
	LockedUsers    int        `json:"lockedUsers"`
	TotalGroups    int        `json:"totalGroups"`
	TotalOUs       int        `json:"totalOUs"`
	TotalComputers int        `json:"totalComputers"`
	RecentImports  int        `json:"recentImports"`
	LastSync       *time.Time `json:"lastSync,omitempty"`
}

// SystemInfo describes the backend service.
type SystemInfo struct {
	Version          string    `json:"version"`
	Environment      string    `json:"environment"`
	MachineName      string    `json:"machineName"`
	Domain           string    `json:"domain"`
	DomainController string    `json:"domainController"`
	StartTime        time.Time `json:"startTime"`
}

// Snapshot is a DashboardStats value with the time the console received it.
type Snapshot struct {
	Stats      DashboardStats `json:"stats"`
	ReceivedAt time.Time      `json:"receivedAt"`
	Live       bool           `json:"live"`
}

// Newer returns whichever snapshot was received last. A zero snapshot always loses.
func Newer(a, b Snapshot) Snapshot {
	if b.ReceivedAt.After(a.ReceivedAt) {
		return b
	}

	return a
}
