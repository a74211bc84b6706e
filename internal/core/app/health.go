package app

import (
	"context"
	"fmt"
	"time"

	"duml/internal/shared/observability"
)

// Health reports the state of the last build and of the store.
func (a *App) Health(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if res := a.Last(); res == nil {
		status.Status = "degraded"
		status.Components["tree"] = "not built"
	} else {
		stats := res.Tree.Stats()
		status.Components["tree"] = fmt.Sprintf("ok (%d files, %d modules, %d failed)", len(res.Files), stats.Modules, len(res.Failed))
	}

	if a.store != nil {
		if _, err := a.store.ListScans(ctx, 1); err != nil {
			status.Status = "degraded"
			status.Components["store"] = "error: " + err.Error()
		} else {
			status.Components["store"] = "ok"
		}
	}

	return status
}
