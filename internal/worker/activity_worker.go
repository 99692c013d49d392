package worker

import (
	"github.com/desh1993/fitness-mvp/internal/service"
)

// StartActivityWorker registers the member activity handlers.
func StartActivityWorker(activityService *service.ActivityService) {
	if activityService == nil {
		return
	}
	activityService.RegisterHandlers()
}
