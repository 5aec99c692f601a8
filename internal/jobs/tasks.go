package jobs

const TaskScanLocations = "scan:locations"

// ScanPayload describes one scan request. An empty LocationIDs list means
// every enabled location for the user.
type ScanPayload struct {
	UserID      string   `json:"user_id"`
	LocationIDs []string `json:"location_ids,omitempty"`
}

type EventNotifier interface {
	Broadcast(event string, data interface{})
}

func RegisterHandlers(q *Queue, scanHandler *ScanHandler) {
	q.RegisterHandler(TaskScanLocations, scanHandler)
}
