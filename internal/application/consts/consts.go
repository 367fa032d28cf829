package consts

type RequestStatus string

const (
	RequestStatusProcessing      RequestStatus = "processing"
	RequestStatusPendingApproval RequestStatus = "pending_approval"
	RequestStatusApproved        RequestStatus = "approved"
)

type RequestType string

const (
	RequestTypeInitialPurchase RequestType = "initial_purchase"
	RequestTypeRevision        RequestType = "revision"
	RequestTypeAdminRevision   RequestType = "admin_revision"
)

// transitions holds every legal status edge. Approved is terminal.
var transitions = map[RequestStatus][]RequestStatus{
	RequestStatusProcessing:      {RequestStatusPendingApproval},
	RequestStatusPendingApproval: {RequestStatusApproved, RequestStatusProcessing},
	RequestStatusApproved:        {},
}

func CanTransition(from, to RequestStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(status RequestStatus) bool {
	return len(transitions[status]) == 0
}

type OutboxStatus int

const (
	NotProcessed OutboxStatus = iota
	Processing
	Processed
	InError
)
