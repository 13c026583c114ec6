package store

// Status is the lifecycle of the most recent dispatch of one operation kind.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Kind identifies one of the five remote operations.
type Kind int

const (
	KindFetchAll Kind = iota
	KindFetchByID
	KindCreate
	KindUpdate
	KindDelete

	numKinds
)

var kindNames = [numKinds]string{
	KindFetchAll:  "fetch-all",
	KindFetchByID: "fetch-by-id",
	KindCreate:    "create",
	KindUpdate:    "update",
	KindDelete:    "delete",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds lists every operation kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindFetchAll, KindFetchByID, KindCreate, KindUpdate, KindDelete}
}

// Statuses is a point-in-time copy of every kind's status.
type Statuses struct {
	FetchAll  Status `json:"fetchStatus"`
	FetchByID Status `json:"fetchByIdStatus"`
	Create    Status `json:"addStatus"`
	Update    Status `json:"updateStatus"`
	Delete    Status `json:"deleteStatus"`
}

func statusesOf(s [numKinds]Status) Statuses {
	return Statuses{
		FetchAll:  s[KindFetchAll],
		FetchByID: s[KindFetchByID],
		Create:    s[KindCreate],
		Update:    s[KindUpdate],
		Delete:    s[KindDelete],
	}
}
