package domain

const MintTopic = "mint"

type EventType int

const (
	EventTypeUndefined EventType = iota
	EventTypeMintRequested
	EventTypeTokenMinted
)

func (t EventType) String() string {
	switch t {
	case EventTypeMintRequested:
		return "MintRequested"
	case EventTypeTokenMinted:
		return "TokenMinted"
	default:
		return "Undefined"
	}
}

type Event interface {
	GetTopic() string
	GetType() EventType
}

// MintEvent is embedded by every event of the mint topic. Id is the id of
// the mint request the event belongs to.
type MintEvent struct {
	Id   string
	Type EventType
}

func (e MintEvent) GetTopic() string   { return MintTopic }
func (e MintEvent) GetType() EventType { return e.Type }

type MintRequested struct {
	MintEvent
	Requester string
	Payment   string
	Timestamp int64
}

type TokenMinted struct {
	MintEvent
	TokenId           uint64
	Owner             string
	Category          string
	MetadataReference string
	Timestamp         int64
}
