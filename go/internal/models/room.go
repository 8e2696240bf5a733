package models

// RoomMode defines how worksheets are scored.
type RoomMode string

const (
	RoomModeConceptMatch RoomMode = "CONCEPT_MATCH"
	RoomModeOrderMatch   RoomMode = "ORDER_MATCH"
	RoomModeCombined     RoomMode = "COMBINED"
)

// Valid reports whether m is one of the known modes.
func (m RoomMode) Valid() bool {
	switch m {
	case RoomModeConceptMatch, RoomModeOrderMatch, RoomModeCombined:
		return true
	}
	return false
}

// RoomStatus defines the lifecycle state of a room.
type RoomStatus string

const (
	RoomStatusSetup    RoomStatus = "SETUP"
	RoomStatusLobby    RoomStatus = "LOBBY"
	RoomStatusMarket   RoomStatus = "MARKET"
	RoomStatusFinished RoomStatus = "FINISHED"
)

// SentenceTemplate is a catalog entry that instances are copied from.
type SentenceTemplate struct {
	Text    string `json:"text" yaml:"text"`
	Concept string `json:"concept" yaml:"concept"`
}

// Room is the replicated session state. Only the host mutates it.
type Room struct {
	ID                 string             `json:"id"`
	Code               string             `json:"code"`
	HostID             string             `json:"hostId"`
	Mode               RoomMode           `json:"mode"`
	Status             RoomStatus         `json:"status"`
	Templates          []SentenceTemplate `json:"templates"`
	Students           []*Student         `json:"students"` // join order
	ActiveAuction      *ActiveAuction     `json:"activeAuction"`
	InitialCoins       int                `json:"initialCoins"`
	CurrentSellerIndex int                `json:"currentSellerIndex"`
}

// Student looks up a student by id.
func (r *Room) Student(id string) (*Student, bool) {
	for _, s := range r.Students {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// StudentByNickname looks up a student by nickname.
func (r *Room) StudentByNickname(nickname string) (*Student, bool) {
	for _, s := range r.Students {
		if s.Nickname == nickname {
			return s, true
		}
	}
	return nil, false
}

// CurrentSeller returns the student whose turn it is to list an item.
func (r *Room) CurrentSeller() (*Student, bool) {
	if r.CurrentSellerIndex < 0 || r.CurrentSellerIndex >= len(r.Students) {
		return nil, false
	}
	return r.Students[r.CurrentSellerIndex], true
}

// TotalCoins sums every student's balance.
func (r *Room) TotalCoins() int {
	total := 0
	for _, s := range r.Students {
		total += s.Coins
	}
	return total
}

// Clone returns a deep copy that shares no mutable state with r.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	if r.Templates != nil {
		out.Templates = append([]SentenceTemplate{}, r.Templates...)
	}
	if r.Students != nil {
		out.Students = make([]*Student, len(r.Students))
		for i, s := range r.Students {
			out.Students[i] = s.Clone()
		}
	}
	if r.ActiveAuction != nil {
		a := *r.ActiveAuction
		if a.HighestBid != nil {
			b := *a.HighestBid
			a.HighestBid = &b
		}
		out.ActiveAuction = &a
	}
	return &out
}
