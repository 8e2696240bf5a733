package auction

import (
	"encoding/json"
)

// Kind names an intent on the wire.
type Kind string

const (
	KindJoin            Kind = "JOIN"
	KindBid             Kind = "BID"
	KindStartAuction    Kind = "START_AUCTION"
	KindSkipTurn        Kind = "SKIP_TURN"
	KindUpdateWorksheet Kind = "UPDATE_WORKSHEET"
	KindUpdateMemo      Kind = "UPDATE_MEMO"
)

// Intent is a participant request to mutate the room. The set of
// implementations is closed.
type Intent interface {
	Kind() Kind
	// Actor is the student the intent acts for; empty for JOIN.
	Actor() string
	isIntent()
}

type Join struct {
	Nickname string `json:"nickname"`
}

type PlaceBid struct {
	StudentID string `json:"studentId"`
	Amount    int    `json:"amount"`
}

type StartAuction struct {
	StudentID  string `json:"studentId"`
	InstanceID string `json:"instanceId"`
}

type SkipTurn struct {
	StudentID string `json:"studentId"`
}

// UpdateWorksheet edits one worksheet slot. Instance is tri-state: unset
// leaves the slot's assignment alone, set with an empty ID clears the slot,
// and set with an ID assigns that instance to the slot.
type UpdateWorksheet struct {
	StudentID string     `json:"studentId"`
	SlotIndex int        `json:"slotIndex"`
	Instance  OptionalID `json:"instanceId"`
	Answer    *string    `json:"answer,omitempty"`
}

type UpdateMemo struct {
	StudentID  string `json:"studentId"`
	InstanceID string `json:"instanceId"`
	Memo       string `json:"memo"`
}

func (Join) Kind() Kind            { return KindJoin }
func (PlaceBid) Kind() Kind        { return KindBid }
func (StartAuction) Kind() Kind    { return KindStartAuction }
func (SkipTurn) Kind() Kind        { return KindSkipTurn }
func (UpdateWorksheet) Kind() Kind { return KindUpdateWorksheet }
func (UpdateMemo) Kind() Kind      { return KindUpdateMemo }

func (Join) Actor() string              { return "" }
func (i PlaceBid) Actor() string        { return i.StudentID }
func (i StartAuction) Actor() string    { return i.StudentID }
func (i SkipTurn) Actor() string        { return i.StudentID }
func (i UpdateWorksheet) Actor() string { return i.StudentID }
func (i UpdateMemo) Actor() string      { return i.StudentID }

func (Join) isIntent()            {}
func (PlaceBid) isIntent()        {}
func (StartAuction) isIntent()    {}
func (SkipTurn) isIntent()        {}
func (UpdateWorksheet) isIntent() {}
func (UpdateMemo) isIntent()      {}

// OptionalID distinguishes an absent JSON field from an explicit null.
type OptionalID struct {
	Set bool
	ID  string
}

// Assign returns an OptionalID that assigns id.
func Assign(id string) OptionalID { return OptionalID{Set: true, ID: id} }

// Clear returns an OptionalID that clears the slot.
func Clear() OptionalID { return OptionalID{Set: true} }

// UnmarshalJSON is only called when the field is present, null included.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.ID = ""
		return nil
	}
	return json.Unmarshal(data, &o.ID)
}

// MarshalJSON drops instanceId entirely when it is unset.
func (u UpdateWorksheet) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"studentId": u.StudentID,
		"slotIndex": u.SlotIndex,
	}
	if u.Instance.Set {
		if u.Instance.ID == "" {
			out["instanceId"] = nil
		} else {
			out["instanceId"] = u.Instance.ID
		}
	}
	if u.Answer != nil {
		out["answer"] = *u.Answer
	}
	return json.Marshal(out)
}
