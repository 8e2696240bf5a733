package models

// Student is a participant's account inside a room.
type Student struct {
	ID               string              `json:"id"`
	Nickname         string              `json:"nickname"`
	Coins            int                 `json:"coins"`
	Inventory        []*SentenceInstance `json:"inventory"`
	WorksheetAnswers map[int]string      `json:"worksheetAnswers"`
	Score            int                 `json:"score"`
	BidCount         int                 `json:"bidCount"`
	SaleCount        int                 `json:"saleCount"`
}

// SentenceInstance is one ownable copy of a template.
type SentenceInstance struct {
	ID                  string `json:"id"`
	Text                string `json:"text"`
	Concept             string `json:"concept"`
	OwnerID             string `json:"ownerId"`
	OriginTemplateIndex int    `json:"originTemplateIndex"`
	AssignedSlot        *int   `json:"assignedSlot"`
	Memo                string `json:"memo,omitempty"`
}

// Item looks up an owned instance by id.
func (s *Student) Item(id string) (*SentenceInstance, bool) {
	for _, it := range s.Inventory {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// ItemAtSlot returns the instance currently assigned to slot.
func (s *Student) ItemAtSlot(slot int) (*SentenceInstance, bool) {
	for _, it := range s.Inventory {
		if it.AssignedSlot != nil && *it.AssignedSlot == slot {
			return it, true
		}
	}
	return nil, false
}

// RemoveItem detaches an instance from the inventory and returns it.
func (s *Student) RemoveItem(id string) (*SentenceInstance, bool) {
	for i, it := range s.Inventory {
		if it.ID == id {
			s.Inventory = append(s.Inventory[:i], s.Inventory[i+1:]...)
			return it, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the student.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}
	out := *s
	if s.Inventory != nil {
		out.Inventory = make([]*SentenceInstance, len(s.Inventory))
		for i, it := range s.Inventory {
			out.Inventory[i] = it.Clone()
		}
	}
	if s.WorksheetAnswers != nil {
		out.WorksheetAnswers = make(map[int]string, len(s.WorksheetAnswers))
		for k, v := range s.WorksheetAnswers {
			out.WorksheetAnswers[k] = v
		}
	}
	return &out
}

// Clone returns a copy of the instance.
func (it *SentenceInstance) Clone() *SentenceInstance {
	out := *it
	if it.AssignedSlot != nil {
		slot := *it.AssignedSlot
		out.AssignedSlot = &slot
	}
	return &out
}
