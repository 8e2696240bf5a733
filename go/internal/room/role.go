package room

// RoleKind tells a host process apart from a participant process.
type RoleKind string

const (
	RoleHost        RoleKind = "host"
	RoleParticipant RoleKind = "participant"
)

// Role is either *Host or *Participant. Each exposes only its own operations:
// intents go through a Participant, lifecycle actions through a Host.
type Role interface {
	Kind() RoleKind
	isRole()
}

func (*Host) Kind() RoleKind        { return RoleHost }
func (*Participant) Kind() RoleKind { return RoleParticipant }

func (*Host) isRole()        {}
func (*Participant) isRole() {}

// Identity is what a process remembers about its role across restarts.
type Identity struct {
	Role      RoleKind `json:"role"`
	Code      string   `json:"code"`
	Nickname  string   `json:"nickname,omitempty"`
	StudentID string   `json:"studentId,omitempty"`
}

// IdentityOf describes r for persistence.
func IdentityOf(r Role) Identity {
	switch v := r.(type) {
	case *Host:
		return Identity{Role: RoleHost, Code: v.Code()}
	case *Participant:
		id := Identity{Role: RoleParticipant, Nickname: v.Nickname(), StudentID: v.StudentID()}
		if m := v.Mirror(); m != nil {
			id.Code = m.Code
		}
		return id
	default:
		return Identity{}
	}
}
