package auction

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid room transition")
	ErrNoTemplates       = errors.New("room has no templates")
	ErrNoStudents        = errors.New("room has no students")
	ErrInvalidMode       = errors.New("invalid room mode")
	ErrInvalidCoins      = errors.New("initial coins must not be negative")
	ErrInvariant         = errors.New("room invariant violated")
)

// Rejection is the reason an intent was refused. Rejections never leave the
// host; participants only notice that the next snapshot did not change.
type Rejection string

func (r Rejection) Error() string { return string(r) }

const (
	RejectWrongStatus       Rejection = "room status does not allow this intent"
	RejectNoActiveAuction   Rejection = "no active auction"
	RejectAuctionActive     Rejection = "an auction is already active"
	RejectUnknownStudent    Rejection = "student not found"
	RejectNotOwner          Rejection = "instance not owned by student"
	RejectNotYourTurn       Rejection = "student is not the current seller"
	RejectBelowFloor        Rejection = "bid below minimum"
	RejectBidTooLow         Rejection = "bid does not beat the highest bid"
	RejectInsufficientCoins Rejection = "insufficient coins"
	RejectInvalidSlot       Rejection = "worksheet slot out of range"
	RejectEmptyNickname     Rejection = "nickname is empty"
	RejectNicknameTaken     Rejection = "nickname already joined"
	RejectRoomFinished      Rejection = "room finished, only existing students can rejoin"
	RejectUnknownIntent     Rejection = "unknown intent"
)

// IsRejection reports whether err is an ordinary validation rejection.
func IsRejection(err error) bool {
	var r Rejection
	return errors.As(err, &r)
}
