package notifications

const (
	TypeWorkStarted    = "work_started"
	TypeBreakStarted   = "break_started"
	TypeBreakEnded     = "break_ended"
	TypeWorkEnded      = "work_ended"
	TypeLeaveSubmitted = "leave_submitted"
	TypeLeaveApproved  = "leave_approved"
	TypeLeaveRejected  = "leave_rejected"
)
