package workmode

import "time"

// Mode is the company-global work phase shared by every connected client.
type Mode string

const (
	ModeIdle    Mode = "idle"
	ModeWorking Mode = "working"
	ModeBreak   Mode = "break"
	ModeEnded   Mode = "ended"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeIdle, ModeWorking, ModeBreak, ModeEnded:
		return true
	}
	return false
}

// transitions is the company-global state machine. A new work day reopens the
// config through an epoch rollover, not through a transition out of ended.
var transitions = map[Mode][]Mode{
	ModeIdle:    {ModeWorking},
	ModeWorking: {ModeBreak, ModeEnded},
	ModeBreak:   {ModeWorking, ModeEnded},
	ModeEnded:   {},
}

func CanTransition(from, to Mode) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CompanyWorkConfig mirrors one row of company_work_configs. ActiveBreakReason
// is non-empty iff CurrentMode is break; Version increases on every write so
// subscribers can discard stale or duplicate notifications.
type CompanyWorkConfig struct {
	CompanyID         string    `json:"companyId"`
	WorkStartTime     string    `json:"workStartTime"`
	WorkEndTime       string    `json:"workEndTime"`
	BreakStartTime    string    `json:"breakStartTime"`
	BreakEndTime      string    `json:"breakEndTime"`
	CurrentMode       Mode      `json:"currentMode"`
	ActiveBreakReason string    `json:"activeBreakReason,omitempty"`
	Version           int64     `json:"version"`
	EpochDate         time.Time `json:"epochDate"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ModeChange is the payload carried by the change feed.
type ModeChange struct {
	CompanyID      string `json:"companyId"`
	Mode           Mode   `json:"mode"`
	Reason         string `json:"reason"`
	Version        int64  `json:"version"`
	WorkStartTime  string `json:"workStartTime"`
	WorkEndTime    string `json:"workEndTime"`
	BreakStartTime string `json:"breakStartTime"`
	BreakEndTime   string `json:"breakEndTime"`
}

// SchedulePatch carries optional HH:MM schedule updates; nil fields are left
// untouched.
type SchedulePatch struct {
	WorkStartTime  *string `json:"workStartTime"`
	WorkEndTime    *string `json:"workEndTime"`
	BreakStartTime *string `json:"breakStartTime"`
	BreakEndTime   *string `json:"breakEndTime"`
}
