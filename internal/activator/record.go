package activator

// Mode names the four activation schemes the API accepts on an
// activation PATCH.
type Mode string

const (
	ModeImmediate        Mode = "activate_immediate"
	ModeScheduledAbsolute Mode = "activate_scheduled_absolute"
	ModeScheduledRelative Mode = "activate_scheduled_relative"
	ModeNone              Mode = ""
)

// Record is an ActivationRecord: the API-facing description of a
// completed, pending, or cleared activation request. mode is a pointer
// so the all-null "no activation in progress" record round-trips to
// JSON null rather than the empty string.
type Record struct {
	Mode            *Mode   `json:"mode"`
	RequestedTime   *string `json:"requested_time"`
	ActivationTime  *string `json:"activation_time"`
}

// emptyRecord is the all-null record an idle Activator reports for
// `last` and the record it resets to after a cancellation.
func emptyRecord() Record {
	return Record{}
}

func strPtr(s string) *string { return &s }

func modePtr(m Mode) *Mode { return &m }
