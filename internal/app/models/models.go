package models

import "strings"

// AttendanceStatus is the recorded outcome for one student on one day
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusAbsent  AttendanceStatus = "ABSENT"
	StatusLate    AttendanceStatus = "LATE"
	StatusExcused AttendanceStatus = "EXCUSED"

	// StatusNotMarked only appears in class reports, it is never stored
	StatusNotMarked AttendanceStatus = "NOT_MARKED"
)

// ParseAttendanceStatus accepts any letter case and rejects NOT_MARKED.
func ParseAttendanceStatus(s string) (AttendanceStatus, bool) {
	st := AttendanceStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return st, true
	}
	return "", false
}

// MarkedBy records which capture channel produced a mark
type MarkedBy string

const (
	MarkedByManual    MarkedBy = "MANUAL"
	MarkedBySwipe     MarkedBy = "SWIPE"
	MarkedByBiometric MarkedBy = "BIOMETRIC"
)

// Band is the qualitative attendance classification
type Band string

const (
	BandGood Band = "GOOD"
	BandFair Band = "FAIR"
	BandPoor Band = "POOR"
)

// BandFor classifies an attendance percentage.
func BandFor(percentage int) Band {
	switch {
	case percentage >= 75:
		return BandGood
	case percentage >= 50:
		return BandFair
	default:
		return BandPoor
	}
}
