package calendar

import "time"

// Phase is the intraday trading phase
type Phase string

const (
	PhasePreOpen   Phase = "pre_open"  // 09:30 이전
	PhaseMorning   Phase = "morning"   // 09:30-11:30
	PhaseLunch     Phase = "lunch"     // 11:30-13:00
	PhaseAfternoon Phase = "afternoon" // 13:00-15:00
	PhaseClosed    Phase = "closed"    // 15:00 이후 또는 휴장일
)

// IsTrading reports a continuous-auction phase
func (p Phase) IsTrading() bool {
	return p == PhaseMorning || p == PhaseAfternoon
}

// Session returns the trading phase at t
func (c *Calendar) Session(t time.Time) Phase {
	t = t.In(c.loc)
	if !c.IsTradingDay(t) {
		return PhaseClosed
	}

	minutes := t.Hour()*60 + t.Minute()
	switch {
	case minutes < 9*60+30:
		return PhasePreOpen
	case minutes < 11*60+30:
		return PhaseMorning
	case minutes < 13*60:
		return PhaseLunch
	case minutes < 15*60:
		return PhaseAfternoon
	default:
		return PhaseClosed
	}
}
