package core

// PeriodStart derives the first day of the evaluation window containing ref
// for the given period type. Pure function, no error conditions: an unknown
// period type falls back to the monthly window.
//
//	MONTHLY   -> first day of ref's month
//	QUARTERLY -> first day of ref's quarter
//	YEARLY    -> January 1st of ref's year
func PeriodStart(p PeriodType, ref Date) Date {
	switch p {
	case Quarterly:
		// First of month, moved back to the quarter boundary. On the
		// boundary itself (month-1)%3 is zero, so the offset is zero.
		first := NewDate(ref.Year(), int(ref.Month()), 1)
		offset := (int(ref.Month()) - 1) % 3
		return DateOf(first.AddDate(0, -offset, 0))
	case Yearly:
		return NewDate(ref.Year(), 1, 1)
	default:
		return NewDate(ref.Year(), int(ref.Month()), 1)
	}
}
