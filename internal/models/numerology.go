package models

import (
	"github.com/roach88/attune/internal/domain"
)

// digitSum adds the decimal digits of n (n >= 0).
func digitSum(n int) int {
	if n < 0 {
		n = -n
	}
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}

func isMaster(n int) bool {
	return n == 11 || n == 22 || n == 33
}

// reduce collapses n to a single digit, keeping the master numbers 11, 22
// and 33.
func reduce(n int) int {
	for n > 9 && !isMaster(n) {
		n = digitSum(n)
	}
	return n
}

// root collapses n to 1..9, master numbers included.
func root(n int) int {
	for n > 9 {
		n = digitSum(n)
	}
	return n
}

func dateDigitSum(d domain.Date) int {
	return digitSum(d.Year()) + digitSum(int(d.Month())) + digitSum(d.Day())
}

func lifePathNumber(birth domain.Date) int {
	return reduce(dateDigitSum(birth))
}

type numerologyEntry struct {
	score int
	label string
}

var personalDayTable = map[int]numerologyEntry{
	1:  {85, "new_beginnings"},
	2:  {60, "cooperation"},
	3:  {80, "expression"},
	4:  {55, "foundation"},
	5:  {75, "change"},
	6:  {70, "harmony"},
	7:  {50, "reflection"},
	8:  {90, "abundance"},
	9:  {65, "completion"},
	11: {88, "intuition"},
	22: {92, "master_builder"},
	33: {86, "compassion"},
}

// PersonalDay scores the numerology personal day number:
// personal year = birth month + birth day + target year, reduced;
// personal month = personal year + target month, reduced;
// personal day = personal month + target day, reduced.
type PersonalDay struct{}

func (PersonalDay) ID() domain.ModelID { return PersonalDayID }

func (PersonalDay) Compute(in Input) (domain.ModelReading, bool) {
	if in.Profile.BirthDate.IsZero() {
		return domain.ModelReading{}, false
	}
	n := PersonalDayNumber(in.Profile.BirthDate, in.Date)
	entry := personalDayTable[n]
	return reading(PersonalDayID, entry.score, entry.label), true
}

// PersonalDayNumber exposes the personal day reduction for display.
func PersonalDayNumber(birth, date domain.Date) int {
	personalYear := reduce(digitSum(int(birth.Month())) + digitSum(birth.Day()) + digitSum(date.Year()))
	personalMonth := reduce(personalYear + digitSum(int(date.Month())))
	return reduce(personalMonth + digitSum(date.Day()))
}

var lifePathTable = []numerologyEntry{
	{90, "resonant"},
	{78, "harmonious"},
	{66, "neutral"},
	{54, "tense"},
	{42, "discordant"},
}

// LifePath compares the life path number with the universal day number on
// the nine-cycle. Closer numbers resonate.
type LifePath struct{}

func (LifePath) ID() domain.ModelID { return LifePathID }

func (LifePath) Compute(in Input) (domain.ModelReading, bool) {
	if in.Profile.BirthDate.IsZero() {
		return domain.ModelReading{}, false
	}
	lp := root(lifePathNumber(in.Profile.BirthDate))
	universal := root(dateDigitSum(in.Date))

	diff := lp - universal
	if diff < 0 {
		diff = -diff
	}
	if 9-diff < diff {
		diff = 9 - diff
	}
	entry := lifePathTable[diff]
	return reading(LifePathID, entry.score, entry.label), true
}

var karmicNumbers = map[int]bool{13: true, 14: true, 16: true, 19: true}

// KarmicDebt inspects the unreduced compound of the birth month/day digits
// and the target date digits. Compounds of 13, 14, 16 or 19 carry karmic
// debt; compounds reducing to the life path root release it.
type KarmicDebt struct{}

func (KarmicDebt) ID() domain.ModelID { return KarmicDebtID }

func (KarmicDebt) Compute(in Input) (domain.ModelReading, bool) {
	birth := in.Profile.BirthDate
	if birth.IsZero() {
		return domain.ModelReading{}, false
	}
	compound := digitSum(int(birth.Month())) + digitSum(birth.Day()) + dateDigitSum(in.Date)

	switch {
	case karmicNumbers[compound]:
		return reading(KarmicDebtID, 35, "karmic_debt"), true
	case root(compound) == root(lifePathNumber(birth)):
		return reading(KarmicDebtID, 82, "karmic_release"), true
	default:
		return reading(KarmicDebtID, 65, "clear"), true
	}
}
