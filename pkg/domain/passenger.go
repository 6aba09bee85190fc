package domain

import "strings"

// Passenger представляет зарегистрированного пассажира
type Passenger struct {
	Name string
}

// NormalizeName приводит имя пассажира к каноническому виду
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CheckerShift представляет кандидатную смену контролёра.
// Интервал полуоткрытый: контролёр занят в [Start, End).
type CheckerShift struct {
	Start int64
	End   int64
}

// Duration возвращает длительность смены
func (s CheckerShift) Duration() int64 {
	return s.End - s.Start
}

// Valid проверяет, что смена имеет положительную длительность
func (s CheckerShift) Valid() bool {
	return s.End > s.Start
}
