package domain

// UnitStatistics summarizes mastery progress for a single unit
type UnitStatistics struct {
	UnitID     string
	UnitName   string
	Total      int
	Mastered   int
	Unmastered int
	Progress   float64 // mastered/total in percent, 0 for empty units
}

// OverallStatistics summarizes mastery progress across all units
type OverallStatistics struct {
	Units      int
	Total      int
	Mastered   int
	Unmastered int
	Progress   float64
}
