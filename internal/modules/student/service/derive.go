package service

import (
	"fmt"
	"time"

	"anoa.com/studentms/internal/entity"
)

// FormatRegistrationNumber composes PREFIX-YY-NN, e.g. STU-24-07 for roll 7
// enrolled in 2024.
func FormatRegistrationNumber(prefix string, year, roll int) string {
	return fmt.Sprintf("%s-%02d-%02d", prefix, year%100, roll)
}

// AgeOn derives the age from the date of birth alone.
func AgeOn(dob *time.Time, now time.Time) int {
	return entity.YearsBetween(dob, now)
}
