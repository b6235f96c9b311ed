package shared

import "fmt"

// PeriodLockKey builds redis keys guarding period close critical
// sections so a period is never recomputed concurrently.
func PeriodLockKey(periodID int64) string {
	return fmt.Sprintf("tunkin:period:%d:lock", periodID)
}
