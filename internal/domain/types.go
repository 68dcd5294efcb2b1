package domain

// ID is used across domain entities.
type ID = int64

const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// Roles lists every assignable role.
var Roles = []string{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

func IsValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return true
	}
	return false
}

// Distance units accepted by the geo endpoints.
const (
	UnitMiles      = "mi"
	UnitKilometers = "km"
)
