package domain

// UserProfile holds identity, contact and vehicle data for a user.
type UserProfile struct {
	UserID            string
	Name              string
	Email             string
	Phone             string
	Vehicle           string
	WalletBalance     float64
	PrefersEV         bool
	ProfileImageURL   string
	Status            string
	Language          string
	CarName           string
	CarType           string
	FuelType          string
	CarNumberPlate    string
	DateOfBirth       string
	Gender            string
	CompletionPercent int
}

// completionFields lists the required fields counted towards profile
// completion. Wallet balance and preferences are optional and excluded.
func (p UserProfile) completionFields() []string {
	return []string{
		p.Name,
		p.Email,
		p.Phone,
		p.CarName,
		p.CarType,
		p.FuelType,
		p.CarNumberPlate,
		p.ProfileImageURL,
		p.DateOfBirth,
		p.Gender,
	}
}

// Completion derives the percentage of required fields that are
// populated, integer-truncated. The stored CompletionPercent is only a
// snapshot mirror of this value, never the source of truth.
func (p UserProfile) Completion() int {
	fields := p.completionFields()
	if len(fields) == 0 {
		return 0
	}
	done := 0
	for _, f := range fields {
		if f != "" {
			done++
		}
	}
	return done * 100 / len(fields)
}
