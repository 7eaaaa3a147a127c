package types

import "github.com/linkupapp/linkup/validator"

// Defaults and bounds for the two discovery queries. Browsing casts a
// wide net; matching is deliberately narrow.
const (
	DefaultNearbyRadiusKm = 5.0
	MinNearbyRadiusKm     = 0.5
	MaxNearbyRadiusKm     = 50.0
	DefaultNearbyLimit    = 20
	MaxNearbyLimit        = 50

	DefaultMatchRadiusKm    = 3.0
	MaxMatchRadiusKm        = 20.0
	DefaultMatchWindowHours = 2
	MinMatchWindowHours     = 1
	MaxMatchWindowHours     = 8
	MatchLimit              = 10
	MatchLookbackHours      = 1
)

// NearbyActivity is a discovery result annotated with its great-circle
// distance from the search center.
type NearbyActivity struct {
	Activity
	DistanceKm float64 `json:"distanceKm"`
}

type NearbyActivities struct {
	Lat           float64
	Lon           float64
	Category      *Category
	Mood          *Mood
	RadiusKm      float64
	Limit         int32
	ExcludeUserID *string
}

func (in *NearbyActivities) Validate() error {
	v := validator.New()

	validateCoordinates(v, in.Lat, in.Lon)

	if in.RadiusKm == 0 {
		in.RadiusKm = DefaultNearbyRadiusKm
	}
	if in.RadiusKm < MinNearbyRadiusKm || in.RadiusKm > MaxNearbyRadiusKm {
		v.AddError("RadiusKm", "Radius must be between 0.5 and 50 km")
	}

	if in.Limit == 0 {
		in.Limit = DefaultNearbyLimit
	}
	if in.Limit < 1 || in.Limit > MaxNearbyLimit {
		v.AddError("Limit", "Limit must be between 1 and 50")
	}

	if in.Category != nil && !in.Category.Valid() {
		v.AddError("Category", "Invalid activity category")
	}
	if in.Mood != nil && !in.Mood.Valid() {
		v.AddError("Mood", "Invalid mood")
	}

	return v.AsError()
}

type MatchActivities struct {
	Lat             float64
	Lon             float64
	Category        Category
	RadiusKm        float64
	TimeWindowHours int32

	loggedInUserID string
}

func (in *MatchActivities) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in MatchActivities) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *MatchActivities) Validate() error {
	v := validator.New()

	validateCoordinates(v, in.Lat, in.Lon)

	if !in.Category.Valid() {
		v.AddError("Category", "Invalid activity category")
	}

	if in.RadiusKm == 0 {
		in.RadiusKm = DefaultMatchRadiusKm
	}
	if in.RadiusKm < MinNearbyRadiusKm || in.RadiusKm > MaxMatchRadiusKm {
		v.AddError("RadiusKm", "Radius must be between 0.5 and 20 km")
	}

	if in.TimeWindowHours == 0 {
		in.TimeWindowHours = DefaultMatchWindowHours
	}
	if in.TimeWindowHours < MinMatchWindowHours || in.TimeWindowHours > MaxMatchWindowHours {
		v.AddError("TimeWindowHours", "Time window must be between 1 and 8 hours")
	}

	return v.AsError()
}
