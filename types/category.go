package types

// Category is the fixed set of activity kinds users can post.
type Category string

const (
	CategoryCafe       Category = "cafe"
	CategoryGarden     Category = "garden"
	CategoryRestaurant Category = "restaurant"
	CategoryMall       Category = "mall"
	CategoryLibrary    Category = "library"
	CategoryMovie      Category = "movie"
	CategoryGym        Category = "gym"
	CategoryEvent      Category = "event"
	CategoryCoworking  Category = "coworking"
	CategoryOther      Category = "other"
)

// CategoryInfo is presentational metadata only. It never drives behavior.
type CategoryInfo struct {
	Icon  string `json:"icon"`
	Label string `json:"label"`
	Color string `json:"color"`
}

var Categories = map[Category]CategoryInfo{
	CategoryCafe:       {Icon: "☕", Label: "Visiting a Café", Color: "#8D6E63"},
	CategoryGarden:     {Icon: "🌳", Label: "Walk in Garden/Park", Color: "#4CAF50"},
	CategoryRestaurant: {Icon: "🍽️", Label: "Going to Restaurant", Color: "#FF5722"},
	CategoryMall:       {Icon: "🛍️", Label: "Shopping at Mall", Color: "#E91E63"},
	CategoryLibrary:    {Icon: "📚", Label: "Studying at Library", Color: "#3F51B5"},
	CategoryMovie:      {Icon: "🎬", Label: "Watching a Movie", Color: "#9C27B0"},
	CategoryGym:        {Icon: "💪", Label: "Going to Gym", Color: "#F44336"},
	CategoryEvent:      {Icon: "🎉", Label: "Attending an Event", Color: "#FF9800"},
	CategoryCoworking:  {Icon: "💻", Label: "Co-working/Study Meetup", Color: "#00BCD4"},
	CategoryOther:      {Icon: "📍", Label: "Other Activity", Color: "#607D8B"},
}

func (c Category) Valid() bool {
	_, ok := Categories[c]
	return ok
}

func (c Category) Info() CategoryInfo {
	return Categories[c]
}

// Mood is an optional vibe tag on an activity.
type Mood string

const (
	MoodChill      Mood = "chill"
	MoodSocial     Mood = "social"
	MoodStudy      Mood = "study"
	MoodAdventure  Mood = "adventure"
	MoodNetworking Mood = "networking"
	MoodCasual     Mood = "casual"
)

var Moods = []Mood{MoodChill, MoodSocial, MoodStudy, MoodAdventure, MoodNetworking, MoodCasual}

func (m Mood) Valid() bool {
	for _, mood := range Moods {
		if m == mood {
			return true
		}
	}
	return false
}
