package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session represents one user's jogging activity on one UTC calendar day.
// Speed and Week are denormalized on every save; Weather is looked up at
// most once, when a location is present and no weather is recorded yet.
type Session struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"user"`
	Distance        int                `bson:"distance" json:"distance"` // meters
	Duration        int                `bson:"duration" json:"duration"` // minutes
	Start           time.Time          `bson:"start" json:"start"`       // UTC, minute resolution
	LocalTimezone   string             `bson:"localTimezone,omitempty" json:"localTimezone"`
	WeatherLocation string             `bson:"weatherLocation,omitempty" json:"weatherLocation"`
	Weather         string             `bson:"weather,omitempty" json:"weather"`
	Speed           float64            `bson:"speed" json:"speed"` // km/h, one decimal
	Week            int                `bson:"week" json:"week"`   // ISO 8601, yyyyww
	StartDay        time.Time          `bson:"startDay" json:"-"`  // UTC day bucket, maintained by the repository for the (user, day) unique index
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
