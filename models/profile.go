package models

import "time"

// ProfileType is the coarse viewer category that defaults a profile's
// content-rating ceiling.
type ProfileType string

const (
	ProfileAdult ProfileType = "adult"
	ProfileTeen  ProfileType = "teen"
	ProfileKid   ProfileType = "kid"
)

// ProfileTypeCeilings maps each profile type to the ceiling applied by the
// dedicated type-change operation. A generic update may still set the ceiling
// independently, so the two fields are only guaranteed consistent through
// that operation.
var ProfileTypeCeilings = map[ProfileType]ContentRating{
	ProfileAdult: RatingNC17,
	ProfileTeen:  RatingPG13,
	ProfileKid:   RatingPG,
}

// ValidProfileType reports whether t is one of the three known types.
func ValidProfileType(t ProfileType) bool {
	_, ok := ProfileTypeCeilings[t]
	return ok
}

// Profile is a per-user viewing identity. The owner reference is immutable
// after creation.
type Profile struct {
	ID               string        `json:"id"`
	UserID           string        `json:"userId"`
	Name             string        `json:"name"`
	Avatar           string        `json:"avatar,omitempty"`
	Type             ProfileType   `json:"type"`
	MaxContentRating ContentRating `json:"maxContentRating"`
	IsActive         bool          `json:"isActive"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// CanAccess reports whether this profile may view content carrying the given
// rating. This is the single comparison behind detail reads, watchlist
// inserts and recommendation filtering; unknown ratings are always denied.
func (p Profile) CanAccess(r ContentRating) bool {
	return r.AllowedUnder(p.MaxContentRating)
}
