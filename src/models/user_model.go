package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleFounder  Role = "founder"
	RoleMentor   Role = "mentor"
	RoleInvestor Role = "investor"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

type User struct {
	Id             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	Username       string             `json:"username" bson:"username"`
	Email          string             `json:"email,omitempty" bson:"email"`
	Role           Role               `json:"role" bson:"role"`
	Locale         string             `json:"locale,omitempty" bson:"locale,omitempty"`
	ProfilePicture string             `json:"profile_picture,omitempty" bson:"profile_picture,omitempty"`
	SchedulingLink string             `json:"schedulingLink,omitempty" bson:"schedulingLink,omitempty"`
	// Documents without the field keep push on.
	PushDisabled bool `json:"-" bson:"pushDisabled,omitempty"`
}

// DisplayName is the name used when rendering messages about this user.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

func (u *User) PushEnabled() bool {
	return !u.PushDisabled
}

type UserDto struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Username       string             `bson:"username" json:"username"`
	Role           Role               `bson:"role" json:"role"`
	ProfilePicture string             `bson:"profile_picture" json:"profilePicture"`
}

func (u *User) Dto() UserDto {
	return UserDto{
		ID:             u.Id,
		Name:           u.Name,
		Username:       u.Username,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
	}
}
