package models

import "github.com/google/uuid"

// ChannelProfile is a public user profile with subscription counters relative to a viewer.
// swagger:model ChannelProfile
type ChannelProfile struct {
	UserID            uuid.UUID `json:"id" db:"id"`
	Username          string    `json:"username" db:"username"`
	Email             string    `json:"email" db:"email"`
	Fullname          string    `json:"fullname" db:"fullname"`
	AvatarURL         string    `json:"avatarUrl" db:"avatar_url"`
	CoverImageURL     string    `json:"coverImageUrl" db:"cover_image_url"`
	SubscriberCount   int64     `json:"subscriberCount" db:"subscriber_count"`
	SubscribedToCount int64     `json:"subscribedToCount" db:"subscribed_to_count"`
	IsSubscribed      bool      `json:"isSubscribed" db:"is_subscribed"`
}
