package domain

import "time"

// NotificationChannel is a delivery channel a user has opted into for
// birthday reminders.
type NotificationChannel string

const (
	// ChannelEmail delivers reminders by email.
	ChannelEmail NotificationChannel = "email"
	// ChannelSMS delivers reminders by text message.
	ChannelSMS NotificationChannel = "sms"
	// ChannelPush delivers reminders by push notification.
	ChannelPush NotificationChannel = "push"
)

// AccountStatus represents the user's account status.
type AccountStatus string

const (
	// AccountActive indicates the user can log in and use the system.
	AccountActive AccountStatus = "active"
	// AccountSuspended indicates the account has been disabled.
	AccountSuspended AccountStatus = "suspended"
)

// ThemePreference is the UI theme a user has chosen.
type ThemePreference string

// Theme preference values.
const (
	ThemeLight  ThemePreference = "light"
	ThemeDark   ThemePreference = "dark"
	ThemeSystem ThemePreference = "system"
)

// User represents a registered account in the system.
type User struct {
	Meta
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	DisplayName  string `json:"display_name"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	About        string `json:"about,omitempty"`
	Location     string `json:"location,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Country      string `json:"country,omitempty"`

	// NotificationChannels lists the channels reminders should go out on.
	// Defaults to email only.
	NotificationChannels []NotificationChannel `json:"notification_channels"`

	// ReminderTime is the preferred local wall-clock time ("09:00") for the
	// daily reminder sweep to deliver this user's reminders.
	ReminderTime string `json:"reminder_time"`

	Theme       ThemePreference `json:"theme"`
	Status      AccountStatus   `json:"status,omitempty"` // empty = active for older records
	LastLoginAt time.Time       `json:"last_login_at"`
}

// DefaultNotificationChannels returns the channels enabled for new accounts.
func DefaultNotificationChannels() []NotificationChannel {
	return []NotificationChannel{ChannelEmail}
}

// IsActive returns true if the user can log in and use the system.
// Empty status is treated as active for records created before the field existed.
func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == AccountActive
}

// Name returns the best available name to display for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Public returns a copy safe for API responses, with credential material removed.
func (u *User) Public() *User {
	pub := *u
	pub.PasswordHash = ""
	return &pub
}
