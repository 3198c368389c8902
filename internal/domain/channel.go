package domain

import (
	"errors"
	"time"
)

// ErrChannelNotFound is returned when a delivery channel cannot be found.
var ErrChannelNotFound = errors.New("channel not found")

// ChannelType selects the concrete sink implementation for a channel.
type ChannelType string

const (
	ChannelTypeWebhook ChannelType = "webhook"
	ChannelTypeSlack   ChannelType = "slack"
	ChannelTypeDiscord ChannelType = "discord"
	ChannelTypeTeams   ChannelType = "teams"
	ChannelTypeEmail   ChannelType = "email"
	ChannelTypeLog     ChannelType = "log"
)

// DefaultDigestSchedule is used when a channel has digesting enabled but
// no schedule configured.
const DefaultDigestSchedule = "daily:08:00"

// Channel is an admin-managed delivery target for notifications.
type Channel struct {
	// ID is the unique identifier for this channel.
	ID string `json:"id"`

	// Name is a human-readable name for the channel.
	Name string `json:"name"`

	// Enabled controls whether the channel receives notifications.
	Enabled bool `json:"enabled"`

	// Type selects the concrete sink (webhook, slack, email, ...).
	Type ChannelType `json:"channel_type"`

	// MinSeverity is the minimum alert severity delivered to this channel.
	MinSeverity Severity `json:"min_severity"`

	// Config is the opaque sink configuration as a JSON string
	// (endpoint URLs, credentials). Interpreted only by the sink.
	Config string `json:"config_json,omitempty"`

	// DigestEnabled turns on periodic digest delivery for this channel.
	DigestEnabled bool `json:"digest_enabled"`

	// DigestSchedule is "daily:HH:MM" or "weekly:<dayname>:HH:MM" in UTC.
	// Empty means DefaultDigestSchedule.
	DigestSchedule string `json:"digest_schedule,omitempty"`

	// CreatedAt is when the channel was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the channel was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validation errors for Channel.
var (
	ErrEmptyChannelName = errors.New("name is required")
	ErrEmptyChannelType = errors.New("channel_type is required")
)

// Validate checks if the channel has all required fields with valid values.
func (c *Channel) Validate() error {
	if c.Name == "" {
		return ErrEmptyChannelName
	}
	if c.Type == "" {
		return ErrEmptyChannelType
	}
	if !c.MinSeverity.IsValid() {
		return ErrInvalidMinSeverity
	}
	return nil
}

// Schedule returns the digest schedule string, applying the default when
// the channel has none configured.
func (c *Channel) Schedule() string {
	if c.DigestSchedule == "" {
		return DefaultDigestSchedule
	}
	return c.DigestSchedule
}

// CreateChannelRequest represents the input for creating a new channel.
type CreateChannelRequest struct {
	Name           string      `json:"name"`
	Enabled        *bool       `json:"enabled"`
	Type           ChannelType `json:"channel_type"`
	MinSeverity    Severity    `json:"min_severity"`
	Config         string      `json:"config_json"`
	DigestEnabled  bool        `json:"digest_enabled"`
	DigestSchedule string      `json:"digest_schedule"`
}

// ToChannel converts the request to a Channel entity.
func (req *CreateChannelRequest) ToChannel(id string) *Channel {
	now := time.Now().UTC()
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return &Channel{
		ID:             id,
		Name:           req.Name,
		Enabled:        enabled,
		Type:           req.Type,
		MinSeverity:    req.MinSeverity,
		Config:         req.Config,
		DigestEnabled:  req.DigestEnabled,
		DigestSchedule: req.DigestSchedule,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// UpdateChannelRequest represents the input for updating a channel.
type UpdateChannelRequest struct {
	Name           string      `json:"name"`
	Enabled        bool        `json:"enabled"`
	Type           ChannelType `json:"channel_type"`
	MinSeverity    Severity    `json:"min_severity"`
	Config         string      `json:"config_json"`
	DigestEnabled  bool        `json:"digest_enabled"`
	DigestSchedule string      `json:"digest_schedule"`
}

// ApplyTo updates an existing Channel with the request values.
func (req *UpdateChannelRequest) ApplyTo(c *Channel) {
	c.Name = req.Name
	c.Enabled = req.Enabled
	c.Type = req.Type
	c.MinSeverity = req.MinSeverity
	c.Config = req.Config
	c.DigestEnabled = req.DigestEnabled
	c.DigestSchedule = req.DigestSchedule
	c.UpdatedAt = time.Now().UTC()
}
