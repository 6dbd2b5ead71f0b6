// Package models defines the shared data types of the bot: sessions,
// operation modes, backend identities and conversation states.
package models

// Role is the access level of a chat participant.
type Role int

const (
	RoleUnset Role = iota
	RoleBlocked
	RoleUser
	RoleAdmin
)

// OperationMode is the global policy deciding how a session's actions map to
// an Overseerr identity.
type OperationMode string

const (
	ModeNormal OperationMode = "normal"
	ModeAPI    OperationMode = "api"
	ModeShared OperationMode = "shared"
)

// IdentityKind tags a session's stored backend identity.
type IdentityKind string

const (
	IdentityNone         IdentityKind = "none"
	IdentityCredentials  IdentityKind = "credentials"
	IdentitySelectedUser IdentityKind = "selected_user"
	IdentityShared       IdentityKind = "shared"
)

// BackendIdentity is the tagged union of ways a session can act against
// Overseerr. Only the field matching Kind is meaningful.
type BackendIdentity struct {
	Kind   IdentityKind `json:"kind"`
	Token  string       `json:"token,omitempty"`  // session cookie, Kind == credentials
	UserID int          `json:"userID,omitempty"` // Overseerr user id, Kind == selected_user
}

// ConversationState is the current node of a session's dialog state machine.
type ConversationState int

const (
	StateIdle ConversationState = iota
	StateAwaitingPassword
	StateAwaitingEmail
	StateAwaitingLoginPassword
	StateSelectingBackendUser
	StateAwaitingNewUserEmail
	StateAwaitingNewUserName
	StateBrowsingResults
	StateSelectingIssueCategory
	StateSelectingIssueSubcategory
)

// NotificationPrefs controls whether and how the bot notifies a participant.
type NotificationPrefs struct {
	Enabled bool `json:"enabled"`
	Silent  bool `json:"silent"`
}

// Session is the durable per-participant record. Records are created lazily
// on first contact and never deleted; blocking sets Role to RoleBlocked.
type Session struct {
	ParticipantID int64             `json:"participantID"`
	Role          Role              `json:"role"`
	Authorized    bool              `json:"authorized"`
	Identity      BackendIdentity   `json:"identity"`
	Prefs         NotificationPrefs `json:"prefs"`
	State         ConversationState `json:"state"`
	StagedEmail   string            `json:"stagedEmail,omitempty"` // partial wizard input
}

// BotConfig is the single process-wide configuration record. It is mutated
// only through admin-gated operations.
type BotConfig struct {
	Mode          OperationMode `json:"mode"`
	GroupMode     bool          `json:"groupMode"`
	PrimaryChatID int64         `json:"primaryChatID,omitempty"` // 0 means unset
	SharedToken   string        `json:"sharedToken,omitempty"`   // shared-mode admin credential
	AdminID       int64         `json:"adminID,omitempty"`       // bootstrap admin participant
}
