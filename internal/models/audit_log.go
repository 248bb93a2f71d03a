package models

// AuditLog records operator actions such as manual leaderboard syncs.
type AuditLog struct {
	Base
	ActorID      string `gorm:"index" json:"actor_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
