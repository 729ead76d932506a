package project

import "time"

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Project aggregates a code artifact and its chat history. Code is always a
// complete single-file HTML document, never a fragment.
type Project struct {
	ID           string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	UserID       uint64    `gorm:"index;not null" json:"-"`
	Name         string    `gorm:"type:varchar(128);not null" json:"name"`
	Code         string    `gorm:"type:text;not null" json:"code"`
	TemplateID   *string   `gorm:"type:varchar(64)" json:"template_id,omitempty"`
	LastModified time.Time `gorm:"index;not null" json:"last_modified"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Project) TableName() string { return "projects" }

// ChatMessage is immutable once appended; insertion order is display order.
type ChatMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"message_id"`
	ProjectID string    `gorm:"type:varchar(26);index;not null" json:"project_id"`
	Role      string    `gorm:"type:varchar(16);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
