package domain

import "time"

// MessageRole distinguishes who authored a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// MessageTask tags what kind of work produced a message.
type MessageTask string

const (
	TaskChat      MessageTask = "chat"
	TaskSummarize MessageTask = "summarize"
	TaskAnalyse   MessageTask = "analyse"
)

// MessageStatus tracks the processing lifecycle of a message.
type MessageStatus string

const (
	StatusPending    MessageStatus = "pending"
	StatusInProgress MessageStatus = "in_progress"
	StatusCompleted  MessageStatus = "completed"
	StatusFailed     MessageStatus = "failed"
)

// Chat is a conversation thread.
type Chat struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one entry in a chat ledger. ChunkID is set only on citation
// audit messages and does not affect chunk lifecycle.
type Message struct {
	ID        string
	ChatID    string
	ChunkID   string
	Role      MessageRole
	Task      MessageTask
	Status    MessageStatus
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
