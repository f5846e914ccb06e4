package docdex

import "time"

// Chat is one conversation.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one chat message. Assistant messages with task "analyse"
// carry a citation payload in Content and reference a chunk via ChunkID.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	ChunkID   string    `json:"chunk_id,omitempty"`
	Role      string    `json:"role"`
	Task      string    `json:"task"`
	Status    string    `json:"status"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is one indexed file.
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	FilePath    string    `json:"file_path"`
	FileType    string    `json:"file_type"`
	FileHash    string    `json:"file_hash"`
	TotalChunks int       `json:"total_chunks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
