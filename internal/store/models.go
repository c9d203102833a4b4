package store

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type User struct {
	FullName   string    `json:"full_name"`
	Username   string    `json:"username"`
	Phone      string    `json:"phone,omitempty"`
	Credential string    `json:"-"` // Obfuscated, never exposed in responses
	Gender     string    `json:"gender,omitempty"`
	DOB        string    `json:"dob,omitempty"`
	Address    string    `json:"address,omitempty"`
	District   string    `json:"district,omitempty"`
	State      string    `json:"state,omitempty"`
	Country    string    `json:"country,omitempty"`
	Pincode    string    `json:"pincode,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID   string `json:"id"` // UUID, never reused within a transcript
	Role string `json:"role"`
	Text string `json:"text"`
	// Image is an inline data URL when the user attached a photo.
	Image string `json:"image,omitempty"`
}

type ChatSession struct {
	ID    string `json:"id"` // UUID, unique per owning user
	Title string `json:"title"`
	// Timestamp is unix milliseconds of the last mutation and the sole
	// sort key for recent-session listings.
	Timestamp int64         `json:"timestamp"`
	Messages  []ChatMessage `json:"messages"`
}

const (
	CategorySeeds       = "Seeds & Saplings"
	CategoryFertilizers = "Fertilizers & Pesticides"
	CategoryTools       = "Farming Tools"
	CategoryIrrigation  = "Irrigation Systems"
)

type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Price    int      `json:"price"` // INR
	Image    string   `json:"image"`
	Keywords []string `json:"keywords"`
}
