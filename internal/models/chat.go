package models

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// WelcomeMessageID is the id of the greeting every conversation starts with.
// It is shown to the user but never sent to the model.
const WelcomeMessageID = "init"

// ChatMessage is one entry of the assistant conversation log.
type ChatMessage struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Text string `json:"text"`
	// Failed marks both halves of an exchange whose model call failed. Failed
	// messages stay visible but are not replayed to the model.
	Failed bool `json:"failed,omitempty"`
}

// WelcomeMessage returns the default greeting.
func WelcomeMessage() ChatMessage {
	return ChatMessage{
		ID:   WelcomeMessageID,
		Role: RoleModel,
		Text: "Halo. Saya asisten HospitalSuite Enterprise. Ada yang bisa saya bantu terkait data pasien atau operasional hari ini?",
	}
}
