package library

// Event topics emitted by the library module.
const (
	TopicMaterialPublished = "library.material_published"
)

// MaterialEvent is the payload for material lifecycle events.
type MaterialEvent struct {
	MaterialID string `json:"material_id"`
	Title      string `json:"title"`
	Subject    string `json:"subject"`
	Level      string `json:"level,omitempty"`
	AuthorID   string `json:"author_id"`
}
