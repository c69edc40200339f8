package models

// Ticket domain models

// Ticket represents a support ticket fetched from the tracker.
type Ticket struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	URL              string   `json:"url"`
	Description      string   `json:"description"`
	Status           string   `json:"status"`
	StatusType       string   `json:"status_type"`
	IsCompleted      bool     `json:"is_completed"`
	Customer         string   `json:"customer"`
	Owner            string   `json:"owner"`
	Date             string   `json:"date"`
	CreatedTime      string   `json:"created_time"`
	DateClosed       string   `json:"date_closed,omitempty"`
	TimeToResolution string   `json:"time_to_resolution,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

// TicketDetail is the full task record used for analysis: the base ticket
// plus comments, assignees and attachments.
type TicketDetail struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Status        string       `json:"status"`
	Assignees     []Assignee   `json:"assignees"`
	Comments      []Comment    `json:"comments"`
	Attachments   []Attachment `json:"attachments"`
	ChatThreadURL string       `json:"chat_thread_url,omitempty"`
}

// Assignee is a person assigned to a ticket.
type Assignee struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Comment is a single ticket comment with its text already flattened
// from the tracker's nested block structure.
type Comment struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Author   string `json:"author"`
	Date     string `json:"date"`
	Resolved bool   `json:"resolved"`
	ChatURL  string `json:"chat_url,omitempty"`
}

// Attachment is a file attached to a ticket.
type Attachment struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	Date         string `json:"date"`
	IsImage      bool   `json:"is_image"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Chat domain models

// ChatThread holds everything pulled from a linked chat thread. A ticket
// with no linked thread yields the empty shape with Found=false; all
// slices are always non-nil.
type ChatThread struct {
	Found            bool          `json:"found"`
	Messages         []string      `json:"messages"`
	Images           []ChatFile    `json:"images"`
	ErrorScreenshots []ChatFile    `json:"error_screenshots"`
	Files            []ChatFile    `json:"files"`
	ConsoleLinks     []ConsoleLink `json:"console_links"`
	CodeSnippets     []CodeSnippet `json:"code_snippets"`
}

// EmptyChatThread returns a ChatThread with all collections initialized.
func EmptyChatThread() ChatThread {
	return ChatThread{
		Messages:         []string{},
		Images:           []ChatFile{},
		ErrorScreenshots: []ChatFile{},
		Files:            []ChatFile{},
		ConsoleLinks:     []ConsoleLink{},
		CodeSnippets:     []CodeSnippet{},
	}
}

// ChatFile is an image or file shared in a chat thread.
type ChatFile struct {
	Title     string `json:"title"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	ThumbURL  string `json:"thumb_url"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
	Size      int64  `json:"size"`
	Type      string `json:"type"`
}

// CodeSnippet is a preformatted code block shared in a chat thread.
type CodeSnippet struct {
	Code      string `json:"code"`
	Language  string `json:"language"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
}

// Extracted facts

// CodeBlock is a block of code or terminal transcript found in a text source.
type CodeBlock struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Source   string `json:"source"`
	User     string `json:"user,omitempty"`
}

// Command is a single CLI invocation found in a text source.
type Command struct {
	Command string `json:"command"`
	Source  string `json:"source"`
}

// ErrorMessage is an error line found in a text source.
type ErrorMessage struct {
	Error  string `json:"error"`
	Source string `json:"source"`
}

// Configuration is a pretty-printed config literal found in a text source.
type Configuration struct {
	Config string `json:"config"`
	Type   string `json:"type"`
	Source string `json:"source"`
}

// ConsoleLink is a console/dashboard URL with surrounding context.
type ConsoleLink struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	Source  string `json:"source"`
	Context string `json:"context,omitempty"`
}

// ExtractedContent is the de-duplicated bag of technical facts pulled from
// all text sources of one ticket.
type ExtractedContent struct {
	CodeBlocks     []CodeBlock     `json:"code_blocks"`
	Commands       []Command       `json:"commands"`
	ErrorMessages  []ErrorMessage  `json:"error_messages"`
	Configurations []Configuration `json:"configurations"`
	ConsoleLinks   []ConsoleLink   `json:"console_links"`
}

// NewExtractedContent returns an ExtractedContent with all slices initialized.
func NewExtractedContent() *ExtractedContent {
	return &ExtractedContent{
		CodeBlocks:     []CodeBlock{},
		Commands:       []Command{},
		ErrorMessages:  []ErrorMessage{},
		Configurations: []Configuration{},
		ConsoleLinks:   []ConsoleLink{},
	}
}

// Media

// MediaItem is a displayable artifact attached to an RCA record.
type MediaItem struct {
	URL       string `json:"url"`
	ThumbURL  string `json:"thumb_url,omitempty"`
	Title     string `json:"title"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp,omitempty"`
}

// MediaBag groups all media collected for one ticket by category.
// All five slices are always non-nil.
type MediaBag struct {
	Images           []MediaItem   `json:"images"`
	ErrorScreenshots []MediaItem   `json:"error_screenshots"`
	ConsoleLinks     []ConsoleLink `json:"console_links"`
	Attachments      []MediaItem   `json:"attachments"`
	Files            []MediaItem   `json:"files"`
}

// NewMediaBag returns a MediaBag with all slices initialized.
func NewMediaBag() MediaBag {
	return MediaBag{
		Images:           []MediaItem{},
		ErrorScreenshots: []MediaItem{},
		ConsoleLinks:     []ConsoleLink{},
		Attachments:      []MediaItem{},
		Files:            []MediaItem{},
	}
}

// RCARecord is the synthesized root-cause-analysis for one ticket. Every
// field is always populated: the narrative fields carry explicit
// "not documented" placeholders when no evidence exists, and
// SupportingMedia always contains all five categories.
type RCARecord struct {
	Summary         string   `json:"summary"`
	DebugSteps      string   `json:"debug_steps"`
	ResolutionSteps string   `json:"resolution_steps"`
	RootCause       string   `json:"root_cause"`
	SupportingMedia MediaBag `json:"supporting_media"`
}
