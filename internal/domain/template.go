package domain

// Template is an immutable named page skeleton. Its Content, Styles and
// Scripts may carry placeholder tokens ({{website_name}}, {{year}}, {{url}},
// {{description}}) that are substituted at export time.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Content     string `json:"content"`
	Styles      string `json:"styles,omitempty"`
	Scripts     string `json:"scripts,omitempty"`
}
