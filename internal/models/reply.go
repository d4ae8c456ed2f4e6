package models

// Reply is the post-processed answer returned by the chat endpoint.
type Reply struct {
	Answer string   `json:"answer"`
	Images []string `json:"images"`
	Places []string `json:"places"`
}
