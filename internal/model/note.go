package model

import "time"

// Note represents shared study material, optionally backed by one stored PDF.
// FilePath holds the storage object key ("notes/<name>") or is empty when the
// note has no attachment. At most one stored file is referenced at a time.
type Note struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Subject   string      `json:"subject"`
	Topics    []string    `json:"topics"`
	FilePath  string      `json:"file_path,omitempty"`
	Stars     int         `json:"stars"`
	UserID    string      `json:"user_id"`
	Author    *NoteAuthor `json:"author,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NoteAuthor is the subset of the owning user joined into note reads.
type NoteAuthor struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	College   string `json:"college"`
	PhotoPath string `json:"photo_path,omitempty"`
}

// HasFile reports whether the note currently references a stored file.
func (n *Note) HasFile() bool { return n.FilePath != "" }
