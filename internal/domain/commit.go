package domain

import "strings"

// Commit is a single entry of the changelog commit list.
type Commit struct {
	Hash    string
	Subject string
}

// ShortHash returns the abbreviated hash used in changelog entries.
func (c Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// SubjectLine returns the first line of a commit message.
func SubjectLine(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return strings.TrimSpace(line)
}
