package email

// TextConverter converts simplified Chinese text to traditional.
// External collaborator; the D party's replies (B6/C9) are written in
// traditional characters.
type TextConverter interface {
	ToTraditional(text string) string
}

// PassthroughConverter returns its input unchanged. Used when no
// conversion backend is wired.
type PassthroughConverter struct{}

// ToTraditional implements TextConverter.
func (PassthroughConverter) ToTraditional(text string) string {
	return text
}
