package model

// Attachment is a single file carried by an Email.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Email is the transport-neutral message handed to a mailer.
type Email struct {
	From        string
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}
