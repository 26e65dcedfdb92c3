package form

import (
	"maps"
	"time"
)

// Attachment is an evidence file. Content is held only while the attachment is pending, that is until the storage
// adapter has returned a StorageID for it.
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
	StorageID   string
	Content     []byte
}

func (a Attachment) Pending() bool {
	return a.StorageID == ""
}

// Names lists the attachment names in upload order.
func Names(files []Attachment) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// Answers stores the responses of one process form keyed by field label. It performs no validation.
type Answers struct {
	Responses   map[string]Value
	Attachments map[string][]Attachment
}

func (a *Answers) Set(label string, v Value) {
	if a.Responses == nil {
		a.Responses = make(map[string]Value)
	}
	a.Responses[label] = v
}

// Get returns the response stored under label.
func (a *Answers) Get(label string) (Value, bool) {
	v, ok := a.Responses[label]
	return v, ok
}

// Delete removes a response.
func (a *Answers) Delete(label string) {
	delete(a.Responses, label)
}

// SetAttachments replaces the attachments of label. An empty list removes the entry.
func (a *Answers) SetAttachments(label string, files []Attachment) {
	if len(files) == 0 {
		delete(a.Attachments, label)
		return
	}
	if a.Attachments == nil {
		a.Attachments = make(map[string][]Attachment)
	}
	a.Attachments[label] = append([]Attachment(nil), files...)
}

func (a *Answers) AttachmentsOf(label string) []Attachment {
	return a.Attachments[label]
}

// Reset empties the store.
func (a *Answers) Reset() {
	a.Responses = nil
	a.Attachments = nil
}

// IsEmpty reports whether nothing has been answered.
func (a *Answers) IsEmpty() bool {
	return len(a.Responses) == 0 && len(a.Attachments) == 0
}

// Clone copies the maps and lists. Attachment content is shared.
func (a *Answers) Clone() Answers {
	c := Answers{
		Responses:   maps.Clone(a.Responses),
		Attachments: nil,
	}
	for label, v := range c.Responses {
		if v.Kind == KindList {
			c.Responses[label] = List(v.List)
		}
	}
	if a.Attachments != nil {
		c.Attachments = make(map[string][]Attachment, len(a.Attachments))
		for label, files := range a.Attachments {
			c.Attachments[label] = append([]Attachment(nil), files...)
		}
	}
	return c
}

// LiveFields holds the preparation date and category of the solutions process. They are kept apart from [Answers]
// because they are edited outside the form and the computed expiry follows them immediately.
type LiveFields struct {
	// PreparationDate uses validity.DateLayout.
	PreparationDate string
	Category        string
}

// Record is one inspection: the basic information, the selected process and its answers.
type Record struct {
	// BasicInfo is keyed by initial field key.
	BasicInfo   map[string]string
	SectorKey   string
	SectorName  string
	ProcessKey  string
	ProcessName string
	Answers     Answers
	SubmittedAt time.Time
}

func (r *Record) Clone() Record {
	c := *r
	c.BasicInfo = maps.Clone(r.BasicInfo)
	c.Answers = r.Answers.Clone()
	return c
}
