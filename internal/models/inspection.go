package models

// InspectionRecord is a submitted inspection as persisted. RowJSON holds the flattened row with its columns in order.
type InspectionRecord struct {
	ID          int64  `db:"id"`
	SubmittedAt string `db:"submitted_at"`
	Sector      string `db:"sector"`
	Process     string `db:"process"`
	RowJSON     string `db:"row_json"`
	Created     string `db:"created"`
}

// Attachment is a stored evidence file.
type Attachment struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	ContentType string `db:"content_type"`
	Size        int64  `db:"size"`
	Content     []byte `db:"content"`
	Created     string `db:"created"`
}
