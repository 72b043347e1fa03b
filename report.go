package report

import (
	"fmt"
	"time"
)

// Report is a titled, timestamped wrapper around one root item. Reports are
// never modified; resolution produces a new Report.
type Report struct {
	title     string
	item      Item
	timestamp time.Time
}

// NewReport returns a Report stamped with the current time.
func NewReport(title string, item Item) (Report, error) {
	return NewReportAt(title, item, time.Now())
}

// NewReportAt returns a Report with an explicit timestamp. The title must be
// non-empty and every item in the tree must be well formed.
func NewReportAt(title string, item Item, timestamp time.Time) (Report, error) {
	if title == "" {
		return Report{}, fmt.Errorf("%w: report title must be non-empty", ErrValidation)
	}
	if err := validate(item); err != nil {
		return Report{}, err
	}
	return Report{title: title, item: item, timestamp: timestamp}, nil
}

// Title returns the report title.
func (r Report) Title() string { return r.title }

// Item returns the root item.
func (r Report) Item() Item { return r.item }

// Timestamp returns when the report was created.
func (r Report) Timestamp() time.Time { return r.timestamp }

func (r Report) withItem(item Item) Report {
	r.item = item
	return r
}
