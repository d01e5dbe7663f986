package highlight

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kifolio/backend/core"
	"github.com/kifolio/backend/core/media"
)

// MediaItem is one attached file referenced by URL from a Highlight.
// Kind and FileName are derived from the URL when a legacy record stored
// nothing but a URL; records created here always persist them.
type MediaItem struct {
	ID          string     `json:"id"`
	HighlightID string     `json:"-"`
	URL         string     `json:"url"`
	Kind        media.Kind `json:"kind"`
	FileName    string     `json:"file_name"`
	FileSize    int64      `json:"file_size"`
	Position    int        `json:"position"` // insertion order
}

// Highlight is a single dated record of a child's accomplishment.
type Highlight struct {
	ID          string      `json:"id"`
	PortfolioID string      `json:"portfolio_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Date        string      `json:"date"` // YYYY-MM-DD calendar date
	Category    string      `json:"category"`
	IsMilestone bool        `json:"is_milestone"`
	Media       []MediaItem `json:"media"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

// NewMediaItem describes one attachment on an incoming highlight. ContentType
// is the MIME type reported by the original upload event and is authoritative
// for kind classification when present.
type NewMediaItem struct {
	URL         string `json:"url" validate:"required,url"`
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size" validate:"omitempty,min=0"`
}

// NewHighlight contains information needed to create a new Highlight.
type NewHighlight struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description" validate:"omitempty,max=2000"`
	Date        string         `json:"date" validate:"required"`
	Category    string         `json:"category" validate:"omitempty,max=50"`
	IsMilestone bool           `json:"is_milestone"`
	Media       []NewMediaItem `json:"media" validate:"omitempty,dive"`
}

func (nh *NewHighlight) Validate(validate *validator.Validate) error {
	nh.Title = core.CleanString(nh.Title)
	nh.Description = core.CleanString(nh.Description)
	nh.Date = core.CleanString(nh.Date)
	nh.Category = core.CleanString(nh.Category, true /* lower */)

	if err := validate.Struct(nh); err != nil {
		return err
	}
	return core.ValidateDate(nh.Date)
}

// UpdateHighlight defines what information may be provided to modify an
// existing Highlight. A nil Media leaves attachments untouched; a non-nil
// (possibly empty) Media replaces them.
type UpdateHighlight struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Date        string         `json:"date"`
	Category    string         `json:"category" validate:"omitempty,max=50"`
	IsMilestone *bool          `json:"is_milestone"`
	Media       []NewMediaItem `json:"media" validate:"omitempty,dive"`
}

func (uh *UpdateHighlight) Validate(orig Highlight, validate *validator.Validate) error {
	if title := core.CleanString(uh.Title); title != "" {
		uh.Title = title
	} else {
		uh.Title = orig.Title
	}

	uh.Description = core.CleanString(uh.Description)
	if uh.Description == "" {
		uh.Description = orig.Description
	}

	if date := core.CleanString(uh.Date); date != "" {
		uh.Date = date
	} else {
		uh.Date = orig.Date
	}

	if cat := core.CleanString(uh.Category, true /* lower */); cat != "" {
		uh.Category = cat
	} else {
		uh.Category = orig.Category
	}

	if err := validate.Struct(uh); err != nil {
		return err
	}
	return core.ValidateDate(uh.Date)
}

type QueryFilter struct {
	PortfolioID string `query:"-"`
	Search      string `query:"search"`
	Category    string `query:"category"`
	IsMilestone *bool  `query:"is_milestone"`
	DateFrom    string `json:"date_from" query:"date_from" validate:"omitempty,dateymd"`
	DateTo      string `json:"date_to" query:"date_to" validate:"omitempty,dateymd"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.PortfolioID == "" && qf.Search == "" && qf.Category == "" && qf.IsMilestone == nil &&
		qf.DateFrom == "" && qf.DateTo == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
	qf.DateFrom = core.CleanString(qf.DateFrom)
	qf.DateTo = core.CleanString(qf.DateTo)
}

func (qf *QueryFilter) Validate(validate *validator.Validate) error {
	qf.Clean()
	return validate.Struct(qf)
}
