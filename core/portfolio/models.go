package portfolio

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kifolio/backend/core"
)

// Templates
const (
	TemplateClassic    = "classic"
	TemplateModern     = "modern"
	TemplateMinimalist = "minimalist"
)

var Templates = []string{TemplateClassic, TemplateModern, TemplateMinimalist}

type Portfolio struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ChildName string    `json:"child_name"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Template  string    `json:"template"`
	IsPublic  *bool     `json:"is_public"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (p *Portfolio) SetPublic(public bool) {
	p.IsPublic = &public
}

func (p *Portfolio) Public() bool {
	return p.IsPublic != nil && *p.IsPublic
}

// NewPortfolio contains information needed to create a new Portfolio.
type NewPortfolio struct {
	ChildName string `json:"child_name" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Template  string `json:"template" validate:"omitempty,pftemplate"`
	IsPublic  *bool  `json:"is_public"`
}

func (np *NewPortfolio) Validate(validate *validator.Validate) error {
	np.ChildName = core.CleanString(np.ChildName)
	np.Title = core.CleanString(np.Title)
	np.Template = core.CleanString(np.Template, true /* lower */)
	return validate.Struct(np)
}

// UpdatePortfolio defines what information may be provided to modify an existing Portfolio.
type UpdatePortfolio struct {
	ChildName string `json:"child_name"`
	Title     string `json:"title"`
	Template  string `json:"template" validate:"omitempty,pftemplate"`
	IsPublic  *bool  `json:"is_public"`
}

func (up *UpdatePortfolio) Validate(orig Portfolio, validate *validator.Validate) error {
	if name := core.CleanString(up.ChildName); name != "" {
		up.ChildName = name
	} else {
		up.ChildName = orig.ChildName
	}

	if title := core.CleanString(up.Title); title != "" {
		up.Title = title
	} else {
		up.Title = orig.Title
	}

	if tmpl := core.CleanString(up.Template, true /* lower */); tmpl != "" {
		up.Template = tmpl
	} else {
		up.Template = orig.Template
	}

	return validate.Struct(up)
}

type QueryFilter struct {
	OwnerID     string    `query:"-"`
	Search      string    `query:"search"`
	Template    string    `query:"template"`
	IsPublic    *bool     `query:"is_public"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.OwnerID == "" && qf.Search == "" && qf.Template == "" && qf.IsPublic == nil &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Template = core.CleanString(qf.Template, true /* lower */)
}

// GetFilter selects a single Portfolio; fields are tried in declaration order.
type GetFilter struct {
	ID   string
	Slug string
}
