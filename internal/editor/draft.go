package editor

import (
	"fmt"
	"math"
	"portfolio-site/internal/constants"
	"portfolio-site/internal/models"
	"reflect"
	"slices"
	"time"

	"github.com/mitchellh/mapstructure"
	"gorm.io/datatypes"
)

// Kind is a content type tab of the editor
type Kind string

const (
	KindBlog    Kind = "blog"
	KindProject Kind = "project"
	KindCtf     Kind = "ctf"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindBlog, KindProject, KindCtf:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Draft is the editable field set of exactly one content type.
// Implemented by *BlogDraft, *ProjectDraft and *CtfDraft only.
type Draft interface {
	Kind() Kind
	// ImageField points at the field an uploaded image is written to
	ImageField() *string
	clone() Draft
}

// Tagged drafts carry a tag selection
type Tagged interface {
	Draft
	SelectedTags() []uint
	setSelectedTags(ids []uint)
}

var (
	_ Tagged = &BlogDraft{}
	_ Tagged = &ProjectDraft{}
	_ Draft  = &CtfDraft{}
)

type BlogDraft struct {
	Title           string    `json:"title" mapstructure:"title"`
	Slug            string    `json:"slug" mapstructure:"slug"`
	Content         string    `json:"content" mapstructure:"content"`
	Excerpt         string    `json:"excerpt" mapstructure:"excerpt"`
	Image           string    `json:"image" mapstructure:"image"`
	ReadTime        int       `json:"readTime" mapstructure:"readTime"`
	PublicationDate time.Time `json:"publicationDate,omitzero" mapstructure:"publicationDate"`
	TagIds          []uint    `json:"tagIds" mapstructure:"-"`
}

func (d *BlogDraft) Kind() Kind                  { return KindBlog }
func (d *BlogDraft) ImageField() *string         { return &d.Image }
func (d *BlogDraft) SelectedTags() []uint        { return d.TagIds }
func (d *BlogDraft) setSelectedTags(ids []uint) { d.TagIds = ids }

func (d *BlogDraft) clone() Draft {
	c := *d
	c.TagIds = slices.Clone(d.TagIds)
	return &c
}

// record builds the insert/update payload. A post without publication date is published now.
func (d *BlogDraft) record(now time.Time) models.Post {
	published := d.PublicationDate
	if published.IsZero() {
		published = now
	}
	return models.Post{
		Title:           d.Title,
		Slug:            d.Slug,
		Content:         d.Content,
		Excerpt:         d.Excerpt,
		Image:           d.Image,
		ReadTime:        d.ReadTime,
		PublicationDate: published,
	}
}

func blogDraftOf(p models.Post) *BlogDraft {
	return &BlogDraft{
		Title:           p.Title,
		Slug:            p.Slug,
		Content:         p.Content,
		Excerpt:         p.Excerpt,
		Image:           p.Image,
		ReadTime:        p.ReadTime,
		PublicationDate: p.PublicationDate,
		TagIds:          models.TagIds(p.Tags),
	}
}

type ProjectDraft struct {
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description" mapstructure:"description"`
	Image       string `json:"image" mapstructure:"image"`
	GithubLink  string `json:"githubLink" mapstructure:"githubLink"`
	IsFeatured  bool   `json:"isFeatured" mapstructure:"isFeatured"`
	TagIds      []uint `json:"tagIds" mapstructure:"-"`
}

func (d *ProjectDraft) Kind() Kind                 { return KindProject }
func (d *ProjectDraft) ImageField() *string        { return &d.Image }
func (d *ProjectDraft) SelectedTags() []uint       { return d.TagIds }
func (d *ProjectDraft) setSelectedTags(ids []uint) { d.TagIds = ids }

func (d *ProjectDraft) clone() Draft {
	c := *d
	c.TagIds = slices.Clone(d.TagIds)
	return &c
}

func (d *ProjectDraft) record() models.Project {
	return models.Project{
		Title:       d.Title,
		Description: d.Description,
		Image:       d.Image,
		GithubLink:  d.GithubLink,
		IsFeatured:  d.IsFeatured,
	}
}

func projectDraftOf(p models.Project) *ProjectDraft {
	return &ProjectDraft{
		Title:       p.Title,
		Description: p.Description,
		Image:       p.Image,
		GithubLink:  p.GithubLink,
		IsFeatured:  p.IsFeatured,
		TagIds:      models.TagIds(p.Tags),
	}
}

type CtfDraft struct {
	EventName string         `json:"eventName" mapstructure:"eventName"`
	Slug      string         `json:"slug" mapstructure:"slug"`
	EventDate datatypes.Date `json:"eventDate" mapstructure:"eventDate"`
	// TeamName is optional; empty is stored as NULL
	TeamName    string `json:"teamName" mapstructure:"teamName"`
	RankScore   string `json:"rankScore" mapstructure:"rankScore"`
	Description string `json:"description" mapstructure:"description"`
	Logo        string `json:"logo" mapstructure:"logo"`
	ProofLink   string `json:"proofLink" mapstructure:"proofLink"`
	IsFeatured  bool   `json:"isFeatured" mapstructure:"isFeatured"`
}

func (d *CtfDraft) Kind() Kind          { return KindCtf }
func (d *CtfDraft) ImageField() *string { return &d.Logo }

func (d *CtfDraft) clone() Draft {
	c := *d
	return &c
}

func (d *CtfDraft) record() models.Ctf {
	var teamName *string
	if len(d.TeamName) > 0 {
		teamName = &d.TeamName
	}
	return models.Ctf{
		EventName:   d.EventName,
		Slug:        d.Slug,
		EventDate:   d.EventDate,
		TeamName:    teamName,
		RankScore:   d.RankScore,
		Description: d.Description,
		Logo:        d.Logo,
		ProofLink:   d.ProofLink,
		IsFeatured:  d.IsFeatured,
	}
}

func ctfDraftOf(c models.Ctf) *CtfDraft {
	d := &CtfDraft{
		EventName:   c.EventName,
		Slug:        c.Slug,
		EventDate:   c.EventDate,
		RankScore:   c.RankScore,
		Description: c.Description,
		Logo:        c.Logo,
		ProofLink:   c.ProofLink,
		IsFeatured:  c.IsFeatured,
	}
	if c.TeamName != nil {
		d.TeamName = *c.TeamName
	}
	return d
}

// NewDraft returns a blank draft of the given kind
func NewDraft(kind Kind) (Draft, error) {
	switch kind {
	case KindBlog:
		return &BlogDraft{ReadTime: constants.DefaultReadTime, TagIds: []uint{}}, nil
	case KindProject:
		return &ProjectDraft{TagIds: []uint{}}, nil
	case KindCtf:
		return &CtfDraft{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// decodeFields decodes fields into a copy of d. Keys that are not fields of d's variant are rejected.
func decodeFields(d Draft, fields map[string]any) (Draft, error) {
	target := d.clone()
	var md mapstructure.Metadata

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			stringToDateHookFunc(),
			integralFloatHookFunc(),
		),
		Metadata: &md,
		Result:   target,
	})
	if err != nil {
		return nil, err
	}

	if err = decoder.Decode(fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	if len(md.Unused) > 0 {
		slices.Sort(md.Unused)
		return nil, fmt.Errorf("%w: %v not part of a %s draft", ErrUnknownField, md.Unused, d.Kind())
	}
	return target, nil
}

// stringToDateHookFunc parses calendar dates into datatypes.Date fields. Both 2006-01-02 and the
// RFC 3339 form a served draft carries are accepted; the time of day is dropped.
func stringToDateHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(datatypes.Date{}) {
			return data, nil
		}
		s := data.(string)
		if len(s) == 0 {
			return datatypes.Date{}, nil
		}
		parsed, err := time.Parse(time.DateOnly, s)
		if err != nil {
			withTime, rfcErr := time.Parse(time.RFC3339, s)
			if rfcErr != nil {
				return nil, err
			}
			parsed = time.Date(withTime.Year(), withTime.Month(), withTime.Day(), 0, 0, 0, 0, time.UTC)
		}
		return datatypes.Date(parsed), nil
	}
}

// integralFloatHookFunc rejects JSON numbers with a fraction for integer fields instead of truncating them
func integralFloatHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.Float32 && f.Kind() != reflect.Float64 {
			return data, nil
		}
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		default:
			return data, nil
		}
		value := reflect.ValueOf(data).Float()
		if value != math.Trunc(value) {
			return nil, fmt.Errorf("%v is not a whole number", value)
		}
		return data, nil
	}
}
