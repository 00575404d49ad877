package models

import (
	"gorm.io/datatypes"
	"time"
)

type Tag struct {
	Model
	Name string `gorm:"not null;uniqueIndex" json:"name"`
	// IsCategory marks tags shown as navigation filter chips
	IsCategory bool `gorm:"not null;default:false" json:"isCategory"`
}

// Post is a blog article. Content holds the editor's HTML verbatim.
type Post struct {
	Model
	Title           string    `gorm:"not null" json:"title"`
	Slug            string    `gorm:"not null;uniqueIndex" json:"slug"`
	Content         string    `gorm:"not null" json:"content"`
	Excerpt         string    `json:"excerpt"`
	Image           string    `json:"image"`
	ReadTime        int       `gorm:"not null" json:"readTime"`
	PublicationDate time.Time `json:"publicationDate"`
	Tags            []Tag     `gorm:"many2many:blog_post_tags;joinForeignKey:BlogPostID;joinReferences:TagID" json:"tags"`
}

func (Post) TableName() string {
	return "blog_posts"
}

type PostTag struct {
	BlogPostID uint `gorm:"primaryKey" json:"blogPostId"`
	TagID      uint `gorm:"primaryKey" json:"tagId"`
}

func (PostTag) TableName() string {
	return "blog_post_tags"
}

type Project struct {
	Model
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	GithubLink  string `json:"githubLink"`
	IsFeatured  bool   `gorm:"not null;default:false" json:"isFeatured"`
	Tags        []Tag  `gorm:"many2many:project_tags;joinForeignKey:ProjectID;joinReferences:TagID" json:"tags"`
}

type ProjectTag struct {
	ProjectID uint `gorm:"primaryKey" json:"projectId"`
	TagID     uint `gorm:"primaryKey" json:"tagId"`
}

func (ProjectTag) TableName() string {
	return "project_tags"
}

// Ctf is a competition log entry
type Ctf struct {
	Model
	EventName   string         `gorm:"not null" json:"eventName"`
	Slug        string         `gorm:"not null;uniqueIndex" json:"slug"`
	EventDate   datatypes.Date `json:"eventDate"`
	TeamName    *string        `json:"teamName"`
	RankScore   string         `json:"rankScore"`
	Description string         `json:"description"`
	Logo        string         `json:"logo"`
	ProofLink   string         `json:"proofLink"`
	IsFeatured  bool           `gorm:"not null;default:false" json:"isFeatured"`
}

// TagNames returns the names of the given tags in order
func TagNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

// TagIds returns the ids of the given tags in order
func TagIds(tags []Tag) []uint {
	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}
