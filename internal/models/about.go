package models

type About struct {
	Model
	FullName             string   `gorm:"not null" json:"fullName"`
	Bio                  string   `json:"bio"`
	ProfileImage         string   `json:"profileImage"`
	Resume               string   `json:"resume"`
	ExperienceYears      int      `json:"experienceYears"`
	VulnerabilitiesFound int      `json:"vulnerabilitiesFound"`
	Certifications       int      `json:"certifications"`
	CtfTeams             int      `json:"ctfTeams"`
	Socials              []Social `gorm:"foreignKey:AboutID" json:"socials"`
}

func (About) TableName() string {
	return "about"
}

type Social struct {
	Model
	AboutID      uint   `gorm:"not null;index" json:"-"`
	PlatformName string `gorm:"not null" json:"platformName"`
	URL          string `gorm:"not null" json:"url"`
}
