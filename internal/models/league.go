package models

type League struct {
	BaseModel
	Name        string       `gorm:"uniqueIndex" json:"name"`
	Country     string       `json:"country"`
	Level       int          `json:"level"`
	LogoURL     string       `json:"logo_url"`
	Goalkeepers []Goalkeeper `json:"goalkeepers,omitempty"`
}

type Partner struct {
	BaseModel
	Name        string `gorm:"uniqueIndex" json:"name"`
	Description string `json:"description"`
	Website     string `json:"website"`
	LogoURL     string `json:"logo_url"`
	IsActive    bool   `json:"is_active"`
}
