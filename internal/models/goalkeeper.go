package models

import (
	"time"

	"github.com/google/uuid"
)

// Goalkeeper is a registered goalkeeper profile.
type Goalkeeper struct {
	BaseModel
	FirstName    string          `json:"first_name"`
	MiddleName   string          `json:"middle_name"`
	LastName     string          `json:"last_name"`
	DateOfBirth  *time.Time      `json:"date_of_birth"`
	Nationality  string          `json:"nationality"`
	HeightCM     int             `json:"height_cm"`
	WeightKG     int             `json:"weight_kg"`
	JerseyNumber int             `json:"jersey_number"`
	CurrentClub  string          `json:"current_club"`
	LeagueID     *uuid.UUID      `gorm:"type:uuid;index" json:"league_id"`
	League       *League         `json:"league,omitempty"`
	ImageURL     string          `json:"image_url"`
	Bio          string          `json:"bio"`
	Stats        *GoalkeeperStat `json:"stats,omitempty"`
}

// GoalkeeperStat holds per-skill ratings and season tallies for one goalkeeper.
type GoalkeeperStat struct {
	BaseModel
	GoalkeeperID uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"goalkeeper_id"`

	// Skill ratings, 0-100.
	AerialReach   int `json:"aerial_reach"`
	CommandOfArea int `json:"command_of_area"`
	Communication int `json:"communication"`
	Distribution  int `json:"distribution"`
	Reflexes      int `json:"reflexes"`
	ShotStopping  int `json:"shot_stopping"`
	OneOnOnes     int `json:"one_on_ones"`
	Handling      int `json:"handling"`

	// Season tallies.
	Appearances    int `json:"appearances"`
	CleanSheets    int `json:"clean_sheets"`
	GoalsConceded  int `json:"goals_conceded"`
	Saves          int `json:"saves"`
	PenaltiesSaved int `json:"penalties_saved"`
}
