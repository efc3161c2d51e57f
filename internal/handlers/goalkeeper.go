package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/models"
	"github.com/OumaArera/goalkeepers-server-sub000/internal/utils"
)

// GoalkeeperHandler manages goalkeeper profiles and their stats.
type GoalkeeperHandler struct {
	db *gorm.DB
}

// NewGoalkeeperHandler constructs GoalkeeperHandler.
func NewGoalkeeperHandler(db *gorm.DB) *GoalkeeperHandler {
	return &GoalkeeperHandler{db: db}
}

type goalkeeperRequest struct {
	FirstName    string `json:"first_name" validate:"required"`
	MiddleName   string `json:"middle_name"`
	LastName     string `json:"last_name" validate:"required"`
	DateOfBirth  string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Nationality  string `json:"nationality"`
	HeightCM     int    `json:"height_cm" validate:"omitempty,gt=0"`
	WeightKG     int    `json:"weight_kg" validate:"omitempty,gt=0"`
	JerseyNumber int    `json:"jersey_number" validate:"omitempty,gte=1,lte=99"`
	CurrentClub  string `json:"current_club"`
	LeagueID     string `json:"league_id" validate:"omitempty,uuid4"`
	ImageURL     string `json:"image_url"`
	Bio          string `json:"bio"`
}

// CreateGoalkeeper registers a new goalkeeper profile.
func (h *GoalkeeperHandler) CreateGoalkeeper(c *fiber.Ctx) error {
	var req goalkeeperRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	goalkeeper := models.Goalkeeper{
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		Nationality:  req.Nationality,
		HeightCM:     req.HeightCM,
		WeightKG:     req.WeightKG,
		JerseyNumber: req.JerseyNumber,
		CurrentClub:  req.CurrentClub,
		ImageURL:     req.ImageURL,
		Bio:          req.Bio,
	}

	if req.DateOfBirth != "" {
		if dob, err := time.Parse("2006-01-02", req.DateOfBirth); err == nil {
			goalkeeper.DateOfBirth = &dob
		}
	}

	if req.LeagueID != "" {
		leagueID, err := uuid.Parse(req.LeagueID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid league_id")
		}
		var league models.League
		if err := h.db.First(&league, "id = ?", leagueID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "league not found")
			}
			return err
		}
		goalkeeper.LeagueID = &leagueID
	}

	if err := h.db.Create(&goalkeeper).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": goalkeeper})
}

// ListGoalkeepers returns paginated goalkeeper profiles.
func (h *GoalkeeperHandler) ListGoalkeepers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Goalkeeper{})

	if nationality := c.Query("nationality"); nationality != "" {
		query = query.Where("nationality = ?", nationality)
	}
	if club := c.Query("club"); club != "" {
		query = query.Where("current_club = ?", club)
	}
	if leagueID := c.Query("league_id"); leagueID != "" {
		if id, err := uuid.Parse(leagueID); err == nil {
			query = query.Where("league_id = ?", id)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var goalkeepers []models.Goalkeeper
	if err := query.Preload("League").Preload("Stats").
		Order("last_name asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&goalkeepers).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    goalkeepers,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetGoalkeeper returns a single goalkeeper with league and stats.
func (h *GoalkeeperHandler) GetGoalkeeper(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var goalkeeper models.Goalkeeper
	if err := h.db.Preload("League").Preload("Stats").
		First(&goalkeeper, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "goalkeeper not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": goalkeeper})
}

// UpdateGoalkeeper updates profile fields.
func (h *GoalkeeperHandler) UpdateGoalkeeper(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var goalkeeper models.Goalkeeper
	if err := h.db.First(&goalkeeper, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "goalkeeper not found")
		}
		return err
	}

	var req goalkeeperRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.FirstName != "" {
		updates["first_name"] = req.FirstName
	}
	if req.MiddleName != "" {
		updates["middle_name"] = req.MiddleName
	}
	if req.LastName != "" {
		updates["last_name"] = req.LastName
	}
	if req.DateOfBirth != "" {
		if dob, err := time.Parse("2006-01-02", req.DateOfBirth); err == nil {
			updates["date_of_birth"] = dob
		}
	}
	if req.Nationality != "" {
		updates["nationality"] = req.Nationality
	}
	if req.HeightCM > 0 {
		updates["height_cm"] = req.HeightCM
	}
	if req.WeightKG > 0 {
		updates["weight_kg"] = req.WeightKG
	}
	if req.JerseyNumber > 0 {
		updates["jersey_number"] = req.JerseyNumber
	}
	if req.CurrentClub != "" {
		updates["current_club"] = req.CurrentClub
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	if req.Bio != "" {
		updates["bio"] = req.Bio
	}
	if req.LeagueID != "" {
		if leagueID, err := uuid.Parse(req.LeagueID); err == nil {
			updates["league_id"] = leagueID
		}
	}

	if len(updates) > 0 {
		if err := h.db.Model(&goalkeeper).Updates(updates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": goalkeeper})
}

// DeleteGoalkeeper removes a goalkeeper and their stats.
func (h *GoalkeeperHandler) DeleteGoalkeeper(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	return h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.GoalkeeperStat{}, "goalkeeper_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Goalkeeper{}, "id = ?", id).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	})
}

type statsRequest struct {
	AerialReach   int `json:"aerial_reach" validate:"gte=0,lte=100"`
	CommandOfArea int `json:"command_of_area" validate:"gte=0,lte=100"`
	Communication int `json:"communication" validate:"gte=0,lte=100"`
	Distribution  int `json:"distribution" validate:"gte=0,lte=100"`
	Reflexes      int `json:"reflexes" validate:"gte=0,lte=100"`
	ShotStopping  int `json:"shot_stopping" validate:"gte=0,lte=100"`
	OneOnOnes     int `json:"one_on_ones" validate:"gte=0,lte=100"`
	Handling      int `json:"handling" validate:"gte=0,lte=100"`

	Appearances    int `json:"appearances" validate:"gte=0"`
	CleanSheets    int `json:"clean_sheets" validate:"gte=0"`
	GoalsConceded  int `json:"goals_conceded" validate:"gte=0"`
	Saves          int `json:"saves" validate:"gte=0"`
	PenaltiesSaved int `json:"penalties_saved" validate:"gte=0"`
}

// UpsertStats creates or replaces the stats row for a goalkeeper.
func (h *GoalkeeperHandler) UpsertStats(c *fiber.Ctx) error {
	goalkeeperID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var goalkeeper models.Goalkeeper
	if err := h.db.First(&goalkeeper, "id = ?", goalkeeperID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "goalkeeper not found")
		}
		return err
	}

	var req statsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := utils.ValidateStruct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	stats := models.GoalkeeperStat{
		GoalkeeperID:   goalkeeperID,
		AerialReach:    req.AerialReach,
		CommandOfArea:  req.CommandOfArea,
		Communication:  req.Communication,
		Distribution:   req.Distribution,
		Reflexes:       req.Reflexes,
		ShotStopping:   req.ShotStopping,
		OneOnOnes:      req.OneOnOnes,
		Handling:       req.Handling,
		Appearances:    req.Appearances,
		CleanSheets:    req.CleanSheets,
		GoalsConceded:  req.GoalsConceded,
		Saves:          req.Saves,
		PenaltiesSaved: req.PenaltiesSaved,
	}

	var existing models.GoalkeeperStat
	err = h.db.First(&existing, "goalkeeper_id = ?", goalkeeperID).Error
	switch {
	case err == nil:
		stats.ID = existing.ID
		if err := h.db.Model(&existing).Updates(&stats).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := h.db.Create(&stats).Error; err != nil {
			return err
		}
	default:
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": stats})
}

// GetStats returns the stats row for a goalkeeper.
func (h *GoalkeeperHandler) GetStats(c *fiber.Ctx) error {
	goalkeeperID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var stats models.GoalkeeperStat
	if err := h.db.First(&stats, "goalkeeper_id = ?", goalkeeperID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "stats not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": stats})
}
