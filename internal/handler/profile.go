package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parkwise/internal/domain"
	"parkwise/internal/service"
)

// ProfileHandler handles HTTP requests for user profiles.
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// CreateProfileRequest is the HTTP request body for provisioning a
// starter profile.
type CreateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProfileRequest is the HTTP request body for replacing a profile.
type ProfileRequest struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	Vehicle         string  `json:"vehicle"`
	WalletBalance   float64 `json:"wallet_balance"`
	PrefersEV       bool    `json:"prefers_ev"`
	ProfileImageURL string  `json:"profile_image_url"`
	Status          string  `json:"status"`
	Language        string  `json:"language"`
	CarName         string  `json:"car_name"`
	CarType         string  `json:"car_type"`
	FuelType        string  `json:"fuel_type"`
	CarNumberPlate  string  `json:"car_number_plate"`
	DateOfBirth     string  `json:"date_of_birth"`
	Gender          string  `json:"gender"`
}

// ProfileResponse is the HTTP representation of a user profile.
type ProfileResponse struct {
	UserID            string  `json:"user_id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	Vehicle           string  `json:"vehicle"`
	WalletBalance     float64 `json:"wallet_balance"`
	PrefersEV         bool    `json:"prefers_ev"`
	ProfileImageURL   string  `json:"profile_image_url"`
	Status            string  `json:"status"`
	Language          string  `json:"language"`
	CarName           string  `json:"car_name"`
	CarType           string  `json:"car_type"`
	FuelType          string  `json:"fuel_type"`
	CarNumberPlate    string  `json:"car_number_plate"`
	DateOfBirth       string  `json:"date_of_birth"`
	Gender            string  `json:"gender"`
	CompletionPercent int     `json:"completion_percent"`
}

func profileResponse(p *domain.UserProfile) ProfileResponse {
	return ProfileResponse{
		UserID:            p.UserID,
		Name:              p.Name,
		Email:             p.Email,
		Phone:             p.Phone,
		Vehicle:           p.Vehicle,
		WalletBalance:     p.WalletBalance,
		PrefersEV:         p.PrefersEV,
		ProfileImageURL:   p.ProfileImageURL,
		Status:            p.Status,
		Language:          p.Language,
		CarName:           p.CarName,
		CarType:           p.CarType,
		FuelType:          p.FuelType,
		CarNumberPlate:    p.CarNumberPlate,
		DateOfBirth:       p.DateOfBirth,
		Gender:            p.Gender,
		CompletionPercent: p.CompletionPercent,
	}
}

// CreateProfile handles POST /v1/users/:id/profile
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	profile, err := h.profileService.CreateDefault(c.Request.Context(), c.Param("id"), req.Name, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, profileResponse(profile))
}

// GetProfile handles GET /v1/users/:id/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, profileResponse(profile))
}

// ReplaceProfile handles PUT /v1/users/:id/profile
func (h *ProfileHandler) ReplaceProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	profile, err := h.profileService.Replace(c.Request.Context(), &domain.UserProfile{
		UserID:          c.Param("id"),
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Vehicle:         req.Vehicle,
		WalletBalance:   req.WalletBalance,
		PrefersEV:       req.PrefersEV,
		ProfileImageURL: req.ProfileImageURL,
		Status:          req.Status,
		Language:        req.Language,
		CarName:         req.CarName,
		CarType:         req.CarType,
		FuelType:        req.FuelType,
		CarNumberPlate:  req.CarNumberPlate,
		DateOfBirth:     req.DateOfBirth,
		Gender:          req.Gender,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, profileResponse(profile))
}
