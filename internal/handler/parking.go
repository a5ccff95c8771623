package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parkwise/internal/domain"
	"parkwise/internal/service"
)

// ParkingHandler handles HTTP requests for areas and slots.
type ParkingHandler struct {
	catalog        *service.AreaCatalog
	ledger         *service.SlotLedger
	bookingService *service.BookingService
}

// NewParkingHandler creates a new ParkingHandler.
func NewParkingHandler(catalog *service.AreaCatalog, ledger *service.SlotLedger, bookingService *service.BookingService) *ParkingHandler {
	return &ParkingHandler{
		catalog:        catalog,
		ledger:         ledger,
		bookingService: bookingService,
	}
}

// AreaResponse is the HTTP representation of a parking area.
type AreaResponse struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Address         string   `json:"address"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	TotalSlots      int      `json:"total_slots"`
	AvailableSlots  int      `json:"available_slots"`
	EVSlots         int      `json:"ev_slots"`
	AvailableEV     int      `json:"available_ev_slots"`
	PricePerHour    float64  `json:"price_per_hour"`
	Rating          float64  `json:"rating"`
	Hours           string   `json:"hours"`
	Amenities       []string `json:"amenities"`
	DistanceMeters  float64  `json:"distance_meters,omitempty"`
	DurationSeconds float64  `json:"duration_seconds,omitempty"`
	// ByRoute reports whether distance and duration came from a road
	// routing lookup rather than straight-line geometry.
	ByRoute bool `json:"by_route"`
}

// SlotResponse is the HTTP representation of a parking slot.
type SlotResponse struct {
	ID              int     `json:"id"`
	AreaID          int     `json:"area_id"`
	Number          string  `json:"number"`
	HasCharger      bool    `json:"has_charger"`
	ChargerType     string  `json:"charger_type,omitempty"`
	ChargingSpeedKW float64 `json:"charging_speed_kw,omitempty"`
	Status          string  `json:"status"`
}

// QuoteRequest is the HTTP request body for pricing a stay.
type QuoteRequest struct {
	DurationHours float64 `json:"duration_hours"`
}

// QuoteResponse is the HTTP response for pricing a stay.
type QuoteResponse struct {
	AreaID        int     `json:"area_id"`
	DurationHours float64 `json:"duration_hours"`
	Price         float64 `json:"price"`
}

func areaResponse(area domain.ParkingArea) AreaResponse {
	return AreaResponse{
		ID:             area.ID,
		Name:           area.Name,
		Address:        area.Address,
		Latitude:       area.Latitude,
		Longitude:      area.Longitude,
		TotalSlots:     area.TotalSlots,
		AvailableSlots: area.AvailableSlots,
		EVSlots:        area.EVSlots,
		AvailableEV:    area.EVSlots - area.OccupiedEVSlots,
		PricePerHour:   area.PricePerHour,
		Rating:         area.Rating,
		Hours:          area.Hours,
		Amenities:      area.Amenities,
	}
}

// Nearby handles GET /v1/parking/nearby?lat&lon&limit[&by=route]
func (h *ParkingHandler) Nearby(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lon are required"})
		return
	}

	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	var (
		ranked []service.AreaDistance
		err    error
	)
	if c.Query("by") == "route" {
		ranked, err = h.catalog.NearestByRoute(c.Request.Context(), lat, lon, limit)
	} else {
		ranked, err = h.catalog.Nearest(c.Request.Context(), lat, lon, limit)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]AreaResponse, 0, len(ranked))
	for _, entry := range ranked {
		resp := areaResponse(entry.Area)
		resp.DistanceMeters = entry.DistanceMeters
		resp.DurationSeconds = entry.DurationSeconds
		resp.ByRoute = entry.ByRoute
		out = append(out, resp)
	}

	respondJSON(c, http.StatusOK, out)
}

// GetArea handles GET /v1/parking/:areaId
func (h *ParkingHandler) GetArea(c *gin.Context) {
	areaID, err := strconv.Atoi(c.Param("areaId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid area id"})
		return
	}

	area, err := h.catalog.Get(areaID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, areaResponse(area))
}

// ListSlots handles GET /v1/parking/:areaId/slots
func (h *ParkingHandler) ListSlots(c *gin.Context) {
	areaID, err := strconv.Atoi(c.Param("areaId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid area id"})
		return
	}

	if _, err := h.catalog.Get(areaID); err != nil {
		respondError(c, err)
		return
	}

	slots := h.ledger.SlotsByArea(areaID)
	out := make([]SlotResponse, 0, len(slots))
	for _, slot := range slots {
		out = append(out, SlotResponse{
			ID:              slot.ID,
			AreaID:          slot.AreaID,
			Number:          slot.Number,
			HasCharger:      slot.HasCharger,
			ChargerType:     slot.ChargerType,
			ChargingSpeedKW: slot.ChargingSpeedKW,
			Status:          string(slot.Status),
		})
	}

	respondJSON(c, http.StatusOK, out)
}

// Quote handles POST /v1/parking/:areaId/quote
func (h *ParkingHandler) Quote(c *gin.Context) {
	areaID, err := strconv.Atoi(c.Param("areaId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid area id"})
		return
	}

	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	price, err := h.bookingService.Quote(c.Request.Context(), areaID, req.DurationHours)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, QuoteResponse{
		AreaID:        areaID,
		DurationHours: req.DurationHours,
		Price:         price,
	})
}
