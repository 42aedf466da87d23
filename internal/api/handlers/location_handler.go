package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arogyalabs/bitebot/internal/location"
	"github.com/arogyalabs/bitebot/internal/utils"
)

type LocationHandler struct {
	finder *location.Finder
}

func NewLocationHandler(finder *location.Finder) *LocationHandler {
	return &LocationHandler{finder: finder}
}

type SearchFacilitiesRequest struct {
	Location string `json:"location" binding:"required"`
	RadiusKm int    `json:"radius_km"`
}

func (h *LocationHandler) SearchFacilities(c *gin.Context) {
	var req SearchFacilitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "LocationHandler.SearchFacilities", "location is required", err))
		return
	}

	res, err := h.finder.Search(c.Request.Context(), req.Location, req.RadiusKm)
	if err != nil {
		if utils.IsCode(err, utils.CodeNotFound) {
			// The frontend renders this body inline; the status still
			// reports the miss.
			c.JSON(http.StatusNotFound, gin.H{
				"success":    false,
				"error":      "Could not find the specified location. Please try a different location name.",
				"facilities": []location.Facility{},
			})
			return
		}
		writeError(c, err)
		return
	}

	body := gin.H{
		"success":     true,
		"location":    res.Location,
		"facilities":  res.Facilities,
		"total_found": res.TotalFound,
	}
	if res.Message != "" {
		body["message"] = res.Message
	}
	c.JSON(http.StatusOK, body)
}
