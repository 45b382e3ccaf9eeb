package handlers

import (
	"net/http"

	"github.com/arnavshah/roster-api-go/pkg/candidates"
	"github.com/arnavshah/roster-api-go/pkg/exclusions"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/gin-gonic/gin"
)

// ValidateInput checks whether a candidate pool and its exclusions could produce a roster
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.RosterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.ValidateResponse{
			Valid:    false,
			Problems: []string{err.Error()},
		})
		return
	}

	s := h.newScheduler(input)
	problems := candidates.Validate(input.Candidates, s.PrimaryRoles)
	if err := checkLayout(s); err != nil {
		problems = append(problems, err.Error())
	}
	if err := candidates.CheckNames(input.Candidates); err != nil {
		problems = append(problems, err.Error())
	}
	if err := exclusions.Validate(input.Exclusions, s.Roles()); err != nil {
		problems = append(problems, err.Error())
	}
	if input.Weeks < 0 || input.Weeks > h.Config.MaxWeeks {
		problems = append(problems, "weeks is out of range")
	}

	c.JSON(http.StatusOK, models.ValidateResponse{
		Valid:    len(problems) == 0,
		Problems: problems,
		Roles:    len(input.Candidates),
		People:   candidates.People(input.Candidates),
	})
}
