package handler

import (
	"log"

	"github.com/gin-gonic/gin"

	"webasset/dto"
	"webasset/model"
	"webasset/utils"
)

// SiteLister is the read-only site surface the launcher UI needs.
type SiteLister interface {
	ListActive() ([]*model.BankingSite, error)
	FindByID(siteID string) (*model.BankingSite, error)
	FindByCode(code string) (*model.BankingSite, error)
}

// ListBankingSites returns the active banking sites available for launch.
func ListBankingSites(c *gin.Context, sites SiteLister) {
	active, err := sites.ListActive()
	if err != nil {
		log.Printf("Error listing banking sites: %v", err)
		utils.InternalError(c, "Failed to fetch banking sites")
		return
	}

	responses := make([]dto.BankingSiteResponse, 0, len(active))
	for _, site := range active {
		responses = append(responses, dto.ToBankingSiteResponse(site))
	}

	utils.Success(c, responses)
}

// GetBankingSite resolves one site by id, falling back to the short site
// code so dashboard links can use either.
func GetBankingSite(c *gin.Context, sites SiteLister) {
	ref := c.Param("id")
	if ref == "" {
		utils.BadRequest(c, "Missing site id")
		return
	}

	site, err := sites.FindByID(ref)
	if err == nil && site == nil {
		site, err = sites.FindByCode(ref)
	}
	if err != nil {
		log.Printf("Error fetching banking site %s: %v", ref, err)
		utils.InternalError(c, "Failed to fetch banking site")
		return
	}
	if site == nil || !site.IsActive {
		utils.NotFound(c, "Banking site not found")
		return
	}

	utils.Success(c, dto.ToBankingSiteResponse(site))
}
