package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-image-optimizer/internal/domain"
)

const MAX_BATCH_SIZE = 100

// ResolveURLQueryParams holds query parameters for GET /images/url
type ResolveURLQueryParams struct {
	BaseFile string `form:"base_file" binding:"required"`
	Subdir   string `form:"subdir" binding:"required"`
	Width    int    `form:"width,default=0" binding:"min=0"`
	Height   int    `form:"height,default=0" binding:"min=0"`
	Quality  int    `form:"quality,default=0" binding:"min=0,max=100"`
	StoreID  int    `form:"store_id,default=0" binding:"min=0"`
}

// ParseResolveURLQuery parses query parameters for GET /images/url
func ParseResolveURLQuery(c *gin.Context) (*ResolveURLQueryParams, error) {
	var params ResolveURLQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	return &params, nil
}

// Image converts the query to the domain image
func (p ResolveURLQueryParams) Image() domain.Image {
	return domain.Image{
		BaseFile:          p.BaseFile,
		DestinationSubdir: p.Subdir,
		Width:             p.Width,
		Height:            p.Height,
		Quality:           p.Quality,
		StoreID:           p.StoreID,
	}
}
