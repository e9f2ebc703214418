package ginserver

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path"

	gin "github.com/gin-gonic/gin"

	"staywise/internal/app/commands"
	"staywise/internal/app/dto"
	propertyapp "staywise/internal/app/handlers/properties"
	"staywise/internal/app/queries"
	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/money"
)

const maxImageSizeBytes int64 = 10 * 1024 * 1024

type PropertyHTTP interface {
	Catalog(c *gin.Context)
	Get(c *gin.Context)
	ListAll(c *gin.Context)
	Update(c *gin.Context)
	UploadImage(c *gin.Context)
}

// PropertyHandler wires property queries and admin commands to HTTP.
type PropertyHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// catalogRequest mirrors the public query string. Prices are major units.
type catalogRequest struct {
	Search   string   `form:"search"`
	Type     string   `form:"type" binding:"omitempty,propertytype"`
	MinPrice *float64 `form:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice *float64 `form:"maxPrice" binding:"omitempty,gte=0"`
	Capacity int      `form:"capacity" binding:"omitempty,gte=0"`
	City     string   `form:"city"`
	Page     int      `form:"page" binding:"omitempty,gte=1"`
	Limit    int      `form:"limit" binding:"omitempty,gte=1"`
}

func (r catalogRequest) filter() (domainproperties.Filter, error) {
	f := domainproperties.Filter{
		Search:      r.Search,
		Type:        domainproperties.Type(r.Type),
		MinCapacity: r.Capacity,
		City:        r.City,
		OnlyActive:  true,
		Page:        r.Page,
		Limit:       r.Limit,
	}
	if r.MinPrice != nil {
		m, err := money.FromMajor(*r.MinPrice)
		if err != nil {
			return f, err
		}
		f.MinPriceCents = m.Amount
	}
	if r.MaxPrice != nil {
		m, err := money.FromMajor(*r.MaxPrice)
		if err != nil {
			return f, err
		}
		f.MaxPriceCents = domainproperties.PriceBound(m.Amount)
	}
	return f, nil
}

type updatePropertyRequest struct {
	IsApproved *bool `json:"isApproved"`
	IsActive   *bool `json:"isActive"`
}

// Catalog responds with a filtered page of active properties.
func (h PropertyHandler) Catalog(c *gin.Context) {
	var req catalogRequest
	if !bindQuery(c, &req) {
		return
	}
	filter, err := req.filter()
	if err != nil {
		respondValidation(c, []fieldError{{Field: "price", Message: "is invalid"}})
		return
	}
	result, err := queries.Ask[propertyapp.SearchCatalogQuery, *dto.PropertyCatalog](c.Request.Context(), h.Queries, propertyapp.SearchCatalogQuery{Filter: filter})
	if err != nil {
		respondError(c, h.Logger, err, "Error fetching properties")
		return
	}
	respondData(c, http.StatusOK, "", result)
}

func (h PropertyHandler) Get(c *gin.Context) {
	result, err := queries.Ask[propertyapp.GetPropertyQuery, *dto.PropertyView](c.Request.Context(), h.Queries, propertyapp.GetPropertyQuery{ID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err, "Error fetching property")
		return
	}
	respondData(c, http.StatusOK, "", gin.H{"property": result})
}

func (h PropertyHandler) ListAll(c *gin.Context) {
	result, err := queries.Ask[propertyapp.ListPropertiesQuery, *dto.PropertyList](c.Request.Context(), h.Queries, propertyapp.ListPropertiesQuery{})
	if err != nil {
		respondError(c, h.Logger, err, "Error fetching all properties")
		return
	}
	respondData(c, http.StatusOK, "", result)
}

func (h PropertyHandler) Update(c *gin.Context) {
	var req updatePropertyRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := propertyapp.UpdatePropertyCommand{
		PropertyID: c.Param("id"),
		Approved:   req.IsApproved,
		Active:     req.IsActive,
	}
	result, err := commands.Dispatch[propertyapp.UpdatePropertyCommand, *dto.PropertyView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err, "Error updating property")
		return
	}
	respondData(c, http.StatusOK, "Property updated successfully", gin.H{"property": result})
}

// UploadImage stores the multipart "image" file and appends its URL to the
// property.
func (h PropertyHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondValidation(c, []fieldError{{Field: "image", Message: "is required"}})
		return
	}
	if fileHeader.Size <= 0 {
		respondValidation(c, []fieldError{{Field: "image", Message: "is empty"}})
		return
	}
	if fileHeader.Size > maxImageSizeBytes {
		respondValidation(c, []fieldError{{Field: "image", Message: fmt.Sprintf("must be at most %d MB", maxImageSizeBytes/1024/1024)}})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.Logger, err, "Error reading upload")
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if guessed := mime.TypeByExtension(path.Ext(fileHeader.Filename)); guessed != "" {
			contentType = guessed
		}
	}
	cmd := propertyapp.AttachImageCommand{
		PropertyID:  c.Param("id"),
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Body:        file,
	}
	result, err := commands.Dispatch[propertyapp.AttachImageCommand, *dto.PropertyView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err, "Error uploading image")
		return
	}
	respondData(c, http.StatusCreated, "Image uploaded successfully", gin.H{"property": result})
}

var _ PropertyHTTP = PropertyHandler{}
