package ginserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"unimate/internal/app/commands"
	"unimate/internal/app/dto"
	listingsapp "unimate/internal/app/handlers/listings"
	"unimate/internal/app/queries"
	"unimate/internal/domain/discovery"
	"unimate/internal/domain/shared/money"
)

// multipartMemory bounds the in-memory part of a parsed upload form; the
// remainder spills to temp files.
const multipartMemory = 32 << 20

type ListingHTTP interface {
	Categories(c *gin.Context)
	Marketplace(c *gin.Context)
	Get(c *gin.Context)
	Related(c *gin.Context)
	Mine(c *gin.Context)
	BySeller(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	AddMedia(c *gin.Context)
	RemoveMedia(c *gin.Context)
	SetPrimaryImage(c *gin.Context)
}

// ListingHandler wires listing commands and queries to HTTP.
type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type listingRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Currency    string            `json:"currency"`
	Condition   string            `json:"condition"`
	Negotiable  bool              `json:"negotiable"`
	Location    string            `json:"location"`
	CategoryID  string            `json:"category_id"`
	Attributes  map[string]string `json:"attributes"`
	Stock       *int              `json:"stock"`
	InStock     *bool             `json:"in_stock"`
}

func (r listingRequest) payload() listingsapp.ListingPayload {
	return listingsapp.ListingPayload{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Currency:    r.Currency,
		Condition:   r.Condition,
		Negotiable:  r.Negotiable,
		Location:    r.Location,
		CategoryID:  r.CategoryID,
		Attributes:  r.Attributes,
		Stock:       r.Stock,
		InStock:     r.InStock,
	}
}

func (h ListingHandler) Categories(c *gin.Context) {
	if !h.queriesReady(c) {
		return
	}
	result, err := queries.Ask[listingsapp.ListCategoriesQuery, []dto.Category](c.Request.Context(), h.Queries, listingsapp.ListCategoriesQuery{})
	if err != nil {
		respondError(c, h.Logger, "list categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": result})
}

// Marketplace responds with active listings narrowed by the facet query.
func (h ListingHandler) Marketplace(c *gin.Context) {
	if !h.queriesReady(c) {
		return
	}
	filter, err := parseMarketplaceFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := queries.Ask[listingsapp.MarketplaceQuery, dto.Marketplace](c.Request.Context(), h.Queries, listingsapp.MarketplaceQuery{Filter: filter})
	if err != nil {
		respondError(c, h.Logger, "marketplace", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	if !h.queriesReady(c) {
		return
	}
	listingID, ok := requireParam(c, "id", "listing id is required")
	if !ok {
		return
	}
	result, err := queries.Ask[listingsapp.GetListingQuery, dto.Listing](c.Request.Context(), h.Queries, listingsapp.GetListingQuery{ListingID: listingID})
	if err != nil {
		respondError(c, h.Logger, "get listing", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Related(c *gin.Context) {
	if !h.queriesReady(c) {
		return
	}
	listingID, ok := requireParam(c, "id", "listing id is required")
	if !ok {
		return
	}
	result, err := queries.Ask[listingsapp.RelatedListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, listingsapp.RelatedListingsQuery{ListingID: listingID})
	if err != nil {
		respondError(c, h.Logger, "related listings", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Mine(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.queriesReady(c) {
		return
	}
	result, err := queries.Ask[listingsapp.MyListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, listingsapp.MyListingsQuery{SellerID: user.ID})
	if err != nil {
		respondError(c, h.Logger, "my listings", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) BySeller(c *gin.Context) {
	if !h.queriesReady(c) {
		return
	}
	sellerID, ok := requireParam(c, "id", "user id is required")
	if !ok {
		return
	}
	result, err := queries.Ask[listingsapp.SellerListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, listingsapp.SellerListingsQuery{SellerID: sellerID})
	if err != nil {
		respondError(c, h.Logger, "seller listings", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Create accepts a multipart form: listing fields as form values, an
// "attributes" JSON object, and files under "images" and "videos".
func (h ListingHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.commandsReady(c) {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form is required"})
		return
	}
	req, err := listingRequestFromForm(form)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	images, closeImages, err := openUploads(form.File["images"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeImages()
	videos, closeVideos, err := openUploads(form.File["videos"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeVideos()

	cmd := listingsapp.CreateListingCommand{
		SellerID:    user.ID,
		SellerEmail: user.Email,
		Payload:     req.payload(),
		Images:      images,
		Videos:      videos,
	}
	result, err := commands.Dispatch[listingsapp.CreateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "create listing", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.commandsReady(c) {
		return
	}
	listingID, ok := requireParam(c, "id", "listing id is required")
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingsapp.UpdateListingCommand{SellerID: user.ID, ListingID: listingID, Payload: req.payload()}
	result, err := commands.Dispatch[listingsapp.UpdateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "update listing", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.commandsReady(c) {
		return
	}
	listingID, ok := requireParam(c, "id", "listing id is required")
	if !ok {
		return
	}
	cmd := listingsapp.DeleteListingCommand{SellerID: user.ID, ListingID: listingID}
	if _, err := commands.Dispatch[listingsapp.DeleteListingCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, "delete listing", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h ListingHandler) AddMedia(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.commandsReady(c) {
		return
	}
	listingID, ok := requireParam(c, "id", "listing id is required")
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	uploads, closeAll, err := openUploads([]*multipart.FileHeader{header})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeAll()

	cmd := listingsapp.AddListingMediaCommand{SellerID: user.ID, ListingID: listingID, File: uploads[0]}
	result, err := commands.Dispatch[listingsapp.AddListingMediaCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "add listing media", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) RemoveMedia(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.commandsReady(c) {
		return
	}
	listingID, ok := requireParam(c, "id", "listing id is required")
	if !ok {
		return
	}
	mediaID, ok := requireParam(c, "mediaID", "media id is required")
	if !ok {
		return
	}
	cmd := listingsapp.RemoveListingMediaCommand{SellerID: user.ID, ListingID: listingID, MediaID: mediaID}
	result, err := commands.Dispatch[listingsapp.RemoveListingMediaCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "remove listing media", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) SetPrimaryImage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok || !h.commandsReady(c) {
		return
	}
	listingID, ok := requireParam(c, "id", "listing id is required")
	if !ok {
		return
	}
	imageID, ok := requireParam(c, "mediaID", "image id is required")
	if !ok {
		return
	}
	cmd := listingsapp.SetPrimaryImageCommand{SellerID: user.ID, ListingID: listingID, ImageID: imageID}
	result, err := commands.Dispatch[listingsapp.SetPrimaryImageCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "set primary image", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) commandsReady(c *gin.Context) bool {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listings: commands unavailable"})
		return false
	}
	return true
}

func (h ListingHandler) queriesReady(c *gin.Context) bool {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listings: queries unavailable"})
		return false
	}
	return true
}

var _ ListingHTTP = ListingHandler{}

func parseMarketplaceFilter(c *gin.Context) (discovery.Filter, error) {
	filter := discovery.Filter{
		Search:     strings.TrimSpace(c.Query("q")),
		InStock:    parseBool(c.Query("in_stock")),
		OutOfStock: parseBool(c.Query("out_of_stock")),
		Types:      splitCSV(c.Query("type")),
		Colors:     splitCSV(c.Query("color")),
		Materials:  splitCSV(c.Query("material")),
		Sizes:      splitCSV(c.Query("size")),
		Sort:       discovery.ParseSort(c.Query("sort")),
	}
	currency := strings.TrimSpace(c.Query("currency"))
	var err error
	if filter.PriceMin, err = parsePrice(c.Query("price_min"), currency); err != nil {
		return discovery.Filter{}, err
	}
	if filter.PriceMax, err = parsePrice(c.Query("price_max"), currency); err != nil {
		return discovery.Filter{}, err
	}
	return filter, nil
}

func parsePrice(raw, currency string) (*money.Money, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errInvalidParam("price must be a number")
	}
	m, err := money.FromMajor(value, currency)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func listingRequestFromForm(form *multipart.Form) (listingRequest, error) {
	value := func(key string) string {
		if vals := form.Value[key]; len(vals) > 0 {
			return strings.TrimSpace(vals[0])
		}
		return ""
	}
	req := listingRequest{
		Title:       value("title"),
		Description: value("description"),
		Currency:    value("currency"),
		Condition:   value("condition"),
		Negotiable:  parseBool(value("negotiable")),
		Location:    value("location"),
		CategoryID:  value("category_id"),
	}
	if raw := value("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return listingRequest{}, errInvalidParam("price must be a number")
		}
		req.Price = price
	}
	if raw := value("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return listingRequest{}, errInvalidParam("stock must be an integer")
		}
		req.Stock = &stock
	}
	if raw := value("in_stock"); raw != "" {
		inStock := parseBool(raw)
		req.InStock = &inStock
	}
	if raw := value("attributes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Attributes); err != nil {
			return listingRequest{}, errInvalidParam("attributes must be a JSON object of strings")
		}
	}
	return req, nil
}

// openUploads opens every part; the returned func closes whatever was opened.
func openUploads(headers []*multipart.FileHeader) ([]listingsapp.Upload, func(), error) {
	uploads := make([]listingsapp.Upload, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	closeAll := func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, file)
		uploads = append(uploads, listingsapp.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      file,
		})
	}
	return uploads, closeAll, nil
}
