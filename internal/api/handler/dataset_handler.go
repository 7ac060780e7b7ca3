package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fmtdata/datafill/internal/core/ports"
)

// DatasetHandler handles HTTP requests for dataset operations.
type DatasetHandler struct {
	service ports.DatasetService
}

func NewDatasetHandler(service ports.DatasetService) *DatasetHandler {
	return &DatasetHandler{service: service}
}

// Public handles GET /datasets/public, the map consumed by the design-tool plugin.
//
// @Summary      Public dataset map
// @Description  Every dataset keyed by its lowercase name. No authentication.
// @Tags         datasets
// @Produce      json
// @Success      200  {object}  map[string]publicDataset
// @Failure      429  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /datasets/public [get]
func (h *DatasetHandler) Public(c echo.Context) error {
	m, err := h.service.PublicDatasets(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPublicResponse(m))
}

// Categories handles GET /datasets/categories.
//
// @Summary      List categories
// @Tags         datasets
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  categoriesResponse
// @Failure      401  {object}  errorResponse
// @Router       /datasets/categories [get]
func (h *DatasetHandler) Categories(c echo.Context) error {
	cats, err := h.service.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categoriesResponse{Categories: cats, Total: len(cats)})
}

// List handles GET /datasets.
//
// @Summary      List datasets
// @Tags         datasets
// @Produce      json
// @Security     BearerAuth
// @Param        search    query     string  false  "Case-insensitive substring of name or description"
// @Param        category  query     string  false  "Exact category"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Page size (default 10, max 100)"
// @Success      200       {object}  listDatasetsResponse
// @Failure      401       {object}  errorResponse
// @Router       /datasets [get]
func (h *DatasetHandler) List(c echo.Context) error {
	res, err := h.service.ListDatasets(c.Request().Context(), ports.ListDatasetsInput{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listDatasetsResponse{
		Datasets: toDatasetResponses(res.Items),
		Total:    res.Total,
		Page:     res.Page,
		Limit:    res.Limit,
	})
}

// Search handles GET /datasets/search.
//
// @Summary      Search datasets
// @Description  Name matches rank above description matches.
// @Tags         datasets
// @Produce      json
// @Security     BearerAuth
// @Param        q         query     string  true   "Search text"
// @Param        category  query     string  false  "Exact category"
// @Param        limit     query     int     false  "Maximum results (default 20, max 100)"
// @Success      200       {object}  searchDatasetsResponse
// @Failure      400       {object}  validationErrorResponse
// @Failure      401       {object}  errorResponse
// @Router       /datasets/search [get]
func (h *DatasetHandler) Search(c echo.Context) error {
	res, err := h.service.SearchDatasets(c.Request().Context(), ports.SearchDatasetsInput{
		Query:    c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, searchDatasetsResponse{
		Datasets: toDatasetResponses(res.Items),
		Total:    len(res.Items),
		Query:    res.Query,
	})
}

// Get handles GET /datasets/:id.
//
// @Summary      Get a dataset
// @Tags         datasets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Dataset id"
// @Success      200  {object}  datasetResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /datasets/{id} [get]
func (h *DatasetHandler) Get(c echo.Context) error {
	d, err := h.service.GetDataset(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDatasetResponse(d))
}

// Create handles POST /datasets.
//
// @Summary      Create a dataset
// @Tags         datasets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createDatasetRequest  true  "Dataset"
// @Success      201   {object}  datasetResponse
// @Failure      400   {object}  validationErrorResponse
// @Failure      401   {object}  errorResponse
// @Router       /datasets [post]
func (h *DatasetHandler) Create(c echo.Context) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}

	var req createDatasetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	d, err := h.service.CreateDataset(c.Request().Context(), toCreateInput(req, session))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toDatasetResponse(d))
}

// Update handles PATCH /datasets/:id. Only supplied fields change.
//
// @Summary      Update a dataset
// @Tags         datasets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Dataset id"
// @Param        body  body      updateDatasetRequest  true  "Fields to change"
// @Success      200   {object}  datasetResponse
// @Failure      400   {object}  validationErrorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /datasets/{id} [patch]
func (h *DatasetHandler) Update(c echo.Context) error {
	if _, err := requireSession(c); err != nil {
		return err
	}

	var req updateDatasetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	d, err := h.service.UpdateDataset(c.Request().Context(), toUpdateInput(c.Param("id"), req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDatasetResponse(d))
}

// Delete handles DELETE /datasets/:id.
//
// @Summary      Delete a dataset
// @Tags         datasets
// @Security     BearerAuth
// @Param        id   path  string  true  "Dataset id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /datasets/{id} [delete]
func (h *DatasetHandler) Delete(c echo.Context) error {
	if _, err := requireSession(c); err != nil {
		return err
	}
	if err := h.service.DeleteDataset(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// queryInt parses a numeric query parameter leniently: anything unparsable
// is treated as absent and the service applies its default.
func queryInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}
