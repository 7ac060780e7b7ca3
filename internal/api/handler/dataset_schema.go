package handler

// --- Request types ---

type createDatasetRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Category    string   `json:"category" validate:"max=100"`
	Data        []string `json:"data" validate:"required,min=1"`
}

// updateDatasetRequest distinguishes absent fields (nil) from supplied ones.
type updateDatasetRequest struct {
	Name        *string   `json:"name" validate:"omitnil,min=1,max=100"`
	Description *string   `json:"description" validate:"omitnil,max=500"`
	Category    *string   `json:"category" validate:"omitnil,max=100"`
	Data        *[]string `json:"data" validate:"omitnil,min=1"`
}

type signInRequest struct {
	Credential string `json:"credential" validate:"required"`
}

// --- Response types ---

type datasetResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Data        []string `json:"data"`
	ItemCount   int      `json:"itemCount"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
	CreatedBy   string   `json:"createdBy"`
}

type listDatasetsResponse struct {
	Datasets []datasetResponse `json:"datasets"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type searchDatasetsResponse struct {
	Datasets []datasetResponse `json:"datasets"`
	Total    int               `json:"total"`
	Query    string            `json:"query"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
	Total      int      `json:"total"`
}

type publicDataset struct {
	Description string   `json:"description"`
	Data        []string `json:"data"`
}

type authURLResponse struct {
	URL string `json:"url"`
}

type sessionUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type signInResponse struct {
	Token string      `json:"token"`
	User  sessionUser `json:"user"`
}

type verifyResponse struct {
	User sessionUser `json:"user"`
}
