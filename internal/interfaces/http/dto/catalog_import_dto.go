package dto

// CreateImportRunRequest starts a catalog import. Accepted as JSON or form fields.
type CreateImportRunRequest struct {
	ProductToFetchID         int64  `json:"productToFetchId" form:"productToFetchId" binding:"required,gt=0"`
	OnlineStorePublicationID string `json:"onlineStorePublicationId" form:"onlineStorePublicationId" binding:"omitempty,max=255"`
}

// RunIDRequest is the run id path parameter
type RunIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// AsyncRunResponse is returned when a run is accepted for background execution
type AsyncRunResponse struct {
	RunID     string `json:"runId"`
	State     string `json:"state"`
	StatusURL string `json:"statusUrl"`
}
