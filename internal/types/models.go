package types

// Model is one entry of the static model catalog.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ModelList is the response body of GET /models.
type ModelList struct {
	Data []Model `json:"data"`
}
