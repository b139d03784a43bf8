package dto

type SubmitProofRequest struct {
	URL string `json:"url"`
}
