// Package contracts defines the JSON shapes of the admin API.
package contracts

import "time"

// APIResponse is the uniform envelope for admin API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse wraps an error message in a failure envelope.
func NewErrorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   message,
	}
}

// RegisterClientRequest is the body of POST /api/v1/clients.
type RegisterClientRequest struct {
	Name           string `json:"name"`
	TokenEndpoint  string `json:"token_endpoint"`
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	Scope          string `json:"scope,omitempty"`
	Audience       string `json:"audience,omitempty"`
	ServiceBaseURL string `json:"service_base_url"`
}

// ClientSummary is the externally visible view of a registered client. The
// client secret is always masked before it reaches this type.
type ClientSummary struct {
	Name           string    `json:"name"`
	TokenEndpoint  string    `json:"token_endpoint"`
	ClientID       string    `json:"client_id"`
	ClientSecret   string    `json:"client_secret"`
	Scope          string    `json:"scope,omitempty"`
	Audience       string    `json:"audience,omitempty"`
	ServiceBaseURL string    `json:"service_base_url"`
	Created        time.Time `json:"created,omitempty"`
	Updated        time.Time `json:"updated,omitempty"`
}
