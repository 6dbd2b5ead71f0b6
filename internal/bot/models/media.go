package models

// MediaResult is one processed Overseerr search hit.
type MediaResult struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Year      string `json:"year"`
	MediaType string `json:"mediaType"` // "movie" or "tv"
	Available bool   `json:"available"`
	Requested bool   `json:"requested"`
}

// BackendUser is an Overseerr account as listed by the user endpoint.
type BackendUser struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName"`
}

// Identity is a resolved way to call Overseerr: either a logged-in session
// cookie, or the configured API key acting on behalf of a user. A zero
// Identity means plain API-key access attributed to the key's owner.
type Identity struct {
	Cookie     string
	OnBehalfOf int
}
