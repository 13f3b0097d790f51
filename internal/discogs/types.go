package discogs

// searchResponse is the JSON response for /database/search.
type searchResponse struct {
	Results []struct {
		ID       int    `json:"id"`
		MasterID int    `json:"master_id"`
		Type     string `json:"type"`
		Title    string `json:"title"`
	} `json:"results"`
}

// masterResponse is the JSON response for /masters/{id}.
type masterResponse struct {
	ID          int `json:"id"`
	MainRelease int `json:"main_release"`
}

type artist struct {
	Name string `json:"name"`
	ANV  string `json:"anv"`
	Role string `json:"role"`
}

// releaseResponse is the JSON response for /releases/{id}.
type releaseResponse struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Year         int      `json:"year"`
	Genres       []string `json:"genres"`
	Artists      []artist `json:"artists"`
	ExtraArtists []artist `json:"extraartists"`
	Formats      []struct {
		Name string `json:"name"`
		Qty  string `json:"qty"`
	} `json:"formats"`
	Images []struct {
		Type string `json:"type"`
		URI  string `json:"uri"`
	} `json:"images"`
	Identifiers []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"identifiers"`
	Tracklist []struct {
		Position     string   `json:"position"`
		Type         string   `json:"type_"`
		Title        string   `json:"title"`
		Duration     string   `json:"duration"`
		ExtraArtists []artist `json:"extraartists"`
	} `json:"tracklist"`
}

// apiError is the body Discogs sends with non-2xx responses.
type apiError struct {
	Message string `json:"message"`
}
