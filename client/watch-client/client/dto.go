package client

// ProcessVideoRequest describes a video submission to the analysis server.
type ProcessVideoRequest struct {
	FilePath string // local path of the media to stream
	FileName string // original filename, used by the server to key push events
	MimeType string
}

// Session represents an authenticated session issued by the server.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type validateCameraRequest struct {
	URL string `json:"url"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}
