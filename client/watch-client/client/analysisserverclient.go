package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// AnalysisServerClient handles communication with the analysis server
type AnalysisServerClient interface {
	// ProcessVideo uploads the media described by request as a multipart
	// body. onProgress, if non-nil, is called with a monotonically
	// non-decreasing send percentage between 0 and 100. A nil return is
	// the only legitimate signal that server-side processing has started.
	ProcessVideo(ctx context.Context, request ProcessVideoRequest, onProgress func(percent int)) error

	// ValidateCamera asks the server to probe a live camera URL and
	// returns the server's confirmation message.
	ValidateCamera(ctx context.Context, url string) (string, error)

	// Login authenticates and returns a session token.
	Login(ctx context.Context, username, password string) (*Session, error)

	// Register creates a new user account.
	Register(ctx context.Context, username, password, role string) error
}

// analysisServerClient implements AnalysisServerClient using HTTP
type analysisServerClient struct {
	serverURL  string
	token      string
	httpClient *http.Client
}

// NewAnalysisServerClient creates a new HTTP client service. The token may
// be empty for unauthenticated calls (login, register).
func NewAnalysisServerClient(serverURL, token string, timeout time.Duration) AnalysisServerClient {
	return &analysisServerClient{
		serverURL: serverURL,
		token:     token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// progressReader counts bytes pulled through it and reports whole-percent
// milestones. Percentages never decrease because the byte count never does.
type progressReader struct {
	reader     io.Reader
	total      int64
	sent       int64
	lastPct    int
	onProgress func(percent int)
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 && r.total > 0 {
		r.sent += int64(n)
		pct := int(r.sent * 100 / r.total)
		if pct > 100 {
			pct = 100
		}
		if pct > r.lastPct {
			r.lastPct = pct
			if r.onProgress != nil {
				r.onProgress(pct)
			}
		}
	}
	return n, err
}

// ProcessVideo uploads a video file to the server, streaming the multipart
// body straight from disk so progress reflects bytes actually sent.
func (s *analysisServerClient) ProcessVideo(ctx context.Context, request ProcessVideoRequest, onProgress func(percent int)) error {
	file, err := os.Open(request.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open video file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat video file: %w", err)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	counting := &progressReader{
		reader:     file,
		total:      stat.Size(),
		onProgress: onProgress,
	}

	go func() {
		part, err := writer.CreateFormFile("video", request.FileName)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("failed to create form file: %w", err))
			return
		}
		if _, err := io.Copy(part, counting); err != nil {
			pw.CloseWithError(fmt.Errorf("failed to write video data: %w", err))
			return
		}
		if err := writer.Close(); err != nil {
			pw.CloseWithError(fmt.Errorf("failed to close writer: %w", err))
			return
		}
		pw.Close()
	}()

	url := fmt.Sprintf("%s/process-video", s.serverURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, pr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return NewTransportError(fmt.Sprintf("upload request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return transportErrorFromResponse("upload", resp)
	}

	// Response body is ignored beyond the status; processing results
	// arrive asynchronously over the push channel.
	io.Copy(io.Discard, resp.Body)
	return nil
}

// ValidateCamera issues a single request/response exchange for a camera URL.
// There is no progress reporting and no push correlation involved.
func (s *analysisServerClient) ValidateCamera(ctx context.Context, cameraURL string) (string, error) {
	body, err := json.Marshal(validateCameraRequest{URL: cameraURL})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/validate-camera", s.serverURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", NewTransportError(fmt.Sprintf("camera validation request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	var msg messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		reason := msg.Message
		if reason == "" {
			reason = fmt.Sprintf("camera validation failed with status %d", resp.StatusCode)
		}
		return "", NewTransportError(reason, resp.StatusCode)
	}

	return msg.Message, nil
}

// Login authenticates against the server and returns the issued session.
func (s *analysisServerClient) Login(ctx context.Context, username, password string) (*Session, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/login", s.serverURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, NewTransportError(fmt.Sprintf("login request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, transportErrorFromResponse("login", resp)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &session, nil
}

// Register creates a new user account on the server.
func (s *analysisServerClient) Register(ctx context.Context, username, password, role string) error {
	body, err := json.Marshal(registerRequest{Username: username, Password: password, Role: role})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/register", s.serverURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return NewTransportError(fmt.Sprintf("register request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return transportErrorFromResponse("register", resp)
	}

	return nil
}

// transportErrorFromResponse parses a structured {"error": ...} payload from
// a non-success response. If parsing fails, it synthesizes an error carrying
// the raw status.
func transportErrorFromResponse(op string, resp *http.Response) *TransportError {
	data, _ := io.ReadAll(resp.Body)

	var errResp errorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
		return NewTransportError(errResp.Error, resp.StatusCode)
	}

	return NewTransportError(fmt.Sprintf("%s failed with status %d", op, resp.StatusCode), resp.StatusCode)
}
