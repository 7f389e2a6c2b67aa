package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// provider turns an audio file into text.
type provider interface {
	Transcribe(ctx context.Context, audioPath string) (text, language string, err error)
}

// apiProvider posts the audio to an OpenAI-compatible transcription endpoint.
type apiProvider struct {
	client *http.Client
	url    string
	apiKey string
	model  string
}

type apiResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (p *apiProvider) Transcribe(ctx context.Context, audioPath string) (string, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = f.Close() }()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", "", err
	}
	model := p.model
	if model == "" {
		model = "whisper-1"
	}
	if err := mw.WriteField("model", model); err != nil {
		return "", "", err
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return "", "", err
	}
	if err := mw.Close(); err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, &body)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("transcription api returned status %d: %s", resp.StatusCode, lastNonEmptyLine(string(raw)))
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", "", fmt.Errorf("failed to parse transcription response: %w", err)
	}
	return parsed.Text, parsed.Language, nil
}

// whisperProvider runs a local whisper.cpp binary.
type whisperProvider struct {
	binPath   string
	modelPath string
}

func (p *whisperProvider) Transcribe(ctx context.Context, audioPath string) (string, string, error) {
	cmd := exec.CommandContext(ctx, p.binPath,
		"-m", p.modelPath,
		"-f", audioPath,
		"--no-timestamps",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := lastNonEmptyLine(stderr.String())
		if detail != "" {
			return "", "", fmt.Errorf("whisper failed: %w: %s", err, detail)
		}
		return "", "", fmt.Errorf("whisper failed: %w", err)
	}
	return strings.TrimSpace(stdout.String()), "", nil
}
