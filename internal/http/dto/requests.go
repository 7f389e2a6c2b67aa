package dto

import "strings"

type SubmitDownloadRequest struct {
	URL         string `json:"url"`
	FormatID    string `json:"format_id"`
	FormatLabel string `json:"format_label"`
}

func (r *SubmitDownloadRequest) Validate() []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(r.URL) == "" {
		errs = append(errs, ValidationError{Field: "url", Message: "url is required"})
	}
	return errs
}

type PriorityRequest struct {
	Priority int `json:"priority"`
}

type AddFeedRequest struct {
	URL          string   `json:"url"`
	Keywords     []string `json:"keywords"`
	AutoDownload bool     `json:"auto_download"`
}

func (r *AddFeedRequest) Validate() []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(r.URL) == "" {
		errs = append(errs, ValidationError{Field: "url", Message: "url is required"})
	}
	return errs
}

type UpdateFeedRequest struct {
	Keywords     []string `json:"keywords"`
	AutoDownload bool     `json:"auto_download"`
}

type MarkDownloadedRequest struct {
	Downloaded bool `json:"downloaded"`
}

type SubmitTranscriptRequest struct {
	Source     string `json:"source"`
	DownloadID string `json:"download_id"`
}

func (r *SubmitTranscriptRequest) Validate() []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(r.Source) == "" && strings.TrimSpace(r.DownloadID) == "" {
		errs = append(errs, ValidationError{Field: "source", Message: "either source or download_id is required"})
	}
	return errs
}

type IntervalRequest struct {
	Minutes int `json:"minutes"`
}
