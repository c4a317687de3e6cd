// Package testutil serves storefront pages to a real browser without
// network access: recorded or synthetic HAR archives are replayed through a
// rod request hijacker, and HTML fixtures are loaded from testdata.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"
)

// HARLog is the subset of an HTTP archive the replayer needs.
type HARLog struct {
	Entries []HAREntry `json:"entries"`
}

// HAREntry pairs a request with the response served for it.
type HAREntry struct {
	Request  HARRequest  `json:"request"`
	Response HARResponse `json:"response"`
}

type HARRequest struct {
	Method  string      `json:"method"`
	URL     string      `json:"url"`
	Headers []HARHeader `json:"headers,omitempty"`
	Body    string      `json:"body,omitempty"`
}

type HARResponse struct {
	Status  int         `json:"status"`
	Headers []HARHeader `json:"headers,omitempty"`
	Content HARContent  `json:"content"`
}

type HARHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type HARContent struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"` // "base64" for binary bodies
	Size     int    `json:"size,omitempty"`
}

// Site builds a synthetic archive, one HTML document per URL.
type Site struct {
	har HARLog
}

// NewSite returns an empty synthetic site.
func NewSite() *Site {
	return &Site{}
}

// Page serves html at url with status 200.
func (s *Site) Page(url, html string) *Site {
	return s.Respond(url, 200, "text/html; charset=utf-8", html)
}

// Respond serves body at url with an arbitrary status and mime type.
func (s *Site) Respond(url string, status int, mimeType, body string) *Site {
	s.har.Entries = append(s.har.Entries, HAREntry{
		Request: HARRequest{Method: "GET", URL: url},
		Response: HARResponse{
			Status:  status,
			Content: HARContent{MimeType: mimeType, Text: body, Size: len(body)},
		},
	})
	return s
}

// Redirect answers url with a 302 to location.
func (s *Site) Redirect(url, location string) *Site {
	s.har.Entries = append(s.har.Entries, HAREntry{
		Request: HARRequest{Method: "GET", URL: url},
		Response: HARResponse{
			Status:  302,
			Headers: []HARHeader{{Name: "Location", Value: location}},
		},
	})
	return s
}

// HAR returns the archive built so far.
func (s *Site) HAR() *HARLog {
	return &s.har
}

// devtoolsHAR is the HAR 1.2 layout exported by Chrome DevTools.
type devtoolsHAR struct {
	Log struct {
		Entries []struct {
			Request struct {
				Method   string      `json:"method"`
				URL      string      `json:"url"`
				Headers  []HARHeader `json:"headers,omitempty"`
				PostData *struct {
					Text string `json:"text"`
				} `json:"postData,omitempty"`
			} `json:"request"`
			Response HARResponse `json:"response"`
		} `json:"entries"`
	} `json:"log"`
}

// LoadHAR reads an archive. Both the DevTools export and the flat layout
// written by SaveHAR are accepted.
func LoadHAR(path string) (*HARLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read HAR file: %w", err)
	}

	var dt devtoolsHAR
	if err := json.Unmarshal(data, &dt); err == nil && len(dt.Log.Entries) > 0 {
		har := &HARLog{Entries: make([]HAREntry, len(dt.Log.Entries))}
		for i, e := range dt.Log.Entries {
			req := HARRequest{Method: e.Request.Method, URL: e.Request.URL, Headers: e.Request.Headers}
			if e.Request.PostData != nil {
				req.Body = e.Request.PostData.Text
			}
			har.Entries[i] = HAREntry{Request: req, Response: e.Response}
		}
		return har, nil
	}

	var har HARLog
	if err := json.Unmarshal(data, &har); err != nil {
		return nil, fmt.Errorf("parse HAR JSON: %w", err)
	}
	return &har, nil
}

// SaveHAR writes har in the flat layout.
func SaveHAR(path string, har *HARLog) error {
	data, err := json.MarshalIndent(har, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal HAR: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write HAR file: %w", err)
	}
	return nil
}

// MustLoadHAR loads an archive or fails the test.
func MustLoadHAR(t *testing.T, path string) *HARLog {
	t.Helper()

	har, err := LoadHAR(path)
	if err != nil {
		t.Fatalf("failed to load HAR file %s: %v", path, err)
	}
	return har
}
