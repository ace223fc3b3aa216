package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Sections struct {
	Description  string `json:"description"`
	Installation string `json:"installation"`
	Changelog    string `json:"changelog"`
}

type Banners struct {
	Low  string `json:"low"`
	High string `json:"high"`
}

// PHP encodes an empty associative array as [], so both forms are accepted.
func (s *Sections) UnmarshalJSON(data []byte) error {
	if isEmptyList(data) {
		return nil
	}
	type plain Sections
	return json.Unmarshal(data, (*plain)(s))
}

func (b *Banners) UnmarshalJSON(data []byte) error {
	if isEmptyList(data) {
		return nil
	}
	type plain Banners
	return json.Unmarshal(data, (*plain)(b))
}

func isEmptyList(data []byte) bool {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return true
	}
	return len(data) >= 2 && data[0] == '[' && data[len(data)-1] == ']' &&
		len(bytes.TrimSpace(data[1:len(data)-1])) == 0
}

// Manifest is the remote document describing the latest available release of a plugin.
type Manifest struct {
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Version       string   `json:"version"`
	Tested        string   `json:"tested"`
	Requires      string   `json:"requires"`
	RequiresPHP   string   `json:"requires_php"`
	DownloadURL   string   `json:"download_url"`
	Author        string   `json:"author"`
	AuthorProfile string   `json:"author_profile"`
	LastUpdated   string   `json:"last_updated"`
	Sections      Sections `json:"sections"`
	Banners       *Banners `json:"banners,omitempty"`
}

type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse manifest: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var errNotAnObject = fmt.Errorf("manifest is not a JSON object")

// Parse decodes a manifest document. Anything that is not a JSON object yields a *ParseError.
func Parse(body []byte) (*Manifest, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ParseError{Err: errNotAnObject}
	}
	var m Manifest
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, &ParseError{Err: err}
	}
	if m.Banners != nil && m.Banners.Low == "" && m.Banners.High == "" {
		m.Banners = nil
	}
	return &m, nil
}

func (m *Manifest) HasBanners() bool {
	return m.Banners != nil
}
