package params

import (
	"encoding/base64"
	"errors"
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	AspectModeInset    = "inset"
	AspectModeOutbound = "outbound"
)

// ResizeParams is the typed parameter set built once at the parser
// boundary. Downstream components never see the raw query values.
type ResizeParams struct {
	Width      int
	Height     int
	Quality    int
	Format     string
	AspectMode string
}

// Values returns the parameter set as url values, omitting unset
// dimensions. Used by both the cache key builder and the signer so the
// two never diverge.
func (p ResizeParams) Values() url.Values {
	values := url.Values{}

	if p.Width > 0 {
		values.Set("w", strconv.Itoa(p.Width))
	}
	if p.Height > 0 {
		values.Set("h", strconv.Itoa(p.Height))
	}

	values.Set("q", strconv.Itoa(p.Quality))
	values.Set("f", p.Format)
	values.Set("a", p.AspectMode)
	return values
}

// Canonical returns the sorted, url-encoded representation of the
// parameter set.
func (p ResizeParams) Canonical() string {
	return p.Values().Encode()
}

type Request struct {
	ImagePath string
	Params    ResizeParams
	Signature string
}

type Config struct {
	AllowPlainQuery    bool
	AllowedFormats     []string
	AllowedAspectModes []string
	MinDimension       int
	MaxDimension       int
	DefaultQuality     int
}

func (c Config) withDefaults() Config {
	if len(c.AllowedFormats) == 0 {
		c.AllowedFormats = []string{"jpg", "jpeg", "png", "gif", "webp"}
	}
	if len(c.AllowedAspectModes) == 0 {
		c.AllowedAspectModes = []string{AspectModeInset, AspectModeOutbound}
	}
	if c.MinDimension == 0 {
		c.MinDimension = 20
	}
	if c.MaxDimension == 0 {
		c.MaxDimension = 5000
	}
	if c.DefaultQuality == 0 {
		c.DefaultQuality = 82
	}
	return c
}

type Parser struct {
	config Config
}

func NewParser(config Config) *Parser {
	return &Parser{config.withDefaults()}
}

// Parse accepts both wire encodings: a plain image path with resize
// query parameters, or a single base64url blob segment carrying
// "imagePath?query" with a cosmetic format suffix. Both normalize to
// the same Request.
func (p *Parser) Parse(rawRequest string) (Request, error) {
	info, err := url.Parse(rawRequest)
	if err != nil {
		return Request{}, ErrMalformedRequest
	}

	imagePath := strings.TrimPrefix(info.Path, "/")

	if decoded, ok := decodeBlobSegment(imagePath); ok {
		blobInfo, err := url.Parse(decoded)
		if err != nil {
			return Request{}, ErrMalformedRequest
		}

		return p.build(strings.TrimPrefix(blobInfo.Path, "/"), blobInfo.Query())
	}

	if !p.config.AllowPlainQuery {
		return Request{}, ErrPlainQueryDisabled
	}

	return p.build(imagePath, info.Query())
}

func (p *Parser) build(imagePath string, query url.Values) (Request, error) {
	if err := validateImagePath(imagePath); err != nil {
		return Request{}, err
	}

	format, err := p.parseFormat(query.Get("f"))
	if err != nil {
		return Request{}, err
	}

	width, err := p.parseDimension(query.Get("w"))
	if err != nil {
		return Request{}, err
	}

	height, err := p.parseDimension(query.Get("h"))
	if err != nil {
		return Request{}, err
	}

	quality, err := p.parseQuality(query.Get("q"))
	if err != nil {
		return Request{}, err
	}

	aspectMode, err := p.parseAspectMode(query.Get("a"))
	if err != nil {
		return Request{}, err
	}

	request := Request{
		ImagePath: imagePath,
		Params: ResizeParams{
			Width:      width,
			Height:     height,
			Quality:    quality,
			Format:     format,
			AspectMode: aspectMode,
		},
		Signature: query.Get("sig"),
	}

	return request, nil
}

func (p *Parser) parseFormat(raw string) (string, error) {
	if raw == "" {
		return "", ErrFormatMissing
	}

	format := strings.ToLower(raw)
	for _, allowed := range p.config.AllowedFormats {
		if format == allowed {
			return format, nil
		}
	}

	return "", ErrFormatNotAllowed
}

// parseDimension clamps out-of-range values into the configured bounds
// instead of rejecting them. Zero means "derive from source aspect".
func (p *Parser) parseDimension(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, ErrInvalidDimension
	}

	if value == 0 {
		return 0, nil
	}

	if value < p.config.MinDimension {
		return p.config.MinDimension, nil
	}
	if value > p.config.MaxDimension {
		return p.config.MaxDimension, nil
	}

	return value, nil
}

func (p *Parser) parseQuality(raw string) (int, error) {
	if raw == "" {
		return p.config.DefaultQuality, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrInvalidQuality
	}

	if value < 0 {
		return 0, nil
	}
	if value > 100 {
		return 100, nil
	}

	return value, nil
}

func (p *Parser) parseAspectMode(raw string) (string, error) {
	if raw == "" {
		return AspectModeInset, nil
	}

	mode := strings.ToLower(raw)
	for _, allowed := range p.config.AllowedAspectModes {
		if mode == allowed {
			return mode, nil
		}
	}

	return "", ErrInvalidAspectMode
}

func validateImagePath(imagePath string) error {
	if imagePath == "" {
		return ErrMalformedRequest
	}

	if strings.Contains(imagePath, "\\") {
		return ErrPathTraversal
	}

	for _, segment := range strings.Split(imagePath, "/") {
		if segment == ".." {
			return ErrPathTraversal
		}
	}

	// Clean must not change the path, otherwise it contained redundant
	// segments that could be used to confuse the storage root check.
	if cleaned := path.Clean(imagePath); cleaned != imagePath {
		return ErrPathTraversal
	}

	return nil
}

// EncodeBlobSegment produces the single-segment wire encoding of
// "imagePath?query". The format suffix carries no information, it only
// keeps CDNs and browsers happy about the file extension.
func EncodeBlobSegment(imagePath string, query url.Values, format string) string {
	raw := imagePath + "?" + query.Encode()
	return base64.RawURLEncoding.EncodeToString([]byte(raw)) + "." + format
}

func decodeBlobSegment(segment string) (string, bool) {
	if strings.Contains(segment, "/") {
		return "", false
	}

	dot := strings.LastIndex(segment, ".")
	if dot <= 0 {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(segment[:dot])
	if err != nil {
		return "", false
	}

	if !utf8.Valid(decoded) || !strings.Contains(string(decoded), "?") {
		return "", false
	}

	return string(decoded), true
}

var (
	ErrMalformedRequest   = errors.New("malformed resize request")
	ErrPathTraversal      = errors.New("image path escapes storage root")
	ErrFormatMissing      = errors.New("format parameter is required")
	ErrFormatNotAllowed   = errors.New("format not allowed")
	ErrInvalidDimension   = errors.New("invalid dimension parameter")
	ErrInvalidQuality     = errors.New("invalid quality parameter")
	ErrInvalidAspectMode  = errors.New("aspect mode not allowed")
	ErrPlainQueryDisabled = errors.New("plain query requests are disabled")
)
