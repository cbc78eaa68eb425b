package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/genaker/imagecache/pkg/cache"
	"github.com/genaker/imagecache/pkg/params"
	"github.com/genaker/imagecache/pkg/resizer"
	"github.com/genaker/imagecache/pkg/signing"
)

func handleResizeRequest(ctx context.Context, resizeService resizer.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		processingCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			w.Write([]byte("only GET method is allowed"))
			return
		}

		request := strings.TrimPrefix(r.URL.Path, "/img")
		if r.URL.RawQuery != "" {
			request += "?" + r.URL.RawQuery
		}
		log.Printf("processing: %s", request)

		result, err := resizeService.Resize(processingCtx, request)
		r.Body.Close()

		if err != nil {
			writeResizeError(w, request, err)
			return
		}

		cacheState := "MISS"
		if result.FromCache {
			cacheState = "HIT"
		}

		w.Header().Set("Content-Type", result.MimeType)
		w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
		w.Header().Set("X-Image-Cache", cacheState)
		w.WriteHeader(http.StatusOK)
		w.Write(result.Data)
	}
}

func writeResizeError(w http.ResponseWriter, request string, err error) {
	switch {
	case errors.Is(err, resizer.ErrInvalidParameter):
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid request parameter"))

	case errors.Is(err, resizer.ErrSignatureMismatch):
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("request signature mismatch"))

	case errors.Is(err, resizer.ErrSourceNotFound):
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("source image not found"))

	case errors.Is(err, resizer.ErrLockTimeout), errors.Is(err, resizer.ErrBusy):
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("service is busy, retry later"))

	default:
		log.Printf("error occurred when processing %s: %s", request, err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("error occurred when processing image"))
	}
}

func handlePurgeRequest(ctx context.Context, purgeService cache.PurgeService) http.HandlerFunc {
	rawAccessToken := os.Getenv("IMAGECACHE_PURGE_SECURITY_TOKEN")
	accessToken := fmt.Sprintf("Bearer %s", rawAccessToken)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			w.Write([]byte("only DELETE method is allowed"))
			return
		}

		if rawAccessToken != "" && r.Header.Get("Authorization") != accessToken {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("access token authorization failed"))
			return
		}

		sourcePath := r.URL.Query().Get("source")
		pattern := r.URL.Query().Get("pattern")
		if sourcePath == "" && pattern == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("source or pattern query parameter is required"))
			return
		}

		var removed []cache.EntryModel
		var purgeErr error
		if sourcePath != "" {
			removed, purgeErr = purgeService.PurgeSource(ctx, sourcePath)
		} else {
			removed, purgeErr = purgeService.PurgeMatching(ctx, pattern)
		}

		jsonResult, marshalErr := json.Marshal(removed)
		if marshalErr != nil {
			log.Printf("error occurred when marshalling purged entries: %s", marshalErr)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("error occurred when marshalling purged entries"))
			return
		}

		if purgeErr != nil {
			log.Printf("error occurred when purging: %s", purgeErr)
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		w.Write(jsonResult)
	}
}

func handleSignRequest(linkGenerator *signing.LinkGenerator, parser *params.Parser) http.HandlerFunc {
	rawAccessToken := os.Getenv("IMAGECACHE_PURGE_SECURITY_TOKEN")
	accessToken := fmt.Sprintf("Bearer %s", rawAccessToken)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			w.Write([]byte("only GET method is allowed"))
			return
		}

		if rawAccessToken != "" && r.Header.Get("Authorization") != accessToken {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("access token authorization failed"))
			return
		}

		imagePath := r.URL.Query().Get("path")
		if imagePath == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("path query parameter is required"))
			return
		}

		query, err := resizeQueryFromRequest(r)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}

		// Round-trip through the parser so the link carries the same
		// normalized values the read side will validate against.
		normalized, err := parser.Parse("/" + params.EncodeBlobSegment(imagePath, query, query.Get("f")))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(err.Error()))
			return
		}

		var link string
		if r.URL.Query().Get("encoding") == "blob" {
			link, err = linkGenerator.BlobLink(normalized.ImagePath, normalized.Params)
		} else {
			link, err = linkGenerator.PlainLink(normalized.ImagePath, normalized.Params)
		}
		if err != nil {
			log.Printf("error occurred when signing link: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("error occurred when signing link"))
			return
		}

		jsonResult, marshalErr := json.Marshal(map[string]string{"url": "/img" + link})
		if marshalErr != nil {
			log.Printf("error occurred when marshalling signed link: %s", marshalErr)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("error occurred when marshalling signed link"))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(jsonResult)
	}
}

// resizeQueryFromRequest copies only the resize parameters the caller
// actually provided, so omitted values pick up parser defaults instead
// of being baked into the link as zeros.
func resizeQueryFromRequest(r *http.Request) (url.Values, error) {
	if r.URL.Query().Get("f") == "" {
		return nil, errors.New("f query parameter is required")
	}

	query := url.Values{}
	for _, name := range []string{"w", "h", "q", "f", "a"} {
		if value := r.URL.Query().Get(name); value != "" {
			query.Set(name, value)
		}
	}

	return query, nil
}
