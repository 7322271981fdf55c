package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/ochairo/artifetch/internal/domain/entities"
)

// fingerprintGateway looks up content digests in a build server's
// fingerprint database
type fingerprintGateway struct {
	httpClient *http.Client
}

// NewFingerprintGateway creates a new fingerprint gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewFingerprintGateway() *fingerprintGateway {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = 30 * time.Second

	return &fingerprintGateway{httpClient: client}
}

// ValidateForBuild asks the server whether digest was produced or used as
// fileName by job at build. Every failure to get an answer wraps
// entities.ErrVerificationIndeterminate.
func (g *fingerprintGateway) ValidateForBuild(ctx context.Context, server entities.Server, digest, fileName, job string, build int) (bool, error) {
	record, err := g.GetFingerprint(ctx, server, digest)
	if err != nil {
		return false, err
	}

	return record.ValidateForBuild(fileName, job, build), nil
}

// GetFingerprint fetches the record for digest
func (g *fingerprintGateway) GetFingerprint(ctx context.Context, server entities.Server, digest string) (*entities.FingerprintRecord, error) {
	apiURL := strings.TrimRight(server.BaseURL, "/") + "/fingerprint/" + url.PathEscape(digest) + "/api/json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", entities.ErrVerificationIndeterminate, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if server.HasCredentials() {
		req.SetBasicAuth(server.Username, server.Token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fingerprint request failed: %w", entities.ErrVerificationIndeterminate, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %w: %s", entities.ErrVerificationIndeterminate, entities.ErrFingerprintUnknown, digest)
	default:
		return nil, fmt.Errorf("%w: fingerprint lookup returned HTTP %s", entities.ErrVerificationIndeterminate, resp.Status)
	}

	var fp FingerprintResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&fp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse fingerprint response: %w", entities.ErrVerificationIndeterminate, err)
	}

	return fp.toEntity(), nil
}

func (fp *FingerprintResponse) toEntity() *entities.FingerprintRecord {
	record := &entities.FingerprintRecord{
		Hash:     fp.Hash,
		FileName: fp.FileName,
	}

	if fp.Original != nil {
		record.Original = &entities.BuildRef{
			Job:    fp.Original.Name,
			Number: fp.Original.Number,
		}
	}

	for _, u := range fp.Usage {
		usage := entities.FingerprintUsage{Job: u.Name}
		for _, r := range u.Ranges.Ranges {
			usage.Ranges = append(usage.Ranges, entities.BuildRange{Start: r.Start, End: r.End})
		}
		record.Usage = append(record.Usage, usage)
	}

	return record
}

// Fingerprint API response types

// FingerprintResponse is the JSON form of a fingerprint record
type FingerprintResponse struct {
	FileName string                 `json:"fileName"`
	Hash     string                 `json:"hash"`
	Original *FingerprintBuildPtr   `json:"original"`
	Usage    []FingerprintRangeItem `json:"usage"`
}

// FingerprintBuildPtr points at the build that first recorded the file
type FingerprintBuildPtr struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
}

// FingerprintRangeItem lists the builds of one job that used the file
type FingerprintRangeItem struct {
	Name   string              `json:"name"`
	Ranges FingerprintRangeSet `json:"ranges"`
}

// FingerprintRangeSet wraps the half-open build ranges of a usage item
type FingerprintRangeSet struct {
	Ranges []FingerprintRange `json:"ranges"`
}

// FingerprintRange is [Start, End) of build numbers
type FingerprintRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}
