package providers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/sony/gobreaker"
)

// Reducer names accepted by the atlas query endpoint.
const (
	ReducerMean  = "mean"
	ReducerFirst = "first"
)

// RegionQuery asks the satellite atlas for band values at a point or over a
// small buffer region, reduced to one value per band.
type RegionQuery struct {
	Dataset string   `json:"dataset"`
	Bands   []string `json:"bands"`
	Lat     float64  `json:"lat"`
	Lon     float64  `json:"lon"`
	BufferM float64  `json:"buffer_m,omitempty"` // 0 = exact point
	Scale   int      `json:"scale"`
	Reducer string   `json:"reducer"`
}

// RasterQuerier is the only contract the analyzers need from the primary
// satellite-atlas provider.
type RasterQuerier interface {
	QueryRegion(ctx context.Context, q RegionQuery) (map[string]float64, error)
}

// serviceCredential is the on-disk service-account key for the atlas gateway.
type serviceCredential struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	ProjectID   string `json:"project_id"`
}

// AtlasClient queries the satellite-atlas raster gateway.
type AtlasClient struct {
	name    string
	baseURL string
	email   string
	token   string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewAtlasClient builds a client from a service-account key file. It fails
// when the credential is missing or incomplete, which the resolver treats as
// "primary unavailable".
func NewAtlasClient(client *http.Client, baseURL, credentialPath string) (*AtlasClient, error) {
	raw, err := os.ReadFile(credentialPath)
	if err != nil {
		return nil, fmt.Errorf("read atlas credential: %w", err)
	}

	var cred serviceCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("parse atlas credential: %w", err)
	}
	if cred.ClientEmail == "" || cred.PrivateKey == "" {
		return nil, fmt.Errorf("atlas credential missing client_email or private_key")
	}

	// The gateway authenticates on the key fingerprint, not the raw key.
	sum := sha256.Sum256([]byte(cred.PrivateKey))

	return &AtlasClient{
		name:    "satellite-atlas",
		baseURL: baseURL,
		email:   cred.ClientEmail,
		token:   hex.EncodeToString(sum[:]),
		httpCfg: defaultBackoff(client),
		circuit: newBreaker("satellite-atlas"),
	}, nil
}

func (c *AtlasClient) Name() string {
	return c.name
}

// QueryRegion runs one reduced raster query and returns the band→value map.
// Bands absent from the response are simply missing from the map; callers
// decide whether that warrants a wider-buffer retry.
func (c *AtlasClient) QueryRegion(ctx context.Context, q RegionQuery) (map[string]float64, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+"/v1/reduce", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("X-Service-Account", c.email)
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Values map[string]*float64 `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	values := make(map[string]float64, len(payload.Values))
	for band, v := range payload.Values {
		if v != nil {
			values[band] = *v
		}
	}
	return values, nil
}
