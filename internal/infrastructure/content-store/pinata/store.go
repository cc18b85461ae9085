package pinatastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/clubnft/clubd/internal/core/ports"
	contentstore "github.com/clubnft/clubd/internal/infrastructure/content-store"
	"github.com/clubnft/clubd/internal/infrastructure/httpretry"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultApiUrl     = "https://api.pinata.cloud"
	DefaultGatewayUrl = "https://gateway.pinata.cloud"

	pinFilePath = "/pinning/pinFileToIPFS"
)

type pinResponse struct {
	IpfsHash    string `json:"IpfsHash"`
	PinSize     int64  `json:"PinSize"`
	Timestamp   string `json:"Timestamp"`
	IsDuplicate bool   `json:"isDuplicate"`
}

type pinataMetadata struct {
	Name      string            `json:"name"`
	KeyValues map[string]string `json:"keyvalues,omitempty"`
}

type pinataOptions struct {
	CidVersion int `json:"cidVersion"`
}

type store struct {
	apiUrl     string
	gatewayUrl string
	jwt        string

	httpClient  *http.Client
	retryPolicy httpretry.Policy
}

// NewContentStore returns a content store pinning files through the Pinata
// API. Content is read back from the given IPFS gateway.
func NewContentStore(apiURL, gatewayURL, jwt string) (ports.ContentStore, error) {
	if len(jwt) <= 0 {
		return nil, fmt.Errorf("missing pinata jwt")
	}
	if len(apiURL) <= 0 {
		apiURL = DefaultApiUrl
	}
	if len(gatewayURL) <= 0 {
		gatewayURL = DefaultGatewayUrl
	}

	return &store{
		apiUrl:     strings.TrimSuffix(apiURL, "/"),
		gatewayUrl: strings.TrimSuffix(gatewayURL, "/"),
		jwt:        jwt,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		retryPolicy: httpretry.DefaultPolicy(),
	}, nil
}

func (s *store) Put(ctx context.Context, name string, data []byte) (string, error) {
	uploadId := uuid.New().String()
	body, contentType, err := encodePinRequest(name, uploadId, data)
	if err != nil {
		return "", err
	}

	resp, err := s.retryPolicy.Do(ctx, s.httpClient, func() (*http.Request, error) {
		req, err := http.NewRequest(
			http.MethodPost, s.apiUrl+pinFilePath, bytes.NewReader(body),
		)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+s.jwt)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to pin %s: %w", name, err)
	}
	// nolint
	defer resp.Body.Close()

	var pin pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pin); err != nil {
		return "", fmt.Errorf("failed to decode pinata response: %w", err)
	}
	if len(pin.IpfsHash) <= 0 {
		return "", fmt.Errorf("pinata returned an empty hash for %s", name)
	}

	log.WithFields(log.Fields{
		"name":      name,
		"upload_id": uploadId,
		"duplicate": pin.IsDuplicate,
	}).Debugf("pinned %s", pin.IpfsHash)

	return contentstore.IpfsScheme + pin.IpfsHash, nil
}

func (s *store) Get(ctx context.Context, address string) ([]byte, error) {
	c, err := contentstore.ParseIpfsAddress(address)
	if err != nil {
		return nil, err
	}

	resp, err := s.retryPolicy.Do(ctx, s.httpClient, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, s.gatewayUrl+"/ipfs/"+c.String(), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", address, err)
	}
	// nolint
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (s *store) Close() {}

func encodePinRequest(name, uploadId string, data []byte) ([]byte, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}

	metadata, _ := json.Marshal(pinataMetadata{
		Name:      name,
		KeyValues: map[string]string{"upload_id": uploadId},
	})
	if err := w.WriteField("pinataMetadata", string(metadata)); err != nil {
		return nil, "", fmt.Errorf("failed to write pinata metadata: %w", err)
	}
	options, _ := json.Marshal(pinataOptions{CidVersion: 1})
	if err := w.WriteField("pinataOptions", string(options)); err != nil {
		return nil, "", fmt.Errorf("failed to write pinata options: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
