package alertsmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/clubnft/clubd/internal/core/ports"
	"github.com/clubnft/clubd/internal/infrastructure/httpretry"
	"github.com/google/uuid"
)

const (
	serviceName = "clubd"
)

type Alert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
}

type service struct {
	baseUrl     string
	gatewayUrl  string
	httpClient  *http.Client
	retryPolicy httpretry.Policy
}

// NewService returns an Alerts publisher posting to the given AlertManager
// endpoint. gatewayURL, if set, is used to link metadata references.
func NewService(alertManagerURL, gatewayURL string) ports.Alerts {
	return &service{
		baseUrl:    alertManagerURL,
		gatewayUrl: strings.TrimSuffix(gatewayURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		retryPolicy: httpretry.DefaultPolicy(),
	}
}

func (s *service) Publish(ctx context.Context, topic ports.Topic, message any) error {
	labels := map[string]string{
		"alertname": string(topic),
		"alert_id":  uuid.New().String(),
		"service":   serviceName,
		"severity":  "info",
	}

	desc := ""
	annotations := map[string]string{}
	switch topic {
	case ports.TokenMinted:
		m, ok := message.(ports.TokenMintedAlert)
		if !ok {
			return fmt.Errorf("invalid message type: %T", message)
		}
		annotations["firing_title"] = fmt.Sprintf("⚽ Token #%d Minted", m.TokenId)
		desc = formatTokenMintedAlert(s.gatewayUrl, m)
		labels["request_id"] = m.RequestId
		labels["category"] = m.Category
	case ports.CategoryOutRange:
		m, ok := message.(ports.CategoryOutOfRangeAlert)
		if !ok {
			return fmt.Errorf("invalid message type: %T", message)
		}
		annotations["firing_title"] = "🚨 Category Out Of Range"
		desc = formatCategoryOutOfRangeAlert(m)
		labels["severity"] = "critical"
		labels["request_id"] = m.RequestId
	default:
		annotations["firing_title"] = fmt.Sprintf("🔔 %s", topic)
		desc = formatGenericAlert(map[string]any{"event": message})
	}

	annotations["description"] = desc
	alert := Alert{
		Labels:      labels,
		Annotations: annotations,
		StartsAt:    time.Now(),
	}

	if err := s.sendAlert(ctx, alert); err != nil {
		return fmt.Errorf("failed to send alert to AlertManager: %w", err)
	}

	return nil
}

func (s *service) sendAlert(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal([]Alert{alert})
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}

	resp, err := s.retryPolicy.Do(ctx, s.httpClient, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, s.baseUrl, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

func formatTokenMintedAlert(gatewayUrl string, data ports.TokenMintedAlert) string {
	lines := make([]string, 0)
	lines = append(lines, fmt.Sprintf("*Owner:* `%s`", data.Owner))
	lines = append(lines, fmt.Sprintf("*Request:* `%s`", data.RequestId))
	lines = append(lines, fmt.Sprintf("\n*Category:* %s", data.Category))
	lines = append(lines, fmt.Sprintf("*Metadata:* %s", data.MetadataReference))
	if len(gatewayUrl) > 0 && strings.HasPrefix(data.MetadataReference, "ipfs://") {
		lines = append(lines, fmt.Sprintf(
			"• %s/ipfs/%s", gatewayUrl, strings.TrimPrefix(data.MetadataReference, "ipfs://"),
		))
	}
	lines = append(lines, fmt.Sprintf("\n*Minted so far:* %d", data.TokenCounter))
	return strings.Join(lines, "\n")
}

func formatCategoryOutOfRangeAlert(data ports.CategoryOutOfRangeAlert) string {
	lines := make([]string, 0)
	lines = append(lines, fmt.Sprintf("*Request:* `%s`", data.RequestId))
	lines = append(lines, fmt.Sprintf("• Random value: %s", data.RandomValue))
	lines = append(lines, fmt.Sprintf("• Modulus: %d", data.Modulus))
	lines = append(lines, "\nThe category table does not cover the modded value.")
	return strings.Join(lines, "\n")
}

func formatGenericAlert(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("• %s: %v", key, data[key]))
	}
	return strings.Join(lines, "\n")
}
