package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Register performs RFC 7591 dynamic client registration.
func Register(ctx context.Context, endpoint string, metadata *ClientMetadata, client *http.Client) (*ClientInformation, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("authorization server does not support dynamic client registration")
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	response, err := client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("registration request failed: %w", err)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(io.LimitReader(response.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read registration response: %w", err)
	}
	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("registration failed (HTTP %d): %s", response.StatusCode, body)
	}
	info := &ClientInformation{}
	if err = json.Unmarshal(body, info); err != nil {
		return nil, fmt.Errorf("failed to decode registration response: %w", err)
	}
	if info.ClientID == "" {
		return nil, fmt.Errorf("registration response missing client_id")
	}
	return info, nil
}
